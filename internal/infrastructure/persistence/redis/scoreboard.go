package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
)

// Scoreboard implements leaderboard.ScoreSource on Redis.
// Points live in a sorted set and badge counts in a hash, both keyed by the
// member name. Redis order is never used as the ranking: the ranker applies
// its own tie-break chain to whatever List returns.
type Scoreboard struct {
	client *Client
}

// NewScoreboard creates a Redis score board.
func NewScoreboard(client *Client) *Scoreboard {
	return &Scoreboard{client: client}
}

var _ leaderboard.ScoreSource = (*Scoreboard)(nil)

// Upsert writes points and badge count in one transaction.
func (s *Scoreboard) Upsert(ctx context.Context, classID string, record leaderboard.ScoreRecord) error {
	if classID == "" || record.Name == "" {
		return ErrKeyEmpty
	}

	_, err := s.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, PointsKey(classID), redis.Z{Score: float64(record.Points), Member: record.Name})
		pipe.HSet(ctx, BadgesKey(classID), record.Name, record.BadgeCount)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert score %s/%s: %w", classID, record.Name, err)
	}
	return nil
}

// List returns every member of the class, sorted by name.
func (s *Scoreboard) List(ctx context.Context, classID string) ([]leaderboard.ScoreRecord, error) {
	if classID == "" {
		return nil, ErrKeyEmpty
	}

	var (
		points *redis.ZSliceCmd
		badges *redis.MapStringStringCmd
	)
	_, err := s.client.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		points = pipe.ZRangeWithScores(ctx, PointsKey(classID), 0, -1)
		badges = pipe.HGetAll(ctx, BadgesKey(classID))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list scores %s: %w", classID, err)
	}

	return mergeScores(points.Val(), badges.Val())
}

// Remove deletes a member from both keys.
func (s *Scoreboard) Remove(ctx context.Context, classID, name string) error {
	if classID == "" || name == "" {
		return ErrKeyEmpty
	}

	_, err := s.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, PointsKey(classID), name)
		pipe.HDel(ctx, BadgesKey(classID), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove score %s/%s: %w", classID, name, err)
	}
	return nil
}

// mergeScores joins the sorted set and the badge hash. A member missing
// from the hash has zero badges.
func mergeScores(points []redis.Z, badges map[string]string) ([]leaderboard.ScoreRecord, error) {
	out := make([]leaderboard.ScoreRecord, 0, len(points))
	for _, z := range points {
		name, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected member type %T", z.Member)
		}

		rec := leaderboard.ScoreRecord{Name: name, Points: int(z.Score)}
		if raw, ok := badges[name]; ok {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("badge count for %s: %w", name, err)
			}
			rec.BadgeCount = n
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
