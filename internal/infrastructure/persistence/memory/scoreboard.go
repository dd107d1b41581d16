package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// Scoreboard keeps per-class score records in memory.
type Scoreboard struct {
	mu      sync.RWMutex
	classes map[string]map[string]leaderboard.ScoreRecord
}

// NewScoreboard creates an empty score board.
func NewScoreboard() *Scoreboard {
	return &Scoreboard{classes: make(map[string]map[string]leaderboard.ScoreRecord)}
}

var _ leaderboard.ScoreSource = (*Scoreboard)(nil)

// Upsert implements leaderboard.ScoreSource.
func (s *Scoreboard) Upsert(ctx context.Context, classID string, record leaderboard.ScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if classID == "" || record.Name == "" {
		return shared.NewDomainError("scoreboard", "Upsert", shared.ErrEmptyValue, "class id and name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	class, ok := s.classes[classID]
	if !ok {
		class = make(map[string]leaderboard.ScoreRecord)
		s.classes[classID] = class
	}
	class[record.Name] = record
	return nil
}

// List implements leaderboard.ScoreSource. Records are sorted by name so
// callers see a stable order; ranking is still the ranker's job.
func (s *Scoreboard) List(ctx context.Context, classID string) ([]leaderboard.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	class := s.classes[classID]
	out := make([]leaderboard.ScoreRecord, 0, len(class))
	for _, rec := range class {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove implements leaderboard.ScoreSource.
func (s *Scoreboard) Remove(ctx context.Context, classID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.classes[classID], name)
	return nil
}
