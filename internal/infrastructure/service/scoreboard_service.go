// Package service contains infrastructure services that sit between the
// application layer and the raw storage adapters.
package service

import (
	"context"

	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/pkg/circuitbreaker"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// ScoreboardService guards a score board with a circuit breaker.
// While the circuit is open every call fails fast with ErrServiceUnavailable.
type ScoreboardService struct {
	inner   leaderboard.ScoreSource
	breaker *circuitbreaker.CircuitBreaker
}

var _ leaderboard.ScoreSource = (*ScoreboardService)(nil)

// NewScoreboardService wraps inner. A nil breaker is built from
// circuitbreaker.Scoreboard with state changes logged through log.
func NewScoreboardService(inner leaderboard.ScoreSource, breaker *circuitbreaker.CircuitBreaker, log *logger.Logger) *ScoreboardService {
	if log == nil {
		log = logger.Nop()
	}
	if breaker == nil {
		l := log.With(logger.Component("scoreboard_breaker"))
		breaker = circuitbreaker.New(circuitbreaker.Scoreboard(func(name string, from, to circuitbreaker.State) {
			l.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}))
	}
	return &ScoreboardService{inner: inner, breaker: breaker}
}

// Upsert implements leaderboard.ScoreSource.
func (s *ScoreboardService) Upsert(ctx context.Context, classID string, record leaderboard.ScoreRecord) error {
	return s.guard(ctx, "Upsert", func(ctx context.Context) error {
		return s.inner.Upsert(ctx, classID, record)
	})
}

// List implements leaderboard.ScoreSource.
func (s *ScoreboardService) List(ctx context.Context, classID string) ([]leaderboard.ScoreRecord, error) {
	var out []leaderboard.ScoreRecord
	err := s.guard(ctx, "List", func(ctx context.Context) error {
		var err error
		out, err = s.inner.List(ctx, classID)
		return err
	})
	return out, err
}

// Remove implements leaderboard.ScoreSource.
func (s *ScoreboardService) Remove(ctx context.Context, classID, name string) error {
	return s.guard(ctx, "Remove", func(ctx context.Context) error {
		return s.inner.Remove(ctx, classID, name)
	})
}

// State returns the breaker state for health reporting.
func (s *ScoreboardService) State() circuitbreaker.State {
	return s.breaker.State()
}

func (s *ScoreboardService) guard(ctx context.Context, op string, fn func(context.Context) error) error {
	err := s.breaker.Execute(ctx, fn)
	if circuitbreaker.IsRejected(err) {
		return shared.WrapError("scoreboard", op, shared.ErrServiceUnavailable, "score board unavailable", err)
	}
	return err
}
