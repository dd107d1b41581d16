package command

import (
	"context"

	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEED ROSTER COMMAND
// Заполняет табло класса демонстрационными участниками.
// ══════════════════════════════════════════════════════════════════════════════

// SeedRosterCommand содержит участников для табло.
type SeedRosterCommand struct {
	ClassID string
	Records []leaderboard.ScoreRecord

	// Force перезаписывает табло, даже если в классе уже есть участники.
	Force bool
}

// SeedRosterResult - результат заполнения.
type SeedRosterResult struct {
	Seeded  int
	Skipped bool
}

// SeedRosterHandler обрабатывает SeedRosterCommand.
type SeedRosterHandler struct {
	scores leaderboard.ScoreSource
	log    *logger.Logger
}

// NewSeedRosterHandler создаёт обработчик.
func NewSeedRosterHandler(scores leaderboard.ScoreSource, log *logger.Logger) *SeedRosterHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SeedRosterHandler{scores: scores, log: log.With(logger.Operation("seed_roster"))}
}

// Handle записывает участников. Непустое табло не трогается без Force.
func (h *SeedRosterHandler) Handle(ctx context.Context, cmd SeedRosterCommand) (*SeedRosterResult, error) {
	if cmd.ClassID == "" {
		return nil, shared.NewDomainError("command", "SeedRoster", shared.ErrEmptyValue, "class id is required")
	}
	for _, rec := range cmd.Records {
		if rec.Points < 0 || rec.BadgeCount < 0 {
			return nil, shared.ErrNegativePoints
		}
	}

	if !cmd.Force {
		existing, err := h.scores.List(ctx, cmd.ClassID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return &SeedRosterResult{Skipped: true}, nil
		}
	}

	for _, rec := range cmd.Records {
		if err := h.scores.Upsert(ctx, cmd.ClassID, rec); err != nil {
			return nil, err
		}
	}

	h.log.Info("roster seeded", logger.ClassID(cmd.ClassID), logger.Int("participants", len(cmd.Records)))
	return &SeedRosterResult{Seeded: len(cmd.Records)}, nil
}
