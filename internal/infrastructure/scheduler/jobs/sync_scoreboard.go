package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SYNC SCOREBOARD
// ══════════════════════════════════════════════════════════════════════════════

// SyncScoreboardJob pushes the score record of every live session to the
// class score board. Publishing after each event can be lost when the board
// is unavailable; this job makes the board eventually consistent.
type SyncScoreboardJob struct {
	registry *session.Registry
	scores   leaderboard.ScoreSource
	log      *logger.Logger
}

// NewSyncScoreboardJob creates the job.
func NewSyncScoreboardJob(registry *session.Registry, scores leaderboard.ScoreSource, log *logger.Logger) *SyncScoreboardJob {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncScoreboardJob{registry: registry, scores: scores, log: log}
}

// Name implements scheduler.Job.
func (j *SyncScoreboardJob) Name() string { return "sync_scoreboard" }

// Run implements scheduler.Job. A failing session does not stop the rest;
// the errors are joined.
func (j *SyncScoreboardJob) Run(ctx context.Context) error {
	var (
		errs   []error
		synced int
	)

	for _, s := range j.registry.Sessions() {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := s.ScoreRecord()
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID(), err))
			continue
		}
		if err := j.scores.Upsert(ctx, s.Profile().ClassID.String(), rec); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID(), err))
			continue
		}
		synced++
	}

	j.log.Debug("scoreboard synced",
		logger.Int("synced", synced),
		logger.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}
