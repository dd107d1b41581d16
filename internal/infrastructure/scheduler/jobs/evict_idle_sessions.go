// Package jobs contains the hub's scheduled housekeeping jobs.
package jobs

import (
	"context"
	"time"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVICT IDLE SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

// EvictIdleSessionsJob drops sessions nobody touched for IdleTTL from memory.
// They stay in the journal and are replayed on the next access.
type EvictIdleSessionsJob struct {
	registry *session.Registry
	idleTTL  time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// NewEvictIdleSessionsJob creates the job.
func NewEvictIdleSessionsJob(registry *session.Registry, idleTTL time.Duration, log *logger.Logger) *EvictIdleSessionsJob {
	if log == nil {
		log = logger.Nop()
	}
	return &EvictIdleSessionsJob{
		registry: registry,
		idleTTL:  idleTTL,
		now:      time.Now,
		log:      log,
	}
}

// Name implements scheduler.Job.
func (j *EvictIdleSessionsJob) Name() string { return "evict_idle_sessions" }

// Run implements scheduler.Job.
func (j *EvictIdleSessionsJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	evicted := j.registry.EvictIdle(j.now().Add(-j.idleTTL))
	if evicted > 0 {
		j.log.Info("idle sessions evicted",
			logger.Int("evicted", evicted),
			logger.Int("live", j.registry.Len()),
		)
	}
	return nil
}
