package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/persistence/memory"
	"github.com/raksha360/preparedness-hub/pkg/circuitbreaker"
)

type flakyScores struct {
	leaderboard.ScoreSource
	down  bool
	calls int
}

func (f *flakyScores) List(ctx context.Context, classID string) ([]leaderboard.ScoreRecord, error) {
	f.calls++
	if f.down {
		return nil, errors.New("redis: connection refused")
	}
	return f.ScoreSource.List(ctx, classID)
}

func TestScoreboardService_PassesThrough(t *testing.T) {
	ctx := context.Background()
	svc := NewScoreboardService(memory.NewScoreboard(), nil, nil)

	require.NoError(t, svc.Upsert(ctx, "7A", leaderboard.ScoreRecord{Name: "Arya", Points: 1250, BadgeCount: 8}))
	records, err := svc.List(ctx, "7A")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, svc.Remove(ctx, "7A", "Arya"))
	records, err = svc.List(ctx, "7A")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, circuitbreaker.StateClosed, svc.State())
}

func TestScoreboardService_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &flakyScores{ScoreSource: memory.NewScoreboard(), down: true}
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:             "test",
		FailureThreshold: 2,
		OpenFor:          20 * time.Millisecond,
	})
	svc := NewScoreboardService(inner, breaker, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.List(ctx, "7A")
		require.Error(t, err)
		assert.False(t, shared.IsExternalService(err))
	}
	assert.Equal(t, circuitbreaker.StateOpen, svc.State())

	_, err := svc.List(ctx, "7A")
	assert.True(t, shared.IsExternalService(err))
	assert.Equal(t, 2, inner.calls)

	inner.down = false
	time.Sleep(30 * time.Millisecond)
	_, err = svc.List(ctx, "7A")
	require.NoError(t, err)
	assert.Equal(t, circuitbreaker.StateClosed, svc.State())
}
