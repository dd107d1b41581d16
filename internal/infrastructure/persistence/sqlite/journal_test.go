package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

const testID = shared.SessionID("7c9e6679-7425-40de-944b-e07fc1f90ae7")

func openTempJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestJournal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	j := openTempJournal(t)
	created := time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC)

	rec := session.Record{
		ID: testID,
		Profile: session.ProfileSnapshot{
			Name: "Aarav", ClassID: "7A", ClassLevel: 7, XP: 980,
			Modules: []session.ModuleSnapshot{{ID: "fire", Name: "Fire Safety", Difficulty: "Intermediate", CompletedLessons: 3, TotalLessons: 4}},
		},
		CreatedAt: created,
	}
	require.NoError(t, j.Create(ctx, rec))
	assert.ErrorIs(t, j.Create(ctx, rec), shared.ErrSessionExists)

	events := []session.Event{
		session.LessonCompleted{ModuleID: "fire"},
		session.XPAwarded{Amount: 220},
		session.KitReset{},
	}
	for i, ev := range events {
		e, err := session.NewEntry(i+1, ev, created.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, j.Append(ctx, testID, e))
	}

	got, entries, err := j.Load(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, rec.Profile, got.Profile)
	assert.True(t, created.Equal(got.CreatedAt))
	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[2].Seq)
	assert.True(t, created.Add(2*time.Minute).Equal(entries[2].OccurredAt))

	decoded, err := session.Events(entries)
	require.NoError(t, err)
	assert.Equal(t, events, decoded)
}

func TestJournal_Errors(t *testing.T) {
	ctx := context.Background()
	j := openTempJournal(t)

	e1, err := session.NewEntry(1, session.XPAwarded{Amount: 5}, time.Now())
	require.NoError(t, err)
	e3, err := session.NewEntry(3, session.XPAwarded{Amount: 5}, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, j.Append(ctx, testID, e1), shared.ErrSessionNotFound)
	_, _, err = j.Load(ctx, testID)
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, j.Create(ctx, session.Record{ID: testID, Profile: session.ProfileSnapshot{Name: "A", ClassID: "7A"}}))
	assert.ErrorIs(t, j.Append(ctx, testID, e3), shared.ErrSequenceGap)
	require.NoError(t, j.Append(ctx, testID, e1))
	assert.ErrorIs(t, j.Append(ctx, testID, e1), shared.ErrSequenceGap)
}
