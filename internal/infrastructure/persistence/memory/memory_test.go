package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

const testID = shared.SessionID("7c9e6679-7425-40de-944b-e07fc1f90ae7")

func entry(t *testing.T, seq int, ev session.Event) session.Entry {
	t.Helper()
	e, err := session.NewEntry(seq, ev, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	return e
}

func TestJournal_CreateAppendLoad(t *testing.T) {
	ctx := context.Background()
	j := NewJournal()

	rec := session.Record{ID: testID, Profile: session.ProfileSnapshot{Name: "Aarav", ClassID: "7A", ClassLevel: 7}}
	require.NoError(t, j.Create(ctx, rec))
	assert.ErrorIs(t, j.Create(ctx, rec), shared.ErrSessionExists)

	require.NoError(t, j.Append(ctx, testID, entry(t, 1, session.XPAwarded{Amount: 50})))
	require.NoError(t, j.Append(ctx, testID, entry(t, 2, session.ItemToggled{ItemID: "water"})))

	gotRec, entries, err := j.Load(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, "Aarav", gotRec.Profile.Name)
	require.Len(t, entries, 2)

	events, err := session.Events(entries)
	require.NoError(t, err)
	assert.Equal(t, session.XPAwarded{Amount: 50}, events[0])
	assert.Equal(t, session.ItemToggled{ItemID: "water"}, events[1])
	assert.Equal(t, 1, j.Len())
}

func TestJournal_SequenceAndMissing(t *testing.T) {
	ctx := context.Background()
	j := NewJournal()

	err := j.Append(ctx, testID, entry(t, 1, session.KitReset{}))
	assert.True(t, shared.IsNotFound(err))

	_, _, err = j.Load(ctx, testID)
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, j.Create(ctx, session.Record{ID: testID}))
	assert.ErrorIs(t, j.Append(ctx, testID, entry(t, 2, session.KitReset{})), shared.ErrSequenceGap)
	require.NoError(t, j.Append(ctx, testID, entry(t, 1, session.KitReset{})))
	assert.ErrorIs(t, j.Append(ctx, testID, entry(t, 1, session.KitReset{})), shared.ErrSequenceGap)
}

func TestJournal_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewJournal().Create(ctx, session.Record{ID: testID}), context.Canceled)
}

func TestScoreboard(t *testing.T) {
	ctx := context.Background()
	sb := NewScoreboard()

	require.NoError(t, sb.Upsert(ctx, "7A", leaderboard.ScoreRecord{Name: "Rohan", Points: 1180, BadgeCount: 7}))
	require.NoError(t, sb.Upsert(ctx, "7A", leaderboard.ScoreRecord{Name: "Arya", Points: 1250, BadgeCount: 8}))
	require.NoError(t, sb.Upsert(ctx, "7A", leaderboard.ScoreRecord{Name: "Rohan", Points: 1300, BadgeCount: 7}))
	require.NoError(t, sb.Upsert(ctx, "8B", leaderboard.ScoreRecord{Name: "Kiran", Points: 10}))

	records, err := sb.List(ctx, "7A")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Arya", records[0].Name)
	assert.Equal(t, 1300, records[1].Points)

	require.NoError(t, sb.Remove(ctx, "7A", "Arya"))
	records, err = sb.List(ctx, "7A")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	empty, err := sb.List(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Error(t, sb.Upsert(ctx, "", leaderboard.ScoreRecord{Name: "x"}))
	assert.NoError(t, sb.Remove(ctx, "unknown", "nobody"))
}
