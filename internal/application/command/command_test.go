package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/catalog"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/persistence/memory"
)

const fixedID = "6ba7b810-9dad-41d1-80b4-00c04fd430c8"

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (p *recordingPublisher) Publish(ev shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType()
	}
	return out
}

type brokenJournal struct {
	*memory.Journal
}

func (brokenJournal) Append(context.Context, shared.SessionID, session.Entry) error {
	return errors.New("disk full")
}

func newRegistry(t *testing.T, journal session.Journal) *session.Registry {
	t.Helper()

	bundle, err := catalog.LoadEmbedded(nil)
	require.NoError(t, err)
	return session.NewRegistry(journal, bundle.Content, session.DefaultSettings())
}

func startSession(t *testing.T, reg *session.Registry, scores leaderboard.ScoreSource) shared.SessionID {
	t.Helper()

	res, err := NewStartSessionHandler(reg, scores, nil).Handle(context.Background(), StartSessionCommand{
		SessionID:  fixedID,
		Name:       "Priya",
		ClassID:    "7A",
		ClassLevel: 7,
		XP:         980,
	})
	require.NoError(t, err)
	return res.SessionID
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal()
	scores := memory.NewScoreboard()
	reg := newRegistry(t, journal)

	id := startSession(t, reg, scores)
	assert.Equal(t, shared.SessionID(fixedID), id)
	assert.Equal(t, 1, journal.Len())
	assert.Equal(t, 1, reg.Len())

	records, err := scores.List(ctx, "7A")
	require.NoError(t, err)
	assert.Equal(t, []leaderboard.ScoreRecord{{Name: "Priya", Points: 980}}, records)

	rec, _, err := journal.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, rec.Profile.Modules, 4)
	assert.False(t, rec.CreatedAt.IsZero())

	_, err = NewStartSessionHandler(reg, nil, nil).Handle(ctx, StartSessionCommand{
		SessionID: fixedID, Name: "Priya", ClassID: "7A", ClassLevel: 7,
	})
	assert.True(t, shared.IsAlreadyExists(err))
}

func TestStartSession_GeneratesID(t *testing.T) {
	reg := newRegistry(t, memory.NewJournal())

	res, err := NewStartSessionHandler(reg, nil, nil).Handle(context.Background(), StartSessionCommand{
		Name: "Rohan", ClassID: "8B", ClassLevel: 8,
	})
	require.NoError(t, err)
	assert.True(t, res.SessionID.IsValid())
	assert.Equal(t, "Rohan", res.Session.Profile().Name)
}

func TestStartSession_Validation(t *testing.T) {
	reg := newRegistry(t, memory.NewJournal())
	h := NewStartSessionHandler(reg, nil, nil)

	tests := []struct {
		name string
		cmd  StartSessionCommand
	}{
		{"bad id", StartSessionCommand{SessionID: "nope", Name: "A", ClassID: "7A", ClassLevel: 7}},
		{"empty name", StartSessionCommand{Name: " ", ClassID: "7A", ClassLevel: 7}},
		{"class level", StartSessionCommand{Name: "A", ClassID: "7A", ClassLevel: 0}},
		{"negative xp", StartSessionCommand{Name: "A", ClassID: "7A", ClassLevel: 7, XP: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			assert.True(t, shared.IsValidation(err), "got %v", err)
		})
	}
	assert.Equal(t, 0, reg.Len())
}

func TestApplyEvent_PublishesDomainEvents(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal()
	reg := newRegistry(t, journal)
	id := startSession(t, reg, nil)
	pub := &recordingPublisher{}
	h := NewApplyEventHandler(reg, pub, nil)

	res, err := h.Handle(ctx, ApplyEventCommand{SessionID: id.String(), Event: session.LessonCompleted{ModuleID: "earthquake"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Change.Version)
	assert.Equal(t, 2, res.Published)
	assert.Equal(t, []shared.EventType{shared.EventLessonCompleted, shared.EventBadgeEarned}, pub.types())

	badgeEvent := pub.events[1].(shared.BadgeEarnedEvent)
	assert.Equal(t, "earthquake-hero", badgeEvent.BadgeID)
	assert.Equal(t, "Priya", badgeEvent.StudentName)
	assert.Equal(t, 1, badgeEvent.BadgeCount)

	res, err = h.Handle(ctx, ApplyEventCommand{SessionID: id.String(), Event: session.XPAwarded{Amount: 220}})
	require.NoError(t, err)
	assert.True(t, res.Change.LeveledUp())
	assert.Equal(t, []shared.EventType{
		shared.EventLessonCompleted, shared.EventBadgeEarned,
		shared.EventXPGained, shared.EventLevelUp,
	}, pub.types())

	_, entries, err := journal.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestApplyEvent_RejectedEventLeavesJournal(t *testing.T) {
	ctx := context.Background()
	journal := memory.NewJournal()
	reg := newRegistry(t, journal)
	id := startSession(t, reg, nil)
	h := NewApplyEventHandler(reg, nil, nil)

	_, err := h.Handle(ctx, ApplyEventCommand{SessionID: id.String(), Event: session.LessonCompleted{ModuleID: "tsunami"}})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, ApplyEventCommand{SessionID: id.String(), Event: session.ItemToggled{ItemID: "jetpack"}})
	assert.True(t, shared.IsNotFound(err))

	_, err = h.Handle(ctx, ApplyEventCommand{SessionID: id.String(), Event: session.XPAwarded{Amount: -5}})
	assert.True(t, shared.IsValidation(err))

	_, entries, err := journal.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApplyEvent_Errors(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, memory.NewJournal())
	h := NewApplyEventHandler(reg, nil, nil)

	_, err := h.Handle(ctx, ApplyEventCommand{SessionID: "bad", Event: session.KitReset{}})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, ApplyEventCommand{SessionID: fixedID})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(ctx, ApplyEventCommand{SessionID: fixedID, Event: session.KitReset{}})
	assert.True(t, shared.IsNotFound(err))
}

func TestApplyEvent_MilestonesDisabled(t *testing.T) {
	reg := newRegistry(t, memory.NewJournal())
	id := startSession(t, reg, nil)
	h := NewApplyEventHandler(reg, nil, nil, WithMilestones(false))

	_, err := h.Handle(context.Background(), ApplyEventCommand{
		SessionID: id.String(),
		Event:     session.MilestoneReached{Flag: "first_aid_certified"},
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestApplyEvent_JournalFailureEvicts(t *testing.T) {
	ctx := context.Background()
	journal := brokenJournal{Journal: memory.NewJournal()}
	reg := newRegistry(t, journal)
	id := startSession(t, reg, nil)
	pub := &recordingPublisher{}

	_, err := NewApplyEventHandler(reg, pub, nil).Handle(ctx, ApplyEventCommand{
		SessionID: id.String(),
		Event:     session.XPAwarded{Amount: 500},
	})
	require.Error(t, err)
	assert.Empty(t, pub.types())
	assert.Equal(t, 0, reg.Len())

	s, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 980, s.Profile().XP)
	assert.Equal(t, 0, s.Version())
}

func TestApplyEvent_PublishFailureIsNotFatal(t *testing.T) {
	reg := newRegistry(t, memory.NewJournal())
	id := startSession(t, reg, nil)
	pub := &recordingPublisher{err: errors.New("bus closed")}

	res, err := NewApplyEventHandler(reg, pub, nil).Handle(context.Background(), ApplyEventCommand{
		SessionID: id.String(),
		Event:     session.ItemToggled{ItemID: "water"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Published)
	assert.True(t, res.Change.ItemSelected)
}

func TestDomainEvents(t *testing.T) {
	id := shared.SessionID(fixedID)

	events := DomainEvents(id, "Priya", "7A", session.Change{Event: session.KitReset{}, Cleared: 3})
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Payload()["cleared"])

	events = DomainEvents(id, "Priya", "7A", session.Change{
		Event:       session.MilestoneReached{Flag: "first_aid_certified"},
		LevelBefore: 4,
		LevelAfter:  4,
	})
	require.Len(t, events, 1)
	assert.Equal(t, shared.EventMilestoneReached, events[0].EventType())
	assert.Equal(t, fixedID, events[0].AggregateID())
}

func TestSeedRoster(t *testing.T) {
	ctx := context.Background()
	scores := memory.NewScoreboard()
	h := NewSeedRosterHandler(scores, nil)
	records := []leaderboard.ScoreRecord{
		{Name: "Arya Sharma", Points: 1250, BadgeCount: 8},
		{Name: "Rohan Kumar", Points: 1180, BadgeCount: 7},
	}

	res, err := h.Handle(ctx, SeedRosterCommand{ClassID: "7A", Records: records})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Seeded)

	res, err = h.Handle(ctx, SeedRosterCommand{ClassID: "7A", Records: records[:1]})
	require.NoError(t, err)
	assert.True(t, res.Skipped)

	res, err = h.Handle(ctx, SeedRosterCommand{ClassID: "7A", Records: records[:1], Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Seeded)

	_, err = h.Handle(ctx, SeedRosterCommand{ClassID: "7A", Records: []leaderboard.ScoreRecord{{Name: "X", Points: -1}}})
	assert.ErrorIs(t, err, shared.ErrNegativePoints)

	_, err = h.Handle(ctx, SeedRosterCommand{})
	assert.True(t, shared.IsValidation(err))
}
