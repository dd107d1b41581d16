package command

import (
	"context"
	"fmt"
	"time"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY EVENT COMMAND
// Применяет событие к сессии и записывает его в журнал.
// Порядок: Apply -> Append -> публикация доменных событий.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyEventCommand содержит событие для сессии.
type ApplyEventCommand struct {
	SessionID string
	Event     session.Event
}

// ApplyEventResult - результат применения события.
type ApplyEventResult struct {
	Change session.Change

	// Published - количество опубликованных доменных событий.
	Published int
}

// ApplyEventHandler обрабатывает ApplyEventCommand.
type ApplyEventHandler struct {
	registry  *session.Registry
	publisher shared.EventPublisher
	log       *logger.Logger
	now       func() time.Time

	// milestones - разрешены ли события MilestoneReached.
	milestones bool
}

// ApplyEventOption настраивает обработчик.
type ApplyEventOption func(*ApplyEventHandler)

// WithMilestones разрешает или запрещает MilestoneReached.
func WithMilestones(enabled bool) ApplyEventOption {
	return func(h *ApplyEventHandler) { h.milestones = enabled }
}

// NewApplyEventHandler создаёт обработчик. publisher может быть nil.
func NewApplyEventHandler(registry *session.Registry, publisher shared.EventPublisher, log *logger.Logger, opts ...ApplyEventOption) *ApplyEventHandler {
	if log == nil {
		log = logger.Nop()
	}
	h := &ApplyEventHandler{
		registry:   registry,
		publisher:  publisher,
		log:        log.With(logger.Operation("apply_event")),
		now:        time.Now,
		milestones: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle применяет событие.
func (h *ApplyEventHandler) Handle(ctx context.Context, cmd ApplyEventCommand) (*ApplyEventResult, error) {
	id, err := shared.NewSessionID(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if cmd.Event == nil {
		return nil, shared.NewDomainError("command", "ApplyEvent", shared.ErrInvalidInput, "event is required")
	}
	if cmd.Event.Kind() == session.KindMilestoneReached && !h.milestones {
		return nil, shared.NewDomainError("command", "ApplyEvent", shared.ErrInvalidState, "milestone tracking is disabled")
	}

	var (
		change  session.Change
		profile owner
	)
	err = h.registry.Do(ctx, id, func(s *session.Session) error {
		c, err := s.Apply(cmd.Event)
		if err != nil {
			return err
		}

		entry, err := session.NewEntry(c.Version, c.Event, h.now().UTC())
		if err == nil {
			err = h.registry.Journal().Append(ctx, id, entry)
		}
		if err != nil {
			// Память ушла вперёд журнала: сессия будет восстановлена заново.
			h.registry.Evict(id)
			return fmt.Errorf("journal event %d: %w", c.Version, err)
		}

		p := s.Profile()
		change = c
		profile = owner{name: p.Name, classID: p.ClassID.String()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Debug("event applied",
		logger.SessionID(id.String()),
		logger.EventKind(string(change.Event.Kind())),
		logger.Int("version", change.Version),
	)

	published := 0
	if h.publisher != nil {
		for _, ev := range DomainEvents(id, profile.name, profile.classID, change) {
			if err := h.publisher.Publish(ev); err != nil {
				// Событие уже в журнале; подписчики вторичны.
				h.log.Warn("failed to publish event",
					logger.SessionID(id.String()),
					logger.String("event_type", string(ev.EventType())),
					logger.Err(err),
				)
				continue
			}
			published++
		}
	}

	return &ApplyEventResult{Change: change, Published: published}, nil
}

type owner struct {
	name    string
	classID string
}

// DomainEvents превращает изменение сессии в доменные события.
// Первым идёт событие самого изменения, затем LevelUp и по одному
// BadgeEarned на каждый новый значок.
func DomainEvents(id shared.SessionID, name, classID string, change session.Change) []shared.Event {
	sid := id.String()
	var out []shared.Event

	switch e := change.Event.(type) {
	case session.LessonCompleted:
		completed, total := 0, 0
		if change.Module != nil {
			completed, total = change.Module.CompletedLessons, change.Module.TotalLessons
		}
		out = append(out, shared.NewLessonCompletedEvent(sid, e.ModuleID, completed, total))
	case session.XPAwarded:
		out = append(out, shared.NewXPGainedEvent(sid, name, classID, e.Amount, change.XP, change.BadgeCount))
	case session.ItemToggled:
		out = append(out, shared.NewKitItemToggledEvent(sid, e.ItemID, change.ItemSelected))
	case session.MilestoneReached:
		out = append(out, shared.NewMilestoneReachedEvent(sid, e.Flag))
	case session.KitReset:
		out = append(out, shared.NewKitResetEvent(sid, change.Cleared))
	}

	if change.LeveledUp() {
		out = append(out, shared.NewLevelUpEvent(sid, change.LevelBefore, change.LevelAfter, change.XP))
	}
	for _, b := range change.NewBadges {
		out = append(out, shared.NewBadgeEarnedEvent(sid, name, classID, b.ID, string(b.Tier), change.BadgeCount, change.XP))
	}
	return out
}
