// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types published after a session event has been applied.
const (
	// Progress events
	EventLessonCompleted EventType = "progress.lesson_completed"
	EventXPGained        EventType = "progress.xp_gained"
	EventLevelUp         EventType = "progress.level_up"

	// Badge events
	EventBadgeEarned EventType = "badge.earned"

	// Milestone events
	EventMilestoneReached EventType = "milestone.reached"

	// Kit events
	EventKitItemToggled EventType = "kit.item_toggled"
	EventKitReset       EventType = "kit.reset"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted when a lesson of a module is completed.
type LessonCompletedEvent struct {
	BaseEvent
	ModuleID  string `json:"module_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"module_id": e.ModuleID,
		"completed": e.Completed,
		"total":     e.Total,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(sessionID, moduleID string, completed, total int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, sessionID),
		ModuleID:  moduleID,
		Completed: completed,
		Total:     total,
	}
}

// XPGainedEvent is emitted when a student gains XP.
type XPGainedEvent struct {
	BaseEvent
	StudentName string `json:"student_name"`
	ClassID     string `json:"class_id"`
	Amount      int    `json:"amount"`
	NewTotal    int    `json:"new_total"`
	BadgeCount  int    `json:"badge_count"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_name": e.StudentName,
		"class_id":     e.ClassID,
		"amount":       e.Amount,
		"new_total":    e.NewTotal,
		"badge_count":  e.BadgeCount,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(sessionID, studentName, classID string, amount, newTotal, badgeCount int) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent:   NewBaseEvent(EventXPGained, sessionID),
		StudentName: studentName,
		ClassID:     classID,
		Amount:      amount,
		NewTotal:    newTotal,
		BadgeCount:  badgeCount,
	}
}

// LevelUpEvent is emitted when the derived level grows.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
	XP       int `json:"xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"xp":        e.XP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(sessionID string, oldLevel, newLevel, xp int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, sessionID),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		XP:        xp,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge & Milestone Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeEarnedEvent is emitted when a badge flips from locked to earned.
type BadgeEarnedEvent struct {
	BaseEvent
	StudentName string `json:"student_name"`
	ClassID     string `json:"class_id"`
	BadgeID     string `json:"badge_id"`
	Tier        string `json:"tier"`
	BadgeCount  int    `json:"badge_count"`
	XP          int    `json:"xp"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_name": e.StudentName,
		"class_id":     e.ClassID,
		"badge_id":     e.BadgeID,
		"tier":         e.Tier,
		"badge_count":  e.BadgeCount,
		"xp":           e.XP,
	}
}

// NewBadgeEarnedEvent creates a new BadgeEarnedEvent.
func NewBadgeEarnedEvent(sessionID, studentName, classID, badgeID, tier string, badgeCount, xp int) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent:   NewBaseEvent(EventBadgeEarned, sessionID),
		StudentName: studentName,
		ClassID:     classID,
		BadgeID:     badgeID,
		Tier:        tier,
		BadgeCount:  badgeCount,
		XP:          xp,
	}
}

// MilestoneReachedEvent is emitted when a milestone flag is set.
type MilestoneReachedEvent struct {
	BaseEvent
	Flag string `json:"flag"`
}

// Payload implements Event interface.
func (e MilestoneReachedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"flag": e.Flag}
}

// NewMilestoneReachedEvent creates a new MilestoneReachedEvent.
func NewMilestoneReachedEvent(sessionID, flag string) MilestoneReachedEvent {
	return MilestoneReachedEvent{
		BaseEvent: NewBaseEvent(EventMilestoneReached, sessionID),
		Flag:      flag,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Kit Events
// ═══════════════════════════════════════════════════════════════════════════

// KitItemToggledEvent is emitted when an item enters or leaves the kit.
type KitItemToggledEvent struct {
	BaseEvent
	ItemID   string `json:"item_id"`
	Selected bool   `json:"selected"`
}

// Payload implements Event interface.
func (e KitItemToggledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"item_id":  e.ItemID,
		"selected": e.Selected,
	}
}

// NewKitItemToggledEvent creates a new KitItemToggledEvent.
func NewKitItemToggledEvent(sessionID, itemID string, selected bool) KitItemToggledEvent {
	return KitItemToggledEvent{
		BaseEvent: NewBaseEvent(EventKitItemToggled, sessionID),
		ItemID:    itemID,
		Selected:  selected,
	}
}

// KitResetEvent is emitted when the kit selection is cleared.
type KitResetEvent struct {
	BaseEvent
	Cleared int `json:"cleared"`
}

// Payload implements Event interface.
func (e KitResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"cleared": e.Cleared}
}

// NewKitResetEvent creates a new KitResetEvent.
func NewKitResetEvent(sessionID string, cleared int) KitResetEvent {
	return KitResetEvent{
		BaseEvent: NewBaseEvent(EventKitReset, sessionID),
		Cleared:   cleared,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
