package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// Kind - тип события сессии.
type Kind string

const (
	KindLessonCompleted  Kind = "lesson_completed"
	KindXPAwarded        Kind = "xp_awarded"
	KindItemToggled      Kind = "item_toggled"
	KindMilestoneReached Kind = "milestone_reached"
	KindKitReset         Kind = "kit_reset"
)

// Event - закрытый набор событий, изменяющих сессию.
type Event interface {
	Kind() Kind
	Validate() error
	sessionEvent()
}

// LessonCompleted - пройден очередной урок модуля.
type LessonCompleted struct {
	ModuleID string `json:"module_id"`
}

func (LessonCompleted) Kind() Kind   { return KindLessonCompleted }
func (LessonCompleted) sessionEvent() {}

// Validate проверяет форму события.
func (e LessonCompleted) Validate() error {
	if strings.TrimSpace(e.ModuleID) == "" {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "module_id is required")
	}
	return nil
}

// XPAwarded - начислен опыт.
type XPAwarded struct {
	Amount int `json:"amount"`
}

func (XPAwarded) Kind() Kind   { return KindXPAwarded }
func (XPAwarded) sessionEvent() {}

// Validate проверяет форму события.
func (e XPAwarded) Validate() error {
	if e.Amount < 0 {
		return shared.Errorf("session", "Validate", shared.ErrNegativeValue, "xp amount %d cannot be negative", e.Amount)
	}
	return nil
}

// ItemToggled - предмет набора выбран или снят.
type ItemToggled struct {
	ItemID string `json:"item_id"`
}

func (ItemToggled) Kind() Kind   { return KindItemToggled }
func (ItemToggled) sessionEvent() {}

// Validate проверяет форму события.
func (e ItemToggled) Validate() error {
	if strings.TrimSpace(e.ItemID) == "" {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "item_id is required")
	}
	return nil
}

// MilestoneReached - установлен флаг достижения (сертификат первой помощи и т.п.).
type MilestoneReached struct {
	Flag string `json:"flag"`
}

func (MilestoneReached) Kind() Kind   { return KindMilestoneReached }
func (MilestoneReached) sessionEvent() {}

// Validate проверяет форму события.
func (e MilestoneReached) Validate() error {
	if strings.TrimSpace(e.Flag) == "" {
		return shared.NewDomainError("session", "Validate", shared.ErrEmptyValue, "flag is required")
	}
	return nil
}

// KitReset - выбор набора очищен.
type KitReset struct{}

func (KitReset) Kind() Kind      { return KindKitReset }
func (KitReset) sessionEvent()   {}
func (KitReset) Validate() error { return nil }

// ══════════════════════════════════════════════════════════════════════════════
// ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// Envelope - сериализованная форма события для журнала и HTTP.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Wrap упаковывает событие в конверт.
func Wrap(ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", ev.Kind(), err)
	}
	return Envelope{Kind: ev.Kind(), Payload: payload}, nil
}

// Unwrap распаковывает конверт в событие.
func (env Envelope) Unwrap() (Event, error) {
	var ev Event
	switch env.Kind {
	case KindLessonCompleted:
		ev = &LessonCompleted{}
	case KindXPAwarded:
		ev = &XPAwarded{}
	case KindItemToggled:
		ev = &ItemToggled{}
	case KindMilestoneReached:
		ev = &MilestoneReached{}
	case KindKitReset:
		return KitReset{}, nil
	default:
		return nil, shared.WrapError("session", "Decode", shared.ErrInvalidFormat, fmt.Sprintf("kind %q", env.Kind), shared.ErrUnknownEvent)
	}

	if len(env.Payload) == 0 {
		return nil, shared.Errorf("session", "Decode", shared.ErrInvalidFormat, "%s: payload is required", env.Kind)
	}
	if err := json.Unmarshal(env.Payload, ev); err != nil {
		return nil, shared.WrapError("session", "Decode", shared.ErrInvalidFormat, string(env.Kind), err)
	}

	// Возвращаем значения, а не указатели.
	switch e := ev.(type) {
	case *LessonCompleted:
		return *e, nil
	case *XPAwarded:
		return *e, nil
	case *ItemToggled:
		return *e, nil
	case *MilestoneReached:
		return *e, nil
	}
	return ev, nil
}

// Encode сериализует событие в JSON-конверт {kind, payload}.
func Encode(ev Event) ([]byte, error) {
	env, err := Wrap(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode разбирает JSON-конверт в событие.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, shared.WrapError("session", "Decode", shared.ErrInvalidFormat, "envelope", err)
	}
	return env.Unwrap()
}
