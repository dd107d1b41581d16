package session

import (
	"context"
	"time"

	"github.com/raksha360/preparedness-hub/internal/domain/progress"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOURNAL
// ══════════════════════════════════════════════════════════════════════════════

// Journal хранит начальное состояние сессии и упорядоченный журнал событий.
// Сессия восстанавливается через Replay, поэтому производные значения
// (уровень, значки, отчёт набора) никогда не сохраняются.
// Реализации: память, PostgreSQL, SQLite.
type Journal interface {
	// Create сохраняет начальное состояние. Повтор id - ErrSessionExists.
	Create(ctx context.Context, rec Record) error

	// Append добавляет событие с номером seq. Номер должен быть ровно
	// следующим после последнего сохранённого, иначе ErrSequenceGap.
	Append(ctx context.Context, id shared.SessionID, entry Entry) error

	// Load возвращает начальное состояние и события по порядку.
	// Неизвестная сессия - ErrSessionNotFound.
	Load(ctx context.Context, id shared.SessionID) (Record, []Entry, error)
}

// Record - начальное состояние сессии.
type Record struct {
	ID        shared.SessionID `json:"id"`
	Profile   ProfileSnapshot  `json:"profile"`
	CreatedAt time.Time        `json:"created_at"`
}

// Entry - одно событие журнала.
type Entry struct {
	Seq        int       `json:"seq"`
	Envelope   Envelope  `json:"envelope"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEntry упаковывает событие в запись журнала.
func NewEntry(seq int, ev Event, at time.Time) (Entry, error) {
	env, err := Wrap(ev)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Seq: seq, Envelope: env, OccurredAt: at.UTC()}, nil
}

// Events распаковывает записи журнала в события.
func Events(entries []Entry) ([]Event, error) {
	out := make([]Event, 0, len(entries))
	for _, e := range entries {
		ev, err := e.Envelope.Unwrap()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// ProfileSnapshot - сериализуемая форма профиля.
type ProfileSnapshot struct {
	Name       string           `json:"name"`
	ClassID    string           `json:"class_id"`
	ClassLevel int              `json:"class_level"`
	XP         int              `json:"xp"`
	Modules    []ModuleSnapshot `json:"modules"`
}

// ModuleSnapshot - сериализуемая форма модуля.
type ModuleSnapshot struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Difficulty       string `json:"difficulty"`
	CompletedLessons int    `json:"completed_lessons"`
	TotalLessons     int    `json:"total_lessons"`
}

// SnapshotOf снимает профиль.
func SnapshotOf(p *student.Profile) ProfileSnapshot {
	snap := ProfileSnapshot{
		Name:       p.Name,
		ClassID:    p.ClassID.String(),
		ClassLevel: p.ClassLevel,
		XP:         p.XP,
		Modules:    make([]ModuleSnapshot, len(p.Modules)),
	}
	for i, m := range p.Modules {
		snap.Modules[i] = ModuleSnapshot{
			ID:               m.ID,
			Name:             m.Name,
			Difficulty:       m.Difficulty.String(),
			CompletedLessons: m.CompletedLessons,
			TotalLessons:     m.TotalLessons,
		}
	}
	return snap
}

// Restore собирает профиль из снимка, проверяя все инварианты.
func (s ProfileSnapshot) Restore() (*student.Profile, error) {
	modules := make([]progress.Module, len(s.Modules))
	for i, m := range s.Modules {
		d, err := progress.ParseDifficulty(m.Difficulty)
		if err != nil {
			return nil, err
		}
		modules[i] = progress.Module{
			ID:               m.ID,
			Name:             m.Name,
			Difficulty:       d,
			CompletedLessons: m.CompletedLessons,
			TotalLessons:     m.TotalLessons,
		}
	}

	return student.NewProfile(student.NewProfileParams{
		Name:       s.Name,
		ClassID:    student.ClassID(s.ClassID),
		ClassLevel: s.ClassLevel,
		XP:         s.XP,
		Modules:    modules,
	})
}

// Restore восстанавливает сессию из журнала.
func Restore(ctx context.Context, journal Journal, id shared.SessionID, content *Content, settings Settings) (*Session, error) {
	rec, entries, err := journal.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := rec.Profile.Restore()
	if err != nil {
		return nil, err
	}
	events, err := Events(entries)
	if err != nil {
		return nil, err
	}
	return Replay(id, profile, content, settings, events)
}
