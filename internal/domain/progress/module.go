// Package progress содержит модель учебных модулей по безопасности
// и агрегатор прогресса: из пройденных уроков каждого модуля он
// вычисляет общий прогресс студента.
package progress

import (
	"strings"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Difficulty - уровень сложности модуля. Значения упорядочены.
type Difficulty int

const (
	// DifficultyBeginner - начальный уровень.
	DifficultyBeginner Difficulty = iota + 1
	// DifficultyIntermediate - средний уровень.
	DifficultyIntermediate
	// DifficultyAdvanced - продвинутый уровень.
	DifficultyAdvanced
)

// String возвращает название уровня сложности.
func (d Difficulty) String() string {
	switch d {
	case DifficultyBeginner:
		return "Beginner"
	case DifficultyIntermediate:
		return "Intermediate"
	case DifficultyAdvanced:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// IsValid проверяет, что уровень сложности известен.
func (d Difficulty) IsValid() bool {
	return d >= DifficultyBeginner && d <= DifficultyAdvanced
}

// AtLeast возвращает true, если сложность не ниже указанной.
func (d Difficulty) AtLeast(other Difficulty) bool {
	return d >= other
}

// ParseDifficulty разбирает название уровня сложности (без учёта регистра).
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return DifficultyBeginner, nil
	case "intermediate":
		return DifficultyIntermediate, nil
	case "advanced":
		return DifficultyAdvanced, nil
	default:
		return 0, shared.Errorf("progress", "ParseDifficulty", shared.ErrInvalidInput, "unknown difficulty %q", s)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DISASTER MODULE
// ══════════════════════════════════════════════════════════════════════════════

// Module - учебный модуль по одному типу бедствия (землетрясение, пожар...).
// Инвариант: 0 <= CompletedLessons <= TotalLessons, TotalLessons > 0.
type Module struct {
	// ID - идентификатор модуля ("earthquake").
	ID string

	// Name - отображаемое название.
	Name string

	// CompletedLessons - количество пройденных уроков.
	CompletedLessons int

	// TotalLessons - общее количество уроков.
	TotalLessons int

	// Difficulty - уровень сложности.
	Difficulty Difficulty
}

// Validate проверяет инварианты модуля.
func (m Module) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return shared.NewDomainError("progress", "Validate", shared.ErrEmptyValue, "module id cannot be empty")
	}
	if m.TotalLessons <= 0 {
		return shared.WrapError("progress", "Validate", shared.ErrInvalidInput, "module "+m.ID, shared.ErrInvalidLessonTotal)
	}
	if m.CompletedLessons < 0 {
		return shared.NewDomainError("progress", "Validate", shared.ErrNegativeValue, "module "+m.ID+": completed lessons cannot be negative")
	}
	if m.CompletedLessons > m.TotalLessons {
		return shared.WrapError("progress", "Validate", shared.ErrValueOutOfRange, "module "+m.ID, shared.ErrLessonsOutOfRange)
	}
	return nil
}

// IsComplete возвращает true, если все уроки модуля пройдены.
func (m Module) IsComplete() bool {
	return m.TotalLessons > 0 && m.CompletedLessons == m.TotalLessons
}

// Ratio возвращает долю пройденных уроков (0..1).
func (m Module) Ratio() float64 {
	return Ratio(m.CompletedLessons, m.TotalLessons)
}

// WithLessonCompleted возвращает копию модуля с ещё одним пройденным уроком.
func (m Module) WithLessonCompleted() (Module, error) {
	if err := m.Validate(); err != nil {
		return m, err
	}
	if m.IsComplete() {
		return m, shared.WrapError("progress", "CompleteLesson", shared.ErrValueOutOfRange, "module "+m.ID, shared.ErrModuleAlreadyPassed)
	}
	m.CompletedLessons++
	return m, nil
}

// Ratio делит completed на total; при нулевом знаменателе возвращает 0.
func Ratio(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total)
}
