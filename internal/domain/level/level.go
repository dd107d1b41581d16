// Package level переводит накопленный опыт (XP) в уровень студента
// и долю прогресса до следующего уровня.
package level

import (
	"fmt"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// DefaultThresholds - накопительные пороги XP для 10 уровней.
// Thresholds[i] - XP, необходимый для уровня i+1.
var DefaultThresholds = []int{0, 150, 400, 700, 1200, 1800, 2500, 3300, 4200, 5200}

// Table - таблица порогов уровней. Неизменяема после создания.
type Table struct {
	thresholds []int
}

// NewTable создаёт таблицу уровней.
// Требования: минимум один уровень, первый порог равен 0, пороги строго возрастают.
func NewTable(thresholds []int) (*Table, error) {
	if len(thresholds) == 0 {
		return nil, shared.WrapError("level", "NewTable", shared.ErrInvalidInput, "at least one level is required", shared.ErrInvalidLevelTable)
	}
	if thresholds[0] != 0 {
		return nil, shared.WrapError("level", "NewTable", shared.ErrInvalidInput, "first threshold must be 0", shared.ErrInvalidLevelTable)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, shared.WrapError("level", "NewTable", shared.ErrInvalidInput,
				fmt.Sprintf("threshold %d (%d) must be greater than %d", i+1, thresholds[i], thresholds[i-1]),
				shared.ErrInvalidLevelTable)
		}
	}

	copied := make([]int, len(thresholds))
	copy(copied, thresholds)
	return &Table{thresholds: copied}, nil
}

// MustDefault возвращает таблицу с порогами по умолчанию.
func MustDefault() *Table {
	t, err := NewTable(DefaultThresholds)
	if err != nil {
		panic(err)
	}
	return t
}

// TotalLevels возвращает максимальный уровень.
func (t *Table) TotalLevels() int {
	return len(t.thresholds)
}

// Thresholds возвращает копию порогов.
func (t *Table) Thresholds() []int {
	out := make([]int, len(t.thresholds))
	copy(out, t.thresholds)
	return out
}

// Status - вычисленное состояние уровня.
type Status struct {
	// Level - текущий уровень, 1..TotalLevels.
	Level int

	// TotalLevels - потолок уровней.
	TotalLevels int

	// XP - исходный опыт.
	XP int

	// NextThreshold - накопительный XP следующей границы уровня.
	// На максимальном уровне равен последнему порогу.
	NextThreshold int

	// ProgressFraction - min(XP / NextThreshold, 1.0).
	ProgressFraction float64

	// XPToNext - сколько XP осталось до следующего уровня (0 на максимуме).
	XPToNext int

	// IsMax - достигнут последний уровень.
	IsMax bool
}

// Compute вычисляет уровень для xp. Отрицательный xp - ошибка.
func (t *Table) Compute(xp int) (Status, error) {
	if xp < 0 {
		return Status{}, shared.WrapError("level", "Compute", shared.ErrNegativeValue, fmt.Sprintf("xp=%d", xp), shared.ErrNegativeXP)
	}

	total := len(t.thresholds)
	lvl := 1
	for i := total - 1; i >= 0; i-- {
		if t.thresholds[i] <= xp {
			lvl = i + 1
			break
		}
	}

	status := Status{
		Level:       lvl,
		TotalLevels: total,
		XP:          xp,
	}

	final := t.thresholds[total-1]
	if lvl == total {
		status.IsMax = true
		status.NextThreshold = final
		status.ProgressFraction = 1.0
		return status, nil
	}

	next := t.thresholds[lvl]
	status.NextThreshold = next
	status.XPToNext = next - xp
	status.ProgressFraction = float64(xp) / float64(next)
	if status.ProgressFraction > 1.0 {
		status.ProgressFraction = 1.0
	}
	return status, nil
}

// LevelFor - сокращение для Compute, возвращающее только номер уровня.
func (t *Table) LevelFor(xp int) (int, error) {
	s, err := t.Compute(xp)
	if err != nil {
		return 0, err
	}
	return s.Level, nil
}
