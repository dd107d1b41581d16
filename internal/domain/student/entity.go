package student

import (
	"fmt"
	"strings"

	"github.com/raksha360/preparedness-hub/internal/domain/badge"
	"github.com/raksha360/preparedness-hub/internal/domain/level"
	"github.com/raksha360/preparedness-hub/internal/domain/progress"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ClassID - идентификатор класса (например, "7A").
type ClassID string

// IsValid проверяет корректность идентификатора класса.
func (c ClassID) IsValid() bool {
	s := string(c)
	return len(s) >= 1 && len(s) <= 16 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление.
func (c ClassID) String() string {
	return string(c)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - профиль студента (StudentProfile).
// Уровень не хранится: он всегда вычисляется из XP через level.Table.
type Profile struct {
	// Name - отображаемое имя.
	Name string

	// ClassID - класс студента.
	ClassID ClassID

	// ClassLevel - номер года обучения (от него зависит доступ к рейтингу).
	ClassLevel int

	// XP - накопленный опыт, не меньше 0.
	XP int

	// Modules - учебные модули в порядке каталога.
	Modules []progress.Module
}

// NewProfileParams - параметры создания профиля.
type NewProfileParams struct {
	Name       string
	ClassID    ClassID
	ClassLevel int
	XP         int
	Modules    []progress.Module
}

// NewProfile создаёт профиль с валидацией. Модули копируются.
func NewProfile(params NewProfileParams) (*Profile, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("student", "NewProfile", shared.ErrInvalidInput, "name must be 1-100 chars")
	}
	if !params.ClassID.IsValid() {
		return nil, shared.Errorf("student", "NewProfile", shared.ErrInvalidInput, "invalid class id %q", params.ClassID)
	}
	if params.ClassLevel < 1 || params.ClassLevel > 12 {
		return nil, shared.Errorf("student", "NewProfile", shared.ErrValueOutOfRange, "class level %d must be 1-12", params.ClassLevel)
	}
	if params.XP < 0 {
		return nil, shared.NewDomainError("student", "NewProfile", shared.ErrNegativeValue, "xp cannot be negative")
	}

	seen := make(map[string]struct{}, len(params.Modules))
	for _, m := range params.Modules {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[m.ID]; dup {
			return nil, shared.Errorf("student", "NewProfile", shared.ErrAlreadyExists, "duplicate module %s", m.ID)
		}
		seen[m.ID] = struct{}{}
	}

	return &Profile{
		Name:       name,
		ClassID:    params.ClassID,
		ClassLevel: params.ClassLevel,
		XP:         params.XP,
		Modules:    cloneModules(params.Modules),
	}, nil
}

// Clone создаёт независимую копию профиля.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Modules = cloneModules(p.Modules)
	return &clone
}

// Module возвращает модуль по ID.
func (p *Profile) Module(id string) (progress.Module, bool) {
	for _, m := range p.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return progress.Module{}, false
}

// CompleteLesson отмечает следующий урок модуля пройденным.
// Неизвестный модуль - ErrNotFound, полностью пройденный модуль - ErrValueOutOfRange.
func (p *Profile) CompleteLesson(moduleID string) (progress.Module, error) {
	for i, m := range p.Modules {
		if m.ID != moduleID {
			continue
		}
		updated, err := m.WithLessonCompleted()
		if err != nil {
			return progress.Module{}, err
		}
		p.Modules[i] = updated
		return updated, nil
	}
	return progress.Module{}, shared.WrapError("student", "CompleteLesson", shared.ErrNotFound, "module "+moduleID, shared.ErrModuleNotFound)
}

// AwardXP начисляет опыт и возвращает новое значение.
// Ноль ничего не меняет, отрицательное значение - ошибка.
func (p *Profile) AwardXP(amount int) (int, error) {
	if amount < 0 {
		return p.XP, shared.Errorf("student", "AwardXP", shared.ErrNegativeValue, "xp award %d cannot be negative", amount)
	}
	p.XP += amount
	return p.XP, nil
}

// Level вычисляет уровень по таблице.
func (p *Profile) Level(table *level.Table) (level.Status, error) {
	return table.Compute(p.XP)
}

// Progress сворачивает прогресс модулей.
func (p *Profile) Progress() (progress.Summary, error) {
	return progress.Aggregate(p.Modules)
}

// Facts строит свежий снимок достижений для оценки значков.
func (p *Profile) Facts(table *level.Table, milestones []string, kitEssentialsComplete bool) (badge.Facts, error) {
	summary, err := p.Progress()
	if err != nil {
		return badge.Facts{}, err
	}
	status, err := p.Level(table)
	if err != nil {
		return badge.Facts{}, err
	}
	return badge.NewFacts(summary, milestones, status.Level, kitEssentialsComplete), nil
}

// String возвращает строковое представление для логирования.
func (p *Profile) String() string {
	return fmt.Sprintf("Profile{Name: %s, Class: %s, ClassLevel: %d, XP: %d}", p.Name, p.ClassID, p.ClassLevel, p.XP)
}

func cloneModules(in []progress.Module) []progress.Module {
	out := make([]progress.Module, len(in))
	copy(out, in)
	return out
}
