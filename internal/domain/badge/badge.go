// Package badge содержит каталог значков и их оценку.
//
// Значок не хранит флаг "получен": статус всегда вычисляется заново
// из снимка достижений (Facts) через именованное правило (Rule).
package badge

import (
	"sort"
	"strings"

	"github.com/raksha360/preparedness-hub/internal/domain/progress"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIER
// ══════════════════════════════════════════════════════════════════════════════

// Tier - ранг значка.
type Tier string

const (
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
)

// IsValid проверяет, что ранг известен.
func (t Tier) IsValid() bool {
	switch t {
	case TierGold, TierSilver, TierBronze:
		return true
	default:
		return false
	}
}

// ParseTier разбирает ранг (без учёта регистра).
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.Errorf("badge", "ParseTier", shared.ErrInvalidInput, "unknown tier %q", s)
	}
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE
// ══════════════════════════════════════════════════════════════════════════════

// Badge - значок из неизменяемого каталога.
type Badge struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Tier        Tier

	// Rule - условие получения значка.
	Rule Rule
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FACTS
// ══════════════════════════════════════════════════════════════════════════════

// ModuleFact - прогресс одного модуля, нужный правилам.
type ModuleFact struct {
	ID         string
	Ratio      float64
	Difficulty progress.Difficulty
	Complete   bool
}

// Facts - снимок достижений студента (AchievementFacts).
// Создаётся заново для каждой оценки, собственного жизненного цикла не имеет.
type Facts struct {
	Modules               []ModuleFact
	Milestones            map[string]bool
	Level                 int
	KitEssentialsComplete bool
}

// NewFacts строит снимок из сводки прогресса и состояния сессии.
func NewFacts(summary progress.Summary, milestones []string, level int, kitEssentialsComplete bool) Facts {
	f := Facts{
		Modules:               make([]ModuleFact, 0, len(summary.Modules)),
		Milestones:            make(map[string]bool, len(milestones)),
		Level:                 level,
		KitEssentialsComplete: kitEssentialsComplete,
	}
	for _, m := range summary.Modules {
		f.Modules = append(f.Modules, ModuleFact{
			ID:         m.ID,
			Ratio:      m.Ratio,
			Difficulty: m.Difficulty,
			Complete:   m.IsComplete,
		})
	}
	for _, flag := range milestones {
		f.Milestones[flag] = true
	}
	return f
}

// Module возвращает факт по модулю.
func (f Facts) Module(id string) (ModuleFact, bool) {
	for _, m := range f.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return ModuleFact{}, false
}

// HasMilestone проверяет флаг достижения.
func (f Facts) HasMilestone(flag string) bool {
	return f.Milestones[flag]
}

// MilestoneList возвращает отсортированный список флагов.
func (f Facts) MilestoneList() []string {
	out := make([]string, 0, len(f.Milestones))
	for flag, set := range f.Milestones {
		if set {
			out = append(out, flag)
		}
	}
	sort.Strings(out)
	return out
}
