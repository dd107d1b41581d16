// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/badge"
	"github.com/raksha360/preparedness-hub/internal/domain/kit"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/level"
	"github.com/raksha360/preparedness-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS
// Плоские JSON-формы доменных значений для HTTP-слоя.
// ══════════════════════════════════════════════════════════════════════════════

// LevelDTO - состояние уровня.
type LevelDTO struct {
	Level         int     `json:"level"`
	TotalLevels   int     `json:"total_levels"`
	XP            int     `json:"xp"`
	NextThreshold int     `json:"next_threshold"`
	Progress      float64 `json:"progress"`
	XPToNext      int     `json:"xp_to_next"`
	IsMax         bool    `json:"is_max"`
}

// ModuleDTO - сводка по модулю.
type ModuleDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Difficulty string  `json:"difficulty"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Ratio      float64 `json:"ratio"`
	IsComplete bool    `json:"is_complete"`

	// Action - "continue" или "review".
	Action string `json:"action"`
}

// ProgressDTO - общий прогресс.
type ProgressDTO struct {
	TotalCompleted   int         `json:"total_completed"`
	TotalLessons     int         `json:"total_lessons"`
	OverallRatio     float64     `json:"overall_ratio"`
	CompletedModules int         `json:"completed_modules"`
	Modules          []ModuleDTO `json:"modules"`
}

// BadgeDTO - значок каталога.
type BadgeDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Tier        string `json:"tier"`
}

// KitItemDTO - предмет набора.
type KitItemDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Importance  string `json:"importance"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected"`
}

// KitGroupDTO - предметы одной категории.
type KitGroupDTO struct {
	Category string       `json:"category"`
	Items    []KitItemDTO `json:"items"`
}

// KitReportDTO - результат проверки набора.
type KitReportDTO struct {
	SelectedCount         int          `json:"selected_count"`
	TotalCount            int          `json:"total_count"`
	CompletenessPercent   float64      `json:"completeness_percent"`
	EssentialSelected     int          `json:"essential_selected"`
	EssentialTotal        int          `json:"essential_total"`
	IsEssentialComplete   bool         `json:"is_essential_complete"`
	MissingEssentialCount int          `json:"missing_essential_count"`
	MissingEssentials     []KitItemDTO `json:"missing_essentials"`
}

// LeaderboardEntryDTO - строка рейтинга.
type LeaderboardEntryDTO struct {
	Rank          int    `json:"rank"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	BadgeCount    int    `json:"badge_count"`
	IsCurrentUser bool   `json:"is_current_user"`

	// Medal - "gold", "silver", "bronze" или пусто.
	Medal string `json:"medal,omitempty"`
}

func levelDTO(s level.Status) LevelDTO {
	return LevelDTO{
		Level:         s.Level,
		TotalLevels:   s.TotalLevels,
		XP:            s.XP,
		NextThreshold: s.NextThreshold,
		Progress:      s.ProgressFraction,
		XPToNext:      s.XPToNext,
		IsMax:         s.IsMax,
	}
}

func progressDTO(s progress.Summary) ProgressDTO {
	out := ProgressDTO{
		TotalCompleted:   s.TotalCompleted,
		TotalLessons:     s.TotalLessons,
		OverallRatio:     s.OverallRatio,
		CompletedModules: s.CompletedModules,
		Modules:          moduleDTOs(s.Modules),
	}
	return out
}

func moduleDTOs(in []progress.ModuleSummary) []ModuleDTO {
	out := make([]ModuleDTO, len(in))
	for i, m := range in {
		out[i] = ModuleDTO{
			ID:         m.ID,
			Name:       m.Name,
			Difficulty: m.Difficulty.String(),
			Completed:  m.Completed,
			Total:      m.Total,
			Ratio:      m.Ratio,
			IsComplete: m.IsComplete,
			Action:     string(m.Action),
		}
	}
	return out
}

func badgeDTOs(in []badge.Badge) []BadgeDTO {
	out := make([]BadgeDTO, len(in))
	for i, b := range in {
		out[i] = BadgeDTO{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			Icon:        b.Icon,
			Tier:        string(b.Tier),
		}
	}
	return out
}

func kitItemDTO(it kit.Item, selected bool) KitItemDTO {
	return KitItemDTO{
		ID:          it.ID,
		Name:        it.Name,
		Category:    it.Category,
		Importance:  string(it.Importance),
		Description: it.Description,
		Selected:    selected,
	}
}

func kitReportDTO(r kit.Report) KitReportDTO {
	out := KitReportDTO{
		SelectedCount:         r.SelectedCount,
		TotalCount:            r.TotalCount,
		CompletenessPercent:   r.CompletenessPercent,
		EssentialSelected:     r.EssentialSelected,
		EssentialTotal:        r.EssentialTotal,
		IsEssentialComplete:   r.IsEssentialComplete,
		MissingEssentialCount: r.MissingEssentialCount,
		MissingEssentials:     make([]KitItemDTO, len(r.MissingEssentials)),
	}
	for i, it := range r.MissingEssentials {
		out.MissingEssentials[i] = kitItemDTO(it, false)
	}
	return out
}

func kitGroupDTOs(groups []kit.Group, selected []string) []KitGroupDTO {
	chosen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		chosen[id] = struct{}{}
	}

	out := make([]KitGroupDTO, len(groups))
	for i, g := range groups {
		items := make([]KitItemDTO, len(g.Items))
		for j, it := range g.Items {
			_, ok := chosen[it.ID]
			items[j] = kitItemDTO(it, ok)
		}
		out[i] = KitGroupDTO{Category: g.Category, Items: items}
	}
	return out
}

func entryDTOs(entries []leaderboard.Entry) []LeaderboardEntryDTO {
	out := make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntryDTO{
			Rank:          int(e.Rank),
			Name:          e.Name,
			Points:        e.Points,
			BadgeCount:    e.BadgeCount,
			IsCurrentUser: e.IsCurrentUser,
			Medal:         string(e.Medal()),
		}
	}
	return out
}

// ChangeDTO - итог применения одного события.
type ChangeDTO struct {
	Kind        string `json:"kind"`
	Version     int    `json:"version"`
	XP          int    `json:"xp"`
	LevelBefore int    `json:"level_before"`
	LevelAfter  int    `json:"level_after"`
	LeveledUp   bool   `json:"leveled_up"`

	Module       *ModuleDTO `json:"module,omitempty"`
	ItemSelected *bool      `json:"item_selected,omitempty"`
	Cleared      int        `json:"cleared,omitempty"`

	NewBadges  []BadgeDTO `json:"new_badges"`
	BadgeCount int        `json:"badge_count"`
}

// ChangeFrom превращает session.Change в DTO.
func ChangeFrom(c session.Change) ChangeDTO {
	dto := ChangeDTO{
		Version:     c.Version,
		XP:          c.XP,
		LevelBefore: c.LevelBefore,
		LevelAfter:  c.LevelAfter,
		LeveledUp:   c.LeveledUp(),
		Cleared:     c.Cleared,
		NewBadges:   badgeDTOs(c.NewBadges),
		BadgeCount:  c.BadgeCount,
	}
	if c.Event != nil {
		dto.Kind = string(c.Event.Kind())
		if c.Event.Kind() == session.KindItemToggled {
			selected := c.ItemSelected
			dto.ItemSelected = &selected
		}
	}
	if c.Module != nil {
		if sum, err := progress.Aggregate([]progress.Module{*c.Module}); err == nil && len(sum.Modules) == 1 {
			md := moduleDTOs(sum.Modules)[0]
			dto.Module = &md
		}
	}
	return dto
}
