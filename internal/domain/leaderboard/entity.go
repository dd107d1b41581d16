// Package leaderboard содержит доменную модель классного рейтинга.
// Рейтинг доступен только старшим классам; ранг всегда вычисляется,
// а не передаётся на вход.
package leaderboard

import (
	"fmt"
	"strings"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию участника в рейтинге.
// Rank начинается с 1 (первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// IsPodium возвращает true для первых трёх мест.
func (r Rank) IsPodium() bool {
	return r >= 1 && r <= 3
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// Medal - медаль за место на пьедестале.
type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
	MedalNone   Medal = ""
)

// Medal возвращает медаль для ранга (пусто за пределами пьедестала).
func (r Rank) Medal() Medal {
	switch r {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return MedalNone
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT & ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Participant - входная запись: имя, очки, количество значков.
// Ранга здесь нет: он всегда результат ранжирования.
type Participant struct {
	Name          string
	Points        int
	BadgeCount    int
	IsCurrentUser bool
}

// Validate проверяет предусловия участника.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.NewDomainError("leaderboard", "Rank", shared.ErrEmptyValue, "participant name cannot be empty")
	}
	if p.Points < 0 || p.BadgeCount < 0 {
		return shared.WrapError("leaderboard", "Rank", shared.ErrNegativeValue,
			fmt.Sprintf("participant %s: points=%d badges=%d", p.Name, p.Points, p.BadgeCount),
			shared.ErrNegativePoints)
	}
	return nil
}

// Entry - строка рейтинга.
type Entry struct {
	Rank          Rank
	Name          string
	Points        int
	BadgeCount    int
	IsCurrentUser bool
}

// Medal возвращает медаль строки.
func (e Entry) Medal() Medal {
	return e.Rank.Medal()
}

// PointsGap возвращает разрыв в очках с другой строкой.
func (e Entry) PointsGap(other Entry) int {
	diff := e.Points - other.Points
	if diff < 0 {
		return -diff
	}
	return diff
}

// String возвращает строковое представление для логирования.
func (e Entry) String() string {
	return fmt.Sprintf("Entry{Rank: %d, Name: %s, Points: %d, Badges: %d}", e.Rank, e.Name, e.Points, e.BadgeCount)
}
