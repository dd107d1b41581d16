// Package session владеет изменяемым состоянием одного студента и
// пересчитывает производные значения через доменные компоненты.
package session

import (
	"github.com/raksha360/preparedness-hub/internal/domain/badge"
	"github.com/raksha360/preparedness-hub/internal/domain/kit"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/level"
	"github.com/raksha360/preparedness-hub/internal/domain/progress"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// Content - неизменяемые каталоги, общие для всех сессий.
type Content struct {
	Modules []progress.Module
	Badges  *badge.Evaluator
	Kit     *kit.Catalog
	Levels  *level.Table
}

// Validate проверяет, что все каталоги заданы.
func (c *Content) Validate() error {
	if c == nil {
		return shared.NewDomainError("session", "Content", shared.ErrInvalidInput, "content is required")
	}
	if c.Badges == nil || c.Kit == nil || c.Levels == nil {
		return shared.NewDomainError("session", "Content", shared.ErrInvalidInput, "badge, kit and level catalogs are required")
	}
	if c.Kit.Len() == 0 {
		return shared.ErrEmptyCatalog
	}
	for _, m := range c.Modules {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StartingModules возвращает копию модулей каталога для нового профиля.
func (c *Content) StartingModules() []progress.Module {
	out := make([]progress.Module, len(c.Modules))
	copy(out, c.Modules)
	return out
}

// Settings - настраиваемые константы правил.
type Settings struct {
	// MinClassLevel - рейтинг виден при classLevel > MinClassLevel.
	MinClassLevel int

	// NextBadgesLimit - сколько следующих значков показывать.
	NextBadgesLimit int
}

// DefaultSettings возвращает значения по умолчанию.
func DefaultSettings() Settings {
	return Settings{
		MinClassLevel:   leaderboard.DefaultMinClassLevel,
		NextBadgesLimit: 2,
	}
}
