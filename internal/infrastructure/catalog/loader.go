// Package catalog loads the static content (modules, badges, kit items,
// level table and a demo class roster) from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/badge"
	"github.com/raksha360/preparedness-hub/internal/domain/kit"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/level"
	"github.com/raksha360/preparedness-hub/internal/domain/progress"
)

//go:embed content.yaml
var embeddedContent []byte

// ═══════════════════════════════════════════════════════════════════════════
// YAML SCHEMA
// ═══════════════════════════════════════════════════════════════════════════

type yamlContent struct {
	Version int          `yaml:"version"`
	Levels  yamlLevels   `yaml:"levels"`
	Modules []yamlModule `yaml:"modules"`
	Badges  []yamlBadge  `yaml:"badges"`
	Kit     []yamlItem   `yaml:"kit"`
	Roster  yamlRoster   `yaml:"roster"`
}

type yamlLevels struct {
	Thresholds []int `yaml:"thresholds"`
}

type yamlModule struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Difficulty       string `yaml:"difficulty"`
	TotalLessons     int    `yaml:"total_lessons"`
	CompletedLessons int    `yaml:"completed_lessons"`
}

type yamlBadge struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Icon        string            `yaml:"icon"`
	Tier        string            `yaml:"tier"`
	Rule        string            `yaml:"rule"`
	Params      map[string]string `yaml:"params"`
}

type yamlItem struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Importance  string `yaml:"importance"`
	Description string `yaml:"description"`
}

type yamlRoster struct {
	ClassID      string       `yaml:"class_id"`
	Participants []yamlScorer `yaml:"participants"`
}

type yamlScorer struct {
	Name   string `yaml:"name"`
	Points int    `yaml:"points"`
	Badges int    `yaml:"badges"`
}

// ═══════════════════════════════════════════════════════════════════════════
// BUNDLE
// ═══════════════════════════════════════════════════════════════════════════

// Roster is a demo class score board used to seed an empty store.
type Roster struct {
	ClassID string
	Records []leaderboard.ScoreRecord
}

// Bundle is the parsed content.
type Bundle struct {
	Content *session.Content
	Roster  Roster
}

// LoadEmbedded parses the content shipped with the binary.
func LoadEmbedded(registry *badge.Registry) (*Bundle, error) {
	return Parse(embeddedContent, registry)
}

// LoadFile parses content from path. An empty path falls back to the embedded content.
func LoadFile(path string, registry *badge.Registry) (*Bundle, error) {
	if strings.TrimSpace(path) == "" {
		return LoadEmbedded(registry)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	bundle, err := Parse(data, registry)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	return bundle, nil
}

// Parse decodes and validates a YAML content document.
func Parse(data []byte, registry *badge.Registry) (*Bundle, error) {
	if registry == nil {
		registry = badge.DefaultRegistry()
	}

	var doc yamlContent
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse content yaml: %w", err)
	}
	if doc.Version != 1 {
		return nil, fmt.Errorf("unsupported content version %d", doc.Version)
	}

	thresholds := doc.Levels.Thresholds
	if len(thresholds) == 0 {
		thresholds = level.DefaultThresholds
	}
	levels, err := level.NewTable(thresholds)
	if err != nil {
		return nil, fmt.Errorf("levels: %w", err)
	}

	modules, err := buildModules(doc.Modules)
	if err != nil {
		return nil, err
	}

	badges := make([]badge.Badge, 0, len(doc.Badges))
	for _, b := range doc.Badges {
		built, err := registry.BuildBadge(badge.Definition{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			Icon:        b.Icon,
			Tier:        b.Tier,
			Rule:        b.Rule,
			Params:      badge.Params(b.Params),
		})
		if err != nil {
			return nil, err
		}
		badges = append(badges, built)
	}
	evaluator, err := badge.NewEvaluator(badges)
	if err != nil {
		return nil, fmt.Errorf("badges: %w", err)
	}

	items := make([]kit.Item, 0, len(doc.Kit))
	for _, it := range doc.Kit {
		importance, err := kit.ParseImportance(it.Importance)
		if err != nil {
			return nil, fmt.Errorf("kit item %s: %w", it.ID, err)
		}
		items = append(items, kit.Item{
			ID:          it.ID,
			Name:        it.Name,
			Category:    it.Category,
			Importance:  importance,
			Description: it.Description,
		})
	}
	catalog, err := kit.NewCatalog(items)
	if err != nil {
		return nil, fmt.Errorf("kit: %w", err)
	}

	content := &session.Content{
		Modules: modules,
		Badges:  evaluator,
		Kit:     catalog,
		Levels:  levels,
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}

	roster := Roster{ClassID: doc.Roster.ClassID}
	for _, p := range doc.Roster.Participants {
		roster.Records = append(roster.Records, leaderboard.ScoreRecord{
			Name:       p.Name,
			Points:     p.Points,
			BadgeCount: p.Badges,
		})
	}

	return &Bundle{Content: content, Roster: roster}, nil
}

func buildModules(in []yamlModule) ([]progress.Module, error) {
	modules := make([]progress.Module, 0, len(in))
	for _, m := range in {
		difficulty, err := progress.ParseDifficulty(m.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.ID, err)
		}
		module := progress.Module{
			ID:               m.ID,
			Name:             m.Name,
			CompletedLessons: m.CompletedLessons,
			TotalLessons:     m.TotalLessons,
			Difficulty:       difficulty,
		}
		if err := module.Validate(); err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, nil
}
