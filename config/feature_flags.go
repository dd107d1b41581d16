package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FeatureFlags manages feature toggles of the hub surfaces.
// Computation never depends on a flag; flags only decide which routes
// and subscribers are wired.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	FeatureLeaderboard       = "leaderboard"        // GET /sessions/{id}/leaderboard
	FeatureKitBuilder        = "kit.builder"        // GET /sessions/{id}/kit
	FeatureScoreboardSync    = "scoreboard.sync"    // push XP and badges to the class score board
	FeatureAuditLog          = "events.audit_log"   // log every domain event
	FeatureMilestoneTracking = "badges.milestones"  // accept milestone_reached events
)

// featureEnv is the env surface for flag overrides.
type featureEnv struct {
	Enabled  []string `env:"FEATURES_ENABLED" envSeparator:","`
	Disabled []string `env:"FEATURES_DISABLED" envSeparator:","`
}

// DefaultFeatureFlags returns all known flags with their defaults.
func DefaultFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.register(FeatureLeaderboard, "Class leaderboard for older classes", true)
	ff.register(FeatureKitBuilder, "Emergency kit builder view", true)
	ff.register(FeatureScoreboardSync, "Class score board updates from session events", true)
	ff.register(FeatureAuditLog, "Structured audit log of domain events", true)
	ff.register(FeatureMilestoneTracking, "Milestone flags feeding milestone badges", true)
	return ff
}

// LoadFeatureFlags applies FEATURES_ENABLED / FEATURES_DISABLED on top of defaults.
func LoadFeatureFlags() (*FeatureFlags, error) {
	var fe featureEnv
	if err := env.Parse(&fe); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	ff := DefaultFeatureFlags()
	for _, name := range fe.Enabled {
		if err := ff.Set(strings.TrimSpace(name), true); err != nil {
			return nil, err
		}
	}
	for _, name := range fe.Disabled {
		if err := ff.Set(strings.TrimSpace(name), false); err != nil {
			return nil, err
		}
	}
	return ff, nil
}

func (ff *FeatureFlags) register(name, description string, enabled bool) {
	ff.features[name] = &Feature{Name: name, Description: description, Enabled: enabled}
}

// IsEnabled reports whether the feature is on. Unknown features are off.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	return ok && f.Enabled
}

// Set toggles a known feature.
func (ff *FeatureFlags) Set(name string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[name]
	if !ok {
		return fmt.Errorf("unknown feature %q", name)
	}
	f.Enabled = enabled
	return nil
}

// Enabled returns the sorted names of enabled features.
func (ff *FeatureFlags) Enabled() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	names := make([]string, 0, len(ff.features))
	for name, f := range ff.features {
		if f.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
