package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "preparedness-hub", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)

	assert.Equal(t, 5, cfg.Rules.LeaderboardMinClassLevel)
	assert.Equal(t, 2, cfg.Rules.NextBadgesLimit)
	assert.Empty(t, cfg.Rules.ContentPath)

	assert.Equal(t, JournalMemory, cfg.Journal.Driver)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "info", cfg.Observability.LogLevel)

	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.SessionIdleTTL)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.ScoreboardSyncInterval)

	require.NotNil(t, cfg.Features)
	assert.True(t, cfg.Features.IsEnabled(FeatureLeaderboard))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEADERBOARD_MIN_CLASS_LEVEL", "8")
	t.Setenv("NEXT_BADGES_LIMIT", "3")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JOURNAL_DRIVER", "sqlite")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("FEATURES_DISABLED", "leaderboard, kit.builder")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Rules.LeaderboardMinClassLevel)
	assert.Equal(t, 3, cfg.Rules.NextBadgesLimit)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, JournalSQLite, cfg.Journal.Driver)
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	assert.False(t, cfg.Features.IsEnabled(FeatureLeaderboard))
	assert.False(t, cfg.Features.IsEnabled(FeatureKitBuilder))
	assert.True(t, cfg.Features.IsEnabled(FeatureAuditLog))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad int", map[string]string{"HTTP_PORT": "eighty"}},
		{"port range", map[string]string{"HTTP_PORT": "70000"}},
		{"negative gate", map[string]string{"LEADERBOARD_MIN_CLASS_LEVEL": "-1"}},
		{"unknown driver", map[string]string{"JOURNAL_DRIVER": "mongo"}},
		{"postgres without url", map[string]string{"JOURNAL_DRIVER": "postgres"}},
		{"memory in production", map[string]string{"APP_ENV": "production"}},
		{"unknown env", map[string]string{"APP_ENV": "qa"}},
		{"zero idle ttl", map[string]string{"SESSION_IDLE_TTL": "0s"}},
		{"unknown feature", map[string]string{"FEATURES_ENABLED": "teleport"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		App:     AppConfig{Environment: "qa"},
		Rules:   RulesConfig{LeaderboardMinClassLevel: -1, NextBadgesLimit: -1},
		HTTP:    HTTPConfig{Port: 0},
		Journal: JournalConfig{Driver: "mongo"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"APP_ENV", "LEADERBOARD_MIN_CLASS_LEVEL", "NEXT_BADGES_LIMIT", "HTTP_PORT", "JOURNAL_DRIVER"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestFeatureFlags(t *testing.T) {
	ff := DefaultFeatureFlags()
	assert.Len(t, ff.Enabled(), 5)

	require.NoError(t, ff.Set(FeatureAuditLog, false))
	assert.False(t, ff.IsEnabled(FeatureAuditLog))
	assert.NotContains(t, ff.Enabled(), FeatureAuditLog)

	assert.Error(t, ff.Set("nope", true))
	assert.False(t, ff.IsEnabled("nope"))

	var nilFlags *FeatureFlags
	assert.False(t, nilFlags.IsEnabled(FeatureLeaderboard))
}
