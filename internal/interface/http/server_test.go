package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/config"
	"github.com/raksha360/preparedness-hub/internal/application/command"
	"github.com/raksha360/preparedness-hub/internal/application/query"
	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/catalog"
	"github.com/raksha360/preparedness-hub/internal/infrastructure/persistence/memory"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	RequestID string          `json:"request_id"`
}

type testAPI struct {
	handler  http.Handler
	registry *session.Registry
}

func newTestAPI(t *testing.T, mutate func(*Config, *Dependencies, *session.Registry)) *testAPI {
	t.Helper()

	bundle, err := catalog.LoadEmbedded(nil)
	require.NoError(t, err)

	registry := session.NewRegistry(memory.NewJournal(), bundle.Content, session.DefaultSettings())
	scores := memory.NewScoreboard()
	_, err = command.NewSeedRosterHandler(scores, nil).Handle(context.Background(), command.SeedRosterCommand{
		ClassID: bundle.Roster.ClassID,
		Records: bundle.Roster.Records,
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	deps := Dependencies{
		StartSession:   command.NewStartSessionHandler(registry, scores, nil),
		ApplyEvent:     command.NewApplyEventHandler(registry, nil, nil),
		GetDashboard:   query.NewGetDashboardHandler(registry),
		GetKit:         query.NewGetKitHandler(registry),
		GetLeaderboard: query.NewGetLeaderboardHandler(registry, scores),
	}
	if mutate != nil {
		mutate(&cfg, &deps, registry)
	}

	return &testAPI{handler: NewServer(cfg, deps).Handler(), registry: registry}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (a *testAPI) start(t *testing.T, classLevel int) string {
	t.Helper()

	body := `{"name":"Priya","class_id":"7A","class_level":` + jsonInt(classLevel) + `,"xp":980}`
	rec, env := a.do(t, http.MethodPost, "/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d query.DashboardDTO
	require.NoError(t, json.Unmarshal(env.Data, &d))
	return d.SessionID
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, env := api.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), env.RequestID)
}

func TestRequestIDIsEchoed(t *testing.T) {
	api := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestStartSession(t *testing.T) {
	api := newTestAPI(t, nil)

	rec, env := api.do(t, http.MethodPost, "/api/v1/sessions", `{"name":"Priya","class_id":"7A","class_level":7,"xp":980}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var d query.DashboardDTO
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, 4, d.Level.Level)
	assert.Equal(t, 220, d.Level.XPToNext)
	assert.Equal(t, 14, d.Progress.TotalLessons)
	assert.Equal(t, "/api/v1/sessions/"+d.SessionID+"/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, 1, api.registry.Len())
}

func TestStartSession_BadRequests(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"unknown field", `{"name":"Priya","class_id":"7A","class_level":7,"grade":"A"}`},
		{"empty name", `{"name":"","class_id":"7A","class_level":7}`},
		{"negative xp", `{"name":"Priya","class_id":"7A","class_level":7,"xp":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := api.do(t, http.MethodPost, "/api/v1/sessions", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, codeValidation, env.Error.Code)
		})
	}
}

func TestGetDashboard(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.start(t, 7)

	rec, env := api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/dashboard?offline=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var d query.DashboardDTO
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.True(t, d.Offline)
	assert.Equal(t, id, d.SessionID)
	assert.Len(t, d.NextBadges, 2)
}

func TestGetDashboard_Errors(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.start(t, 7)

	rec, env := api.do(t, http.MethodGet, "/api/v1/sessions/not-a-uuid/dashboard", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidation, env.Error.Code)

	rec, env = api.do(t, http.MethodGet, "/api/v1/sessions/6f1c1c1e-3a0b-4a53-9c1c-2d1f9c3b0d11/dashboard", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, env.Error.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/dashboard?offline=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyEvent(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.start(t, 7)

	rec, env := api.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/events",
		`{"kind":"lesson_completed","payload":{"module_id":"earthquake"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res applyEventResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "lesson_completed", res.Change.Kind)
	assert.Equal(t, 1, res.Change.Version)
	require.NotNil(t, res.Change.Module)
	assert.True(t, res.Change.Module.IsComplete)
	require.Len(t, res.Change.NewBadges, 1)
	assert.Equal(t, "earthquake-hero", res.Change.NewBadges[0].ID)
	assert.Equal(t, 1, res.Change.BadgeCount)

	rec, env = api.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/events",
		`{"kind":"item_toggled","payload":{"item_id":"water"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Change.ItemSelected)
	assert.True(t, *res.Change.ItemSelected)
}

func TestApplyEvent_Errors(t *testing.T) {
	api := newTestAPI(t, func(_ *Config, d *Dependencies, registry *session.Registry) {
		d.ApplyEvent = command.NewApplyEventHandler(registry, nil, nil, command.WithMilestones(false))
	})
	id := api.start(t, 7)
	path := "/api/v1/sessions/" + id + "/events"

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown kind", `{"kind":"teleported","payload":{}}`, http.StatusBadRequest, codeValidation},
		{"missing payload", `{"kind":"xp_awarded"}`, http.StatusBadRequest, codeValidation},
		{"negative xp", `{"kind":"xp_awarded","payload":{"amount":-5}}`, http.StatusBadRequest, codeValidation},
		{"unknown module", `{"kind":"lesson_completed","payload":{"module_id":"tsunami"}}`, http.StatusNotFound, codeNotFound},
		{"milestones disabled", `{"kind":"milestone_reached","payload":{"flag":"first_aid_certified"}}`, http.StatusConflict, codeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := api.do(t, http.MethodPost, path, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestGetKit(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.start(t, 7)

	rec, env := api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/kit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var kit query.KitDTO
	require.NoError(t, json.Unmarshal(env.Data, &kit))
	assert.NotEmpty(t, kit.Groups)
	assert.Empty(t, kit.Selected)
	assert.Equal(t, 16, kit.Report.TotalCount)
}

func TestGetLeaderboard(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.start(t, 7)

	rec, env := api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/leaderboard?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lb query.LeaderboardDTO
	require.NoError(t, json.Unmarshal(env.Data, &lb))
	assert.True(t, lb.Applicable)
	assert.Len(t, lb.Entries, 3)
	assert.Equal(t, 5, lb.TotalCount)
	require.NotNil(t, lb.CurrentUser)
	assert.Equal(t, 4, lb.CurrentUser.Rank)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/leaderboard?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/leaderboard?around=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLeaderboard_YoungerClass(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.start(t, 4)

	rec, env := api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var lb query.LeaderboardDTO
	require.NoError(t, json.Unmarshal(env.Data, &lb))
	assert.False(t, lb.Applicable)
	assert.Empty(t, lb.Entries)
}

func TestFeatureFlagsGateRoutes(t *testing.T) {
	api := newTestAPI(t, func(_ *Config, d *Dependencies, _ *session.Registry) {
		flags := config.DefaultFeatureFlags()
		require.NoError(t, flags.Set(config.FeatureKitBuilder, false))
		require.NoError(t, flags.Set(config.FeatureLeaderboard, false))
		d.Features = flags
	})
	id := api.start(t, 7)

	rec, _ := api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/kit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/leaderboard", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/dashboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMaxBodyBytes(t *testing.T) {
	api := newTestAPI(t, func(c *Config, _ *Dependencies, _ *session.Registry) {
		c.MaxBodyBytes = 16
	})

	rec, env := api.do(t, http.MethodPost, "/api/v1/sessions", `{"name":"Priya","class_id":"7A","class_level":7,"xp":980}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeBodyTooLarge, env.Error.Code)
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, func(c *Config, _ *Dependencies, _ *session.Registry) {
		c.RateLimitPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		rec, _ := api.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, codeRateLimited, env.Error.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	api := newTestAPI(t, func(_ *Config, d *Dependencies, _ *session.Registry) {
		d.GetKit = nil
	})
	id := api.start(t, 7)

	rec, env := api.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/kit", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeInternal, env.Error.Code)
}
