package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/raksha360/preparedness-hub/internal/application/command"
	"github.com/raksha360/preparedness-hub/internal/application/query"
	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// Error codes of the JSON error body.
const (
	codeValidation   = "validation_error"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeUnavailable  = "service_unavailable"
	codeInternal     = "internal_error"
	codeRateLimited  = "rate_limit_exceeded"
	codeBodyTooLarge = "body_too_large"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports the aggregated health checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

// startSessionRequest is the body of POST /api/v1/sessions.
type startSessionRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	Name       string `json:"name"`
	ClassID    string `json:"class_id"`
	ClassLevel int    `json:"class_level"`
	XP         int    `json:"xp"`
}

// handleStartSession opens a session and returns its first dashboard.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.StartSession.Handle(r.Context(), command.StartSessionCommand{
		SessionID:  req.SessionID,
		Name:       req.Name,
		ClassID:    req.ClassID,
		ClassLevel: req.ClassLevel,
		XP:         req.XP,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := result.Session.View(false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/sessions/"+result.SessionID.String()+"/dashboard")
	writeJSON(w, r, http.StatusCreated, query.DashboardFrom(view))
}

// handleGetDashboard serves the student's dashboard.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	offline, err := queryBool(r, "offline")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.GetDashboard.Handle(r.Context(), query.GetDashboardQuery{
		SessionID: r.PathValue("id"),
		Offline:   offline,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// applyEventResponse is returned by POST /api/v1/sessions/{id}/events.
type applyEventResponse struct {
	Change    query.ChangeDTO `json:"change"`
	Published int             `json:"published"`
}

// handleApplyEvent applies one {kind, payload} event to the session.
func (s *Server) handleApplyEvent(w http.ResponseWriter, r *http.Request) {
	var env session.Envelope
	if !s.decodeBody(w, r, &env) {
		return
	}

	ev, err := env.Unwrap()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.ApplyEvent.Handle(r.Context(), command.ApplyEventCommand{
		SessionID: r.PathValue("id"),
		Event:     ev,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, applyEventResponse{
		Change:    query.ChangeFrom(result.Change),
		Published: result.Published,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// KIT & LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// handleGetKit serves the kit builder view.
func (s *Server) handleGetKit(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetKit.Handle(r.Context(), query.GetKitQuery{
		SessionID: r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleGetLeaderboard serves the class leaderboard.
// Supports ?limit=N for the top and ?around=N for the student's neighbours.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	around, err := queryInt(r, "around")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		SessionID: r.PathValue("id"),
		Limit:     limit,
		Around:    around,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST & ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody reads a JSON body into dst. Writes the error response and
// returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, codeBodyTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeJSONError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeError maps a domain error onto a status code and JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		message = "an unexpected error occurred"
	}

	writeJSONError(w, r, status, code, message)
}

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, codeValidation
	case shared.IsNotFound(err):
		return http.StatusNotFound, codeNotFound
	case shared.IsAlreadyExists(err), errors.Is(err, shared.ErrInvalidState):
		return http.StatusConflict, codeConflict
	case shared.IsExternalService(err):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// queryInt reads an optional integer query parameter (missing = 0).
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, shared.Errorf("http", "Query", shared.ErrInvalidFormat, "%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

// queryBool reads an optional boolean query parameter (missing = false).
func queryBool(r *http.Request, key string) (bool, error) {
	raw := strings.ToLower(r.URL.Query().Get(key))
	switch raw {
	case "":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, shared.Errorf("http", "Query", shared.ErrInvalidFormat, "%s must be a boolean, got %q", key, raw)
}
