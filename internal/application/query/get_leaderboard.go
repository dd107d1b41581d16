package query

import (
	"context"
	"errors"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Ранжирует класс студента. Участники берутся из табло, запись
// самого студента - из сессии. Младшим классам рейтинг не показывается.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса.
type GetLeaderboardQuery struct {
	SessionID string

	// Limit - сколько строк вернуть (0 = все, максимум 100).
	Limit int

	// Around - вернуть соседей студента (±Around) вместо топа.
	Around int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Around < 0 {
		return errors.New("around cannot be negative")
	}
	if q.Around > 25 {
		q.Around = 25
	}
	return nil
}

// LeaderboardDTO - рейтинг класса.
type LeaderboardDTO struct {
	// Applicable == false: рейтинг недоступен, Entries пусты.
	Applicable bool                  `json:"applicable"`
	ClassID    string                `json:"class_id"`
	ClassLevel int                   `json:"class_level"`
	Entries    []LeaderboardEntryDTO `json:"entries"`

	// CurrentUser - строка самого студента.
	CurrentUser *LeaderboardEntryDTO `json:"current_user,omitempty"`

	TotalCount int `json:"total_count"`
}

// GetLeaderboardHandler обрабатывает GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	registry *session.Registry
	scores   leaderboard.ScoreSource
}

// NewGetLeaderboardHandler создаёт обработчик. scores может быть nil:
// тогда класс состоит только из самого студента.
func NewGetLeaderboardHandler(registry *session.Registry, scores leaderboard.ScoreSource) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{registry: registry, scores: scores}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}
	id, err := shared.NewSessionID(q.SessionID)
	if err != nil {
		return nil, err
	}
	s, err := h.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := s.Profile()
	classID := profile.ClassID.String()

	var records []leaderboard.ScoreRecord
	if h.scores != nil {
		records, err = h.scores.List(ctx, classID)
		if err != nil {
			return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "score board unavailable", err)
		}
	}

	outcome, err := s.Leaderboard(records)
	if err != nil {
		return nil, err
	}

	result := &LeaderboardDTO{
		Applicable: outcome.Applicable,
		ClassID:    classID,
		ClassLevel: outcome.ClassLevel,
		Entries:    []LeaderboardEntryDTO{},
		TotalCount: len(outcome.Entries),
	}
	if !outcome.Applicable {
		return result, nil
	}

	entries := outcome.Entries
	switch {
	case q.Around > 0:
		entries = outcome.Neighbors(profile.Name, q.Around)
	case q.Limit > 0:
		entries = outcome.Top(q.Limit)
	}
	result.Entries = entryDTOs(entries)

	if me, ok := outcome.CurrentUser(); ok {
		dto := entryDTOs([]leaderboard.Entry{me})[0]
		result.CurrentUser = &dto
	}
	return result, nil
}
