// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/internal/domain/student"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// START SESSION COMMAND
// Открывает сессию студента: профиль из параметров, модули из каталога.
// Начальное состояние пишется в журнал, запись студента - в табло класса.
// ══════════════════════════════════════════════════════════════════════════════

// StartSessionCommand содержит данные для новой сессии.
type StartSessionCommand struct {
	// SessionID - необязательный id (UUID). Пустой - сгенерировать.
	SessionID string

	Name       string
	ClassID    string
	ClassLevel int
	XP         int
}

// StartSessionResult - результат открытия сессии.
type StartSessionResult struct {
	SessionID shared.SessionID
	Session   *session.Session
}

// StartSessionHandler обрабатывает StartSessionCommand.
type StartSessionHandler struct {
	registry *session.Registry
	scores   leaderboard.ScoreSource
	log      *logger.Logger
	now      func() time.Time
}

// NewStartSessionHandler создаёт обработчик. scores может быть nil.
func NewStartSessionHandler(registry *session.Registry, scores leaderboard.ScoreSource, log *logger.Logger) *StartSessionHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StartSessionHandler{
		registry: registry,
		scores:   scores,
		log:      log.With(logger.Operation("start_session")),
		now:      time.Now,
	}
}

// Handle открывает сессию.
func (h *StartSessionHandler) Handle(ctx context.Context, cmd StartSessionCommand) (*StartSessionResult, error) {
	id, err := h.sessionID(cmd.SessionID)
	if err != nil {
		return nil, err
	}

	content := h.registry.Content()
	profile, err := student.NewProfile(student.NewProfileParams{
		Name:       cmd.Name,
		ClassID:    student.ClassID(cmd.ClassID),
		ClassLevel: cmd.ClassLevel,
		XP:         cmd.XP,
		Modules:    content.StartingModules(),
	})
	if err != nil {
		return nil, err
	}

	s, err := session.New(id, profile, content, h.registry.Settings())
	if err != nil {
		return nil, err
	}

	rec := session.Record{
		ID:        id,
		Profile:   session.SnapshotOf(profile),
		CreatedAt: h.now().UTC(),
	}
	if err := h.registry.Journal().Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("journal session %s: %w", id, err)
	}
	h.registry.Put(s)

	if h.scores != nil {
		score, err := s.ScoreRecord()
		if err == nil {
			err = h.scores.Upsert(ctx, profile.ClassID.String(), score)
		}
		if err != nil {
			// Табло вторично: сессия уже записана в журнал.
			h.log.Warn("failed to publish initial score", logger.SessionID(id.String()), logger.Err(err))
		}
	}

	h.log.Info("session started",
		logger.SessionID(id.String()),
		logger.ClassID(profile.ClassID.String()),
		logger.XPAmount(profile.XP),
	)

	return &StartSessionResult{SessionID: id, Session: s}, nil
}

func (h *StartSessionHandler) sessionID(raw string) (shared.SessionID, error) {
	if raw == "" {
		return shared.NewSessionID(uuid.NewString())
	}
	return shared.NewSessionID(raw)
}
