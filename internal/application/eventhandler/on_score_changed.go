// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они реагируют на изменения
// сессий и обновляют вторичные хранилища, не влияя на сами сессии.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/raksha360/preparedness-hub/internal/domain/leaderboard"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/pkg/logger"
	"github.com/raksha360/preparedness-hub/pkg/retry"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON SCORE CHANGED HANDLER
// Переносит очки и количество значков студента в табло класса.
// Слушает progress.xp_gained и badge.earned: только они меняют запись табло.
// ═══════════════════════════════════════════════════════════════════════════

// OnScoreChangedHandler обновляет табло по событиям сессий.
type OnScoreChangedHandler struct {
	scores  leaderboard.ScoreSource
	retrier retry.Policy
	log     *logger.Logger
	timeout time.Duration
}

// NewOnScoreChangedHandler создаёт обработчик.
func NewOnScoreChangedHandler(scores leaderboard.ScoreSource, log *logger.Logger) *OnScoreChangedHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnScoreChangedHandler{
		scores:  scores,
		retrier: retry.Store(),
		log:     log.With(logger.Component("on_score_changed")),
		timeout: 5 * time.Second,
	}
}

// EventTypes возвращает типы событий, на которые подписан обработчик.
func (h *OnScoreChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventXPGained, shared.EventBadgeEarned}
}

// Register подписывает обработчик на шину.
func (h *OnScoreChangedHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range h.EventTypes() {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle обрабатывает событие. Читает Payload, а не конкретный тип,
// поэтому работает и с событиями, пришедшими через Redis.
func (h *OnScoreChangedHandler) Handle(event shared.Event) error {
	payload := event.Payload()

	var pointsKey string
	switch event.EventType() {
	case shared.EventXPGained:
		pointsKey = "new_total"
	case shared.EventBadgeEarned:
		pointsKey = "xp"
	default:
		return nil
	}

	name, _ := payload["student_name"].(string)
	classID, _ := payload["class_id"].(string)
	if name == "" || classID == "" {
		h.log.Warn("score event without student", logger.String("event_type", string(event.EventType())))
		return nil
	}

	points, ok := intValue(payload[pointsKey])
	if !ok {
		return fmt.Errorf("%s: %s is not a number", event.EventType(), pointsKey)
	}
	badges, ok := intValue(payload["badge_count"])
	if !ok {
		return fmt.Errorf("%s: badge_count is not a number", event.EventType())
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	record := leaderboard.ScoreRecord{Name: name, Points: points, BadgeCount: badges}
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		err := h.scores.Upsert(ctx, classID, record)
		if shared.IsValidation(err) {
			return retry.Permanent(err)
		}
		return retry.Retryable(err)
	})
	if err != nil {
		return fmt.Errorf("update score board: %w", err)
	}

	h.log.Debug("score board updated",
		logger.SessionID(event.AggregateID()),
		logger.ClassID(classID),
		logger.XPAmount(points),
	)
	return nil
}

// intValue читает число из payload: int у локальных событий,
// float64 у событий, декодированных из JSON.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
