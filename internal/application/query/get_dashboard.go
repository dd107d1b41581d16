package query

import (
	"context"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Собирает главный экран студента: уровень, прогресс, значки и набор.
// Все значения вычисляются заново из состояния сессии.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery содержит параметры запроса.
type GetDashboardQuery struct {
	SessionID string

	// Offline - признак отсутствия сети, только отражается в ответе.
	Offline bool
}

// DashboardDTO - главный экран студента.
type DashboardDTO struct {
	SessionID  string `json:"session_id"`
	Name       string `json:"name"`
	ClassID    string `json:"class_id"`
	ClassLevel int    `json:"class_level"`
	Offline    bool   `json:"offline"`

	Level    LevelDTO    `json:"level"`
	Progress ProgressDTO `json:"progress"`

	EarnedBadges []BadgeDTO `json:"earned_badges"`
	NextBadges   []BadgeDTO `json:"next_badges"`
	BadgeCount   int        `json:"badge_count"`
	BadgeTotal   int        `json:"badge_total"`

	Kit KitReportDTO `json:"kit"`

	Milestones []string `json:"milestones"`

	// LeaderboardVisible - доступен ли рейтинг классу студента.
	LeaderboardVisible bool `json:"leaderboard_visible"`

	Version int `json:"version"`
}

// GetDashboardHandler обрабатывает GetDashboardQuery.
type GetDashboardHandler struct {
	registry *session.Registry
}

// NewGetDashboardHandler создаёт обработчик.
func NewGetDashboardHandler(registry *session.Registry) *GetDashboardHandler {
	return &GetDashboardHandler{registry: registry}
}

// Handle выполняет запрос.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	id, err := shared.NewSessionID(q.SessionID)
	if err != nil {
		return nil, err
	}
	s, err := h.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d, err := s.View(q.Offline)
	if err != nil {
		return nil, err
	}
	return DashboardFrom(d), nil
}

// DashboardFrom превращает представление сессии в DTO.
func DashboardFrom(d session.Dashboard) *DashboardDTO {
	milestones := d.Milestones
	if milestones == nil {
		milestones = []string{}
	}
	return &DashboardDTO{
		SessionID:          d.SessionID.String(),
		Name:               d.Name,
		ClassID:            d.ClassID.String(),
		ClassLevel:         d.ClassLevel,
		Offline:            d.Offline,
		Level:              levelDTO(d.Level),
		Progress:           progressDTO(d.Progress),
		EarnedBadges:       badgeDTOs(d.EarnedBadges),
		NextBadges:         badgeDTOs(d.NextBadges),
		BadgeCount:         d.BadgeCount,
		BadgeTotal:         d.BadgeTotal,
		Kit:                kitReportDTO(d.Kit),
		Milestones:         milestones,
		LeaderboardVisible: d.LeaderboardVisible,
		Version:            d.Version,
	}
}
