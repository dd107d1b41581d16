package query

import (
	"context"

	"github.com/raksha360/preparedness-hub/internal/application/session"
	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET KIT QUERY
// Возвращает каталог набора по категориям с отметками выбора
// и отчёт о полноте.
// ══════════════════════════════════════════════════════════════════════════════

// GetKitQuery содержит параметры запроса.
type GetKitQuery struct {
	SessionID string
}

// KitDTO - экран конструктора набора.
type KitDTO struct {
	Groups   []KitGroupDTO `json:"groups"`
	Selected []string      `json:"selected"`
	Report   KitReportDTO  `json:"report"`
}

// GetKitHandler обрабатывает GetKitQuery.
type GetKitHandler struct {
	registry *session.Registry
}

// NewGetKitHandler создаёт обработчик.
func NewGetKitHandler(registry *session.Registry) *GetKitHandler {
	return &GetKitHandler{registry: registry}
}

// Handle выполняет запрос.
func (h *GetKitHandler) Handle(ctx context.Context, q GetKitQuery) (*KitDTO, error) {
	id, err := shared.NewSessionID(q.SessionID)
	if err != nil {
		return nil, err
	}
	s, err := h.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report, groups, err := s.KitReport()
	if err != nil {
		return nil, err
	}
	selected := s.Selection().IDs()
	if selected == nil {
		selected = []string{}
	}

	return &KitDTO{
		Groups:   kitGroupDTOs(groups, selected),
		Selected: selected,
		Report:   kitReportDTO(report),
	}, nil
}
