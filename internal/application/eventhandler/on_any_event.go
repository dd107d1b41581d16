package eventhandler

import (
	"sort"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
	"github.com/raksha360/preparedness-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// AUDIT LOG HANDLER
// Пишет каждое доменное событие в структурированный лог.
// ═══════════════════════════════════════════════════════════════════════════

// AuditLogHandler логирует все события шины.
type AuditLogHandler struct {
	log *logger.Logger
}

// NewAuditLogHandler создаёт обработчик.
func NewAuditLogHandler(log *logger.Logger) *AuditLogHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditLogHandler{log: log.With(logger.Component("audit"))}
}

// Register подписывает обработчик на все события.
func (h *AuditLogHandler) Register(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(h.Handle)
}

// Handle записывает событие.
func (h *AuditLogHandler) Handle(event shared.Event) error {
	payload := event.Payload()
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]logger.Field, 0, len(keys)+3)
	fields = append(fields,
		logger.String("event_type", string(event.EventType())),
		logger.SessionID(event.AggregateID()),
		logger.Time("occurred_at", event.OccurredAt()),
	)
	for _, k := range keys {
		fields = append(fields, logger.Any("payload."+k, payload[k]))
	}

	h.log.Info("domain event", fields...)
	return nil
}
