package event

import (
	"context"

	"github.com/gescom/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every published domain event to the structured
// log. It subscribes as a wildcard handler and forms the audit trail of
// state changes: invoice lifecycle moves, payments, stock adjustments,
// customer status changes.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger}
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)

// Handle logs one domain event
func (h *AuditLogHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_type", e.AggregateType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
	)
	return nil
}

// EventTypes returns nil: the audit log receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}
