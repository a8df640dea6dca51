package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Resolved is emitted when a document reaches confirmed. Consumers (e.g. supplier
// campaigns) are optional; publishing never blocks the transition that produced it.
type Resolved struct {
	TenantID          uuid.UUID `json:"tenant_id"`
	DocumentID        uuid.UUID `json:"document_id"`
	FinancialRecordID uuid.UUID `json:"financial_record_id"`
	ResolvedBy        string    `json:"resolved_by"`
	Event             string    `json:"event"`
	ResolvedAt        time.Time `json:"resolved_at"`
}

type Publisher interface {
	PublishResolved(ctx context.Context, event Resolved) error
}

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) PublishResolved(ctx context.Context, event Resolved) error {
	slog.InfoContext(ctx, "document resolved",
		"tenant_id", event.TenantID,
		"document_id", event.DocumentID,
		"financial_record_id", event.FinancialRecordID,
		"resolved_by", event.ResolvedBy,
		"event", event.Event,
	)

	return nil
}
