package document

import (
	"time"

	"github.com/google/uuid"
)

// Event names an audit trail entry.
type Event string

const (
	EventIngested         Event = "ingested"
	EventExtractionFailed Event = "extraction_failed"
	EventAutoMatched      Event = "auto_matched"
	EventRoutedToReview   Event = "routed_to_review"
	EventValidated        Event = "validated"
	EventRejected         Event = "rejected"
	// EventReassigned is a correction of a prior decision, including machine matches.
	EventReassigned       Event = "reassigned"
	EventReprocessed      Event = "reprocessed"
	EventDeleted          Event = "deleted"
	EventTransitionFailed Event = "transition_failed"
	EventLedgerSyncFailed Event = "ledger_sync_failed"
)

// AuditEntry is an append-only record of something that happened to a document.
type AuditEntry struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	DocumentID        uuid.UUID
	Event             Event
	Actor             *string // nil for the engine itself
	FromStatus        Status
	ToStatus          Status
	FinancialRecordID *uuid.UUID
	PreviousRecordID  *uuid.UUID
	Detail            string
	CreatedAt         time.Time
}

func newEntry(doc *Document, event Event, actor *string, from Status, at time.Time) *AuditEntry {
	return &AuditEntry{
		ID:                uuid.New(),
		TenantID:          doc.TenantID,
		DocumentID:        doc.ID,
		Event:             event,
		Actor:             actor,
		FromStatus:        from,
		ToStatus:          doc.Status,
		FinancialRecordID: doc.Match.FinancialRecordID,
		CreatedAt:         at,
	}
}
