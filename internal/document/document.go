package document

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

// Status is the lifecycle state of an invoice document.
type Status string

const (
	StatusProcessing    Status = "processing"
	StatusPendingReview Status = "pending_review"
	StatusAutoMatched   Status = "auto_matched"
	StatusConfirmed     Status = "confirmed"
	StatusRejected      Status = "rejected"
)

var Statuses = []Status{
	StatusProcessing, StatusPendingReview, StatusAutoMatched, StatusConfirmed, StatusRejected,
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Source describes where the bytes came from. It is fixed at ingestion.
type Source struct {
	FileName     string
	FileURI      string
	ContentType  string
	Fingerprint  string
	ReceivedAt   time.Time
	EmailSubject *string
	EmailFrom    *string
}

// Extraction is the write-once field group produced by the extraction adapter.
// A document's Extraction is nil until written and never replaced afterwards.
type Extraction struct {
	extraction.Fields
	ExtractedAt time.Time
}

// Fields is the reviewer-writable field group. It is nil until the document is
// validated and every value is present once set.
type Fields struct {
	IssuerName    string
	IssuerTaxID   string
	InvoiceNumber string
	Value         decimal.Decimal
	IssueDate     time.Time
}

// Match is the engine's current pairing with a ledger entry. On pending_review
// documents it is the suggestion, if any.
type Match struct {
	FinancialRecordID *uuid.UUID
	Confidence        float64
	Basis             []matching.Signal
}

// Document is an ingested supplier invoice (NF).
type Document struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Version  int64
	Status   Status

	Source          Source
	Extracted       *Extraction
	ExtractionError string
	Confirmed       *Fields
	Match           Match
	JobID           *uuid.UUID

	RejectionReason *string
	ResolvedBy      *string // nil when resolved by the engine
	ResolvedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// ExtractionFailed reports whether extraction was attempted and never succeeded.
func (d *Document) ExtractionFailed() bool {
	return d.Extracted == nil && d.ExtractionError != ""
}

// lockExtraction writes the extracted group once.
func (d *Document) lockExtraction(fields extraction.Fields, at time.Time) bool {
	if d.Extracted != nil {
		return false
	}

	d.Extracted = &Extraction{Fields: fields, ExtractedAt: at}
	d.ExtractionError = ""

	return true
}

func (d *Document) matchedRecord() (uuid.UUID, bool) {
	if d.Match.FinancialRecordID == nil {
		return uuid.Nil, false
	}

	return *d.Match.FinancialRecordID, true
}

// checkInvariants verifies the status-dependent invariants before a write.
func (d *Document) checkInvariants() error {
	switch d.Status {
	case StatusConfirmed:
		if d.Match.FinancialRecordID == nil {
			return &ValidationError{Field: "financial_record_id", Reason: "required for confirmed documents"}
		}

		if d.Confirmed == nil {
			return &ValidationError{Field: "confirmed", Reason: "confirmed fields are required"}
		}
	case StatusAutoMatched:
		if d.Match.FinancialRecordID == nil || d.ResolvedBy != nil {
			return &ValidationError{Field: "financial_record_id", Reason: "auto matches need a record and no resolver"}
		}
	case StatusRejected:
		if d.RejectionReason == nil || *d.RejectionReason == "" {
			return &ValidationError{Field: "reason", Reason: "required for rejected documents"}
		}
	}

	return nil
}
