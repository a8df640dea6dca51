package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

// FieldOverrides are reviewer corrections. Nil fields fall back to the extracted
// value and then to the financial record.
type FieldOverrides struct {
	IssuerName    *string
	IssuerTaxID   *string
	InvoiceNumber *string
	Value         *decimal.Decimal
	IssueDate     *time.Time
}

type ValidateInput struct {
	FinancialRecordID uuid.UUID
	Overrides         FieldOverrides
	Actor             string
}

// Validate confirms the document against a financial record. Repeating a successful
// call with the same record and overrides is a no-op.
func (s *Service) Validate(ctx context.Context, tenantID, id uuid.UUID, in ValidateInput) (doc *Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.Validate")
	defer func() { endSpan(span, err) }()

	actor := optional(in.Actor)
	if actor == nil {
		return nil, &ValidationError{Field: "actor", Reason: "required"}
	}

	if in.FinancialRecordID == uuid.Nil {
		return nil, &ValidationError{Field: "financial_record_id", Reason: "required"}
	}

	doc, err = s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if doc.Status == StatusConfirmed {
		if current, _ := doc.matchedRecord(); current == in.FinancialRecordID && in.Overrides.agree(doc.Confirmed) {
			return doc, nil
		}
	}

	if doc.Status != StatusPendingReview && doc.Status != StatusAutoMatched {
		return nil, s.auditFailure(ctx, doc, actor, transitionError("validate", doc.Status))
	}

	record, err := s.linkableRecord(ctx, doc, in.FinancialRecordID)
	if err != nil {
		return nil, s.auditFailure(ctx, doc, actor, err)
	}

	fields, err := confirmedFields(doc, record, in.Overrides)
	if err != nil {
		return nil, s.auditFailure(ctx, doc, actor, err)
	}

	from := doc.Status
	previous := doc.Match.FinancialRecordID
	now := s.now().UTC()

	doc.Status = StatusConfirmed
	doc.Confirmed = &fields
	doc.Match = s.rescore(doc, record, previous)
	doc.JobID = record.JobID
	doc.ResolvedBy = actor
	doc.ResolvedAt = &now
	doc.UpdatedAt = now

	entry := newEntry(doc, EventValidated, actor, from, now)
	entry.PreviousRecordID = previous

	if err := s.write(ctx, doc, entry); err != nil {
		return nil, err
	}

	var unlink *uuid.UUID
	if from == StatusAutoMatched && previous != nil && *previous != record.ID {
		unlink = previous
	}

	s.syncLedger(context.WithoutCancel(ctx), doc, actor, &record.ID, unlink)
	s.publishResolved(ctx, doc, EventValidated)

	return doc, nil
}

// Reject closes the document without a link. Repeating a successful call with the
// same reason is a no-op.
func (s *Service) Reject(ctx context.Context, tenantID, id uuid.UUID, reason, actor string) (doc *Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.Reject")
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "required"}
	}

	by := optional(actor)
	if by == nil {
		return nil, &ValidationError{Field: "actor", Reason: "required"}
	}

	doc, err = s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if doc.Status == StatusRejected && doc.RejectionReason != nil && *doc.RejectionReason == reason {
		return doc, nil
	}

	if doc.Status != StatusPendingReview && doc.Status != StatusAutoMatched {
		return nil, s.auditFailure(ctx, doc, by, transitionError("reject", doc.Status))
	}

	from := doc.Status
	previous := doc.Match.FinancialRecordID
	now := s.now().UTC()

	doc.Status = StatusRejected
	doc.RejectionReason = &reason
	doc.Match = Match{}
	doc.ResolvedBy = by
	doc.ResolvedAt = &now
	doc.UpdatedAt = now

	entry := newEntry(doc, EventRejected, by, from, now)
	entry.PreviousRecordID = previous
	entry.Detail = reason

	if err := s.write(ctx, doc, entry); err != nil {
		return nil, err
	}

	if from == StatusAutoMatched && previous != nil {
		s.syncLedger(context.WithoutCancel(ctx), doc, by, nil, previous)
	}

	return doc, nil
}

type ReassignInput struct {
	FinancialRecordID uuid.UUID
	Overrides         FieldOverrides
	Actor             string

	// JobID overrides the job taken from the new record.
	JobID *uuid.UUID
}

// Reassign moves a confirmed or auto-matched document to another financial record.
// It is always audited as a correction.
func (s *Service) Reassign(ctx context.Context, tenantID, id uuid.UUID, in ReassignInput) (doc *Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.Reassign")
	defer func() { endSpan(span, err) }()

	actor := optional(in.Actor)
	if actor == nil {
		return nil, &ValidationError{Field: "actor", Reason: "required"}
	}

	if in.FinancialRecordID == uuid.Nil {
		return nil, &ValidationError{Field: "financial_record_id", Reason: "required"}
	}

	doc, err = s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if doc.Status != StatusConfirmed && doc.Status != StatusAutoMatched {
		return nil, s.auditFailure(ctx, doc, actor, transitionError("reassign", doc.Status))
	}

	if current, _ := doc.matchedRecord(); current == in.FinancialRecordID {
		retry, err := s.lastEventWas(ctx, doc, EventReassigned, in.FinancialRecordID)
		if err != nil {
			return nil, err
		}

		if retry {
			return doc, nil
		}

		return nil, s.auditFailure(ctx, doc, actor,
			&ValidationError{Field: "financial_record_id", Reason: "document is already linked to this record"})
	}

	record, err := s.linkableRecord(ctx, doc, in.FinancialRecordID)
	if err != nil {
		return nil, s.auditFailure(ctx, doc, actor, err)
	}

	fields, err := confirmedFields(doc, record, in.Overrides)
	if err != nil {
		return nil, s.auditFailure(ctx, doc, actor, err)
	}

	from := doc.Status
	previous := doc.Match.FinancialRecordID
	now := s.now().UTC()

	doc.Status = StatusConfirmed
	doc.Confirmed = &fields
	doc.Match = s.rescore(doc, record, nil)
	doc.JobID = record.JobID
	if in.JobID != nil {
		doc.JobID = in.JobID
	}
	doc.ResolvedBy = actor
	doc.ResolvedAt = &now
	doc.UpdatedAt = now

	entry := newEntry(doc, EventReassigned, actor, from, now)
	entry.PreviousRecordID = previous

	if err := s.write(ctx, doc, entry); err != nil {
		return nil, err
	}

	s.syncLedger(context.WithoutCancel(ctx), doc, actor, &record.ID, previous)
	s.publishResolved(ctx, doc, EventReassigned)

	return doc, nil
}

// Delete soft-deletes a document that has not been confirmed and frees its
// fingerprint so the same file can be ingested again.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID, actor string) (err error) {
	ctx, span := s.tracer.Start(ctx, "document.Delete")
	defer func() { endSpan(span, err) }()

	doc, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	by := optional(actor)

	if doc.Status == StatusConfirmed {
		return s.auditFailure(ctx, doc, by, transitionError("delete", doc.Status))
	}

	now := s.now().UTC()
	linked := doc.Status == StatusAutoMatched

	doc.DeletedAt = &now
	doc.UpdatedAt = now

	entry := newEntry(doc, EventDeleted, by, doc.Status, now)

	if err := s.write(ctx, doc, entry); err != nil {
		return err
	}

	s.release(ctx, tenantID, doc.Source.Fingerprint)

	if linked {
		s.syncLedger(context.WithoutCancel(ctx), doc, by, nil, doc.Match.FinancialRecordID)
	}

	return nil
}

// linkableRecord loads the target record and checks no other document is confirmed
// against it.
func (s *Service) linkableRecord(ctx context.Context, doc *Document, recordID uuid.UUID) (*ledger.Record, error) {
	record, err := s.ledger.GetRecord(ctx, doc.TenantID, recordID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
		}

		return nil, fmt.Errorf("get financial record: %w", err)
	}

	if record.TenantID != doc.TenantID {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}

	holder, err := s.repo.FindConfirmedByRecord(ctx, doc.TenantID, recordID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("find confirmed document: %w", err)
	case holder.ID != doc.ID:
		return nil, fmt.Errorf("%w: record %s is held by document %s", ErrAlreadyLinked, recordID, holder.ID)
	}

	return record, nil
}

// write checks invariants and persists, auditing a lost race as a failed transition.
func (s *Service) write(ctx context.Context, doc *Document, entry *AuditEntry) error {
	if err := doc.checkInvariants(); err != nil {
		return err
	}

	err := s.repo.Update(ctx, doc, entry)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrStale) || errors.Is(err, ErrAlreadyLinked) {
		failed := *entry
		failed.ID = uuid.New()
		failed.Event = EventTransitionFailed
		failed.Detail = err.Error()

		if aerr := s.repo.AppendAudit(context.WithoutCancel(ctx), &failed); aerr != nil {
			return errors.Join(err, aerr)
		}

		return err
	}

	return fmt.Errorf("update document: %w", err)
}

// rescore explains a reviewer-chosen link with the matcher's view of that record.
// Targets other than the engine's own pick are marked manual.
func (s *Service) rescore(doc *Document, record *ledger.Record, engineChoice *uuid.UUID) Match {
	m := Match{FinancialRecordID: &record.ID}

	if doc.Extracted != nil {
		candidates := matching.FindCandidates(doc.TenantID, doc.Extracted.Fields, []ledger.Record{*record})
		if len(candidates) > 0 {
			m.Confidence = candidates[0].Confidence
			m.Basis = candidates[0].Score.Basis()
		}
	}

	if engineChoice == nil || *engineChoice != record.ID {
		m.Basis = append(m.Basis, matching.SignalManual)
	}

	return m
}

func (s *Service) lastEventWas(ctx context.Context, doc *Document, event Event, recordID uuid.UUID) (bool, error) {
	trail, err := s.repo.AuditTrail(ctx, doc.TenantID, doc.ID)
	if err != nil {
		return false, fmt.Errorf("get audit trail: %w", err)
	}

	trail = slices.DeleteFunc(trail, func(e AuditEntry) bool {
		return e.Event == EventTransitionFailed || e.Event == EventLedgerSyncFailed
	})

	if len(trail) == 0 {
		return false, nil
	}

	last := trail[len(trail)-1]

	return last.Event == event && last.FinancialRecordID != nil && *last.FinancialRecordID == recordID, nil
}

// confirmedFields resolves each field: override, then existing confirmed value,
// then extracted value, then the financial record.
func confirmedFields(doc *Document, record *ledger.Record, o FieldOverrides) (Fields, error) {
	var f Fields
	if doc.Confirmed != nil {
		f = *doc.Confirmed
	}

	var ex extraction.Fields
	if doc.Extracted != nil {
		ex = doc.Extracted.Fields
	}

	f.IssuerName = firstNonEmpty(deref(o.IssuerName), f.IssuerName, ex.IssuerName, record.CounterpartyName)
	f.InvoiceNumber = firstNonEmpty(deref(o.InvoiceNumber), f.InvoiceNumber, ex.InvoiceNumber)

	if o.IssuerTaxID != nil {
		taxID := extraction.NormalizeTaxID(*o.IssuerTaxID)
		if len(taxID) != 11 && len(taxID) != 14 {
			return Fields{}, &ValidationError{Field: "issuer_tax_id", Reason: "must have 11 or 14 digits"}
		}

		f.IssuerTaxID = taxID
	}

	f.IssuerTaxID = firstNonEmpty(f.IssuerTaxID, ex.IssuerTaxID, extraction.NormalizeTaxID(record.CounterpartyTaxID))

	switch {
	case o.Value != nil:
		if !o.Value.IsPositive() {
			return Fields{}, &ValidationError{Field: "value", Reason: "must be positive"}
		}

		f.Value = o.Value.Round(2)
	case !f.Value.IsZero():
	case ex.Value != nil:
		f.Value = *ex.Value
	default:
		f.Value = record.Amount
	}

	switch {
	case o.IssueDate != nil:
		f.IssueDate = o.IssueDate.UTC()
	case !f.IssueDate.IsZero():
	case ex.IssueDate != nil:
		f.IssueDate = *ex.IssueDate
	default:
		f.IssueDate = record.DueDate
	}

	required := []struct{ field, value string }{
		{"issuer_name", f.IssuerName},
		{"issuer_tax_id", f.IssuerTaxID},
		{"invoice_number", f.InvoiceNumber},
	}

	for _, r := range required {
		if r.value == "" {
			return Fields{}, &ValidationError{Field: r.field, Reason: "no value provided, extracted or on the record"}
		}
	}

	return f, nil
}

// agree reports whether every provided override matches the confirmed fields.
func (o FieldOverrides) agree(f *Fields) bool {
	if f == nil {
		return false
	}

	switch {
	case o.IssuerName != nil && *o.IssuerName != f.IssuerName,
		o.IssuerTaxID != nil && extraction.NormalizeTaxID(*o.IssuerTaxID) != f.IssuerTaxID,
		o.InvoiceNumber != nil && *o.InvoiceNumber != f.InvoiceNumber,
		o.Value != nil && !o.Value.Round(2).Equal(f.Value),
		o.IssueDate != nil && !o.IssueDate.Equal(f.IssueDate):
		return false
	}

	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
