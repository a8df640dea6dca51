package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrJamesThe3rd/nfrecon/internal/blob"
	"github.com/MrJamesThe3rd/nfrecon/internal/events"
	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/fingerprint"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=document
type Repository interface {
	// Create inserts a new document together with its first audit entry.
	Create(ctx context.Context, doc *Document, entry *AuditEntry) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	// Update persists doc if its stored version still equals doc.Version, appending
	// entry in the same write, and bumps doc.Version. It returns ErrStale when the
	// version moved on and ErrAlreadyLinked when another confirmed document holds the
	// same financial record.
	Update(ctx context.Context, doc *Document, entry *AuditEntry) error
	FindConfirmedByRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*Document, error)

	AppendAudit(ctx context.Context, entry *AuditEntry) error
	AuditTrail(ctx context.Context, tenantID, documentID uuid.UUID) ([]AuditEntry, error)

	List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*Page, error)
	Stats(ctx context.Context, tenantID uuid.UUID, monthStart, monthEnd time.Time) (*Stats, error)
}

type Extractor interface {
	Extract(ctx context.Context, content []byte, contentType string) (extraction.Fields, error)
}

// Ledger is the subset of the ledger the lifecycle reads and writes back to.
type Ledger interface {
	ListOpenRecords(ctx context.Context, tenantID uuid.UUID, filter ledger.ListFilter) ([]ledger.Record, error)
	GetRecord(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Record, error)
	MarkLinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error
	MarkUnlinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error
}

type Deps struct {
	Repo         Repository
	Fingerprints fingerprint.Registry
	Blobs        blob.Store
	Extractor    Extractor
	Ledger       Ledger
	Publisher    events.Publisher
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	repo         Repository
	fingerprints fingerprint.Registry
	blobs        blob.Store
	extractor    Extractor
	ledger       Ledger
	publisher    events.Publisher
	now          func() time.Time
	tracer       trace.Tracer
}

func NewService(deps Deps) *Service {
	s := &Service{
		repo:         deps.Repo,
		fingerprints: deps.Fingerprints,
		blobs:        deps.Blobs,
		extractor:    deps.Extractor,
		ledger:       deps.Ledger,
		publisher:    deps.Publisher,
		now:          deps.Now,
		tracer:       otel.Tracer("github.com/MrJamesThe3rd/nfrecon/internal/document"),
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.publisher == nil {
		s.publisher = events.LogPublisher{}
	}

	return s
}

type IngestInput struct {
	FileName     string
	ContentType  string
	Content      []byte
	ReceivedAt   time.Time
	EmailSubject string
	EmailFrom    string
}

// Ingest registers a new document, extracts it and runs matching. A document whose
// bytes were already ingested in the tenant yields a *DuplicateError naming the
// existing document and nothing else happens. Extraction failures do not fail
// ingestion: the document is routed to review with the failure recorded.
func (s *Service) Ingest(ctx context.Context, tenantID uuid.UUID, in IngestInput) (doc *Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.Ingest", trace.WithAttributes(
		attribute.String("tenant_id", tenantID.String()),
	))
	defer func() { endSpan(span, err) }()

	if len(in.Content) == 0 {
		return nil, &ValidationError{Field: "file", Reason: "empty content"}
	}

	if strings.TrimSpace(in.FileName) == "" {
		return nil, &ValidationError{Field: "file_name", Reason: "required"}
	}

	fp := fingerprint.Compute(in.Content)
	id := uuid.New()

	if err := s.fingerprints.Reserve(ctx, tenantID, fp, id); err != nil {
		var reserved *fingerprint.ReservedError
		if errors.As(err, &reserved) {
			slog.InfoContext(ctx, "duplicate document ignored",
				"tenant_id", tenantID, "existing_document_id", reserved.DocumentID)

			return nil, &DuplicateError{DocumentID: reserved.DocumentID}
		}

		// The holder could not be read back before the registry gave up.
		if errors.Is(err, fingerprint.ErrReserved) {
			slog.InfoContext(ctx, "duplicate document ignored, holder unknown", "tenant_id", tenantID)
			return nil, &DuplicateError{}
		}

		return nil, fmt.Errorf("reserve fingerprint: %w", err)
	}

	uri, err := s.blobs.Put(ctx, blobKey(tenantID, id, in.FileName), in.Content, in.ContentType)
	if err != nil {
		s.release(ctx, tenantID, fp)
		return nil, fmt.Errorf("store document content: %w", err)
	}

	now := s.now().UTC()

	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}

	doc = &Document{
		ID:       id,
		TenantID: tenantID,
		Status:   StatusProcessing,
		Source: Source{
			FileName:     in.FileName,
			FileURI:      uri,
			ContentType:  in.ContentType,
			Fingerprint:  fp,
			ReceivedAt:   receivedAt.UTC(),
			EmailSubject: optional(in.EmailSubject),
			EmailFrom:    optional(in.EmailFrom),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, doc, newEntry(doc, EventIngested, nil, "", now)); err != nil {
		s.release(ctx, tenantID, fp)
		return nil, fmt.Errorf("create document: %w", err)
	}

	span.SetAttributes(attribute.String("document_id", doc.ID.String()))

	if err := s.process(ctx, doc, in.Content); err != nil {
		return nil, err
	}

	return doc, nil
}

// Reprocess retries extraction for a document whose extraction never succeeded. It is
// also the way out for documents left in processing by an interrupted ingestion.
func (s *Service) Reprocess(ctx context.Context, tenantID, id uuid.UUID, actor string) (doc *Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.Reprocess")
	defer func() { endSpan(span, err) }()

	doc, err = s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	stuck := doc.Status == StatusProcessing && doc.Extracted == nil
	if !stuck && (doc.Status != StatusPendingReview || !doc.ExtractionFailed()) {
		return nil, s.auditFailure(ctx, doc, optional(actor), transitionError("reprocess", doc.Status))
	}

	content, err := s.blobs.Get(ctx, doc.Source.FileURI)
	if err != nil {
		return nil, fmt.Errorf("load document content: %w", err)
	}

	if err := s.repo.AppendAudit(ctx, newEntry(doc, EventReprocessed, optional(actor), doc.Status, s.now().UTC())); err != nil {
		return nil, fmt.Errorf("append audit: %w", err)
	}

	if err := s.process(ctx, doc, content); err != nil {
		return nil, err
	}

	if doc.ExtractionFailed() {
		return doc, fmt.Errorf("%w: %s", ErrExtractionUnavailable, doc.ExtractionError)
	}

	return doc, nil
}

// process runs extraction and matching and persists where the document lands. The
// final write survives caller cancellation so a document never stays half-routed.
func (s *Service) process(ctx context.Context, doc *Document, content []byte) error {
	from := doc.Status
	wctx := context.WithoutCancel(ctx)

	fields, err := s.extractor.Extract(ctx, content, doc.Source.ContentType)
	if err != nil {
		slog.WarnContext(ctx, "extraction failed, routing to review",
			"document_id", doc.ID, "error", err)

		doc.Status = StatusPendingReview
		doc.ExtractionError = err.Error()
		doc.Match = Match{}
		doc.UpdatedAt = s.now().UTC()

		entry := newEntry(doc, EventExtractionFailed, nil, from, doc.UpdatedAt)
		entry.Detail = err.Error()

		if err := s.repo.Update(wctx, doc, entry); err != nil {
			return fmt.Errorf("route document to review: %w", err)
		}

		return nil
	}

	now := s.now().UTC()
	doc.lockExtraction(fields, now)
	doc.UpdatedAt = now

	event, detail := s.route(ctx, doc, fields)

	entry := newEntry(doc, event, nil, from, now)
	entry.Detail = detail

	if err := s.repo.Update(wctx, doc, entry); err != nil {
		return fmt.Errorf("route document: %w", err)
	}

	slog.InfoContext(ctx, "document routed",
		"document_id", doc.ID,
		"status", doc.Status,
		"confidence", doc.Match.Confidence,
	)

	if doc.Status == StatusAutoMatched {
		recordID, _ := doc.matchedRecord()
		s.syncLedger(wctx, doc, nil, &recordID, nil)
	}

	return nil
}

// route applies the matcher decision to doc and returns the audit event describing it.
func (s *Service) route(ctx context.Context, doc *Document, fields extraction.Fields) (Event, string) {
	doc.Status = StatusPendingReview
	doc.Match = Match{}

	if fields.Sparse() {
		return EventRoutedToReview, "sparse extraction: no tax id and no value"
	}

	records, err := s.ledger.ListOpenRecords(ctx, doc.TenantID, ledger.ListFilter{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list open records", "document_id", doc.ID, "error", err)
		return EventRoutedToReview, "ledger unavailable: " + err.Error()
	}

	decision, top := matching.Decide(matching.FindCandidates(doc.TenantID, fields, records))
	if top == nil {
		return EventRoutedToReview, "no candidates"
	}

	recordID := top.Record.ID

	switch decision {
	case matching.DecisionAutoMatch:
		now := doc.UpdatedAt
		doc.Status = StatusAutoMatched
		doc.Match = Match{FinancialRecordID: &recordID, Confidence: top.Confidence, Basis: top.Score.Basis()}
		doc.JobID = top.Record.JobID
		doc.ResolvedAt = &now

		return EventAutoMatched, fmt.Sprintf("confidence %.4f", top.Confidence)
	case matching.DecisionSuggest:
		doc.Match = Match{FinancialRecordID: &recordID, Confidence: top.Confidence, Basis: top.Score.Basis()}

		return EventRoutedToReview, fmt.Sprintf("suggested record %s, confidence %.4f", recordID, top.Confidence)
	}

	doc.Match.Confidence = top.Confidence

	return EventRoutedToReview, fmt.Sprintf("best confidence %.4f below suggestion threshold", top.Confidence)
}

// syncLedger writes the link status back to the ledger. Failures are logged and
// audited; the document transition that caused them stands.
func (s *Service) syncLedger(ctx context.Context, doc *Document, actor *string, link, unlink *uuid.UUID) {
	fail := func(recordID uuid.UUID, err error) {
		slog.ErrorContext(ctx, "failed to sync ledger",
			"document_id", doc.ID, "financial_record_id", recordID, "error", err)

		entry := newEntry(doc, EventLedgerSyncFailed, actor, doc.Status, s.now().UTC())
		entry.FinancialRecordID = &recordID
		entry.Detail = err.Error()

		if err := s.repo.AppendAudit(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "failed to append audit entry", "document_id", doc.ID, "error", err)
		}
	}

	if unlink != nil {
		if err := s.ledger.MarkUnlinked(ctx, doc.TenantID, *unlink, doc.ID); err != nil {
			fail(*unlink, err)
		}
	}

	if link != nil {
		if err := s.ledger.MarkLinked(ctx, doc.TenantID, *link, doc.ID); err != nil {
			fail(*link, err)
		}
	}
}

func (s *Service) publishResolved(ctx context.Context, doc *Document, event Event) {
	recordID, ok := doc.matchedRecord()
	if !ok || doc.ResolvedAt == nil {
		return
	}

	var resolvedBy string
	if doc.ResolvedBy != nil {
		resolvedBy = *doc.ResolvedBy
	}

	err := s.publisher.PublishResolved(ctx, events.Resolved{
		TenantID:          doc.TenantID,
		DocumentID:        doc.ID,
		FinancialRecordID: recordID,
		ResolvedBy:        resolvedBy,
		Event:             string(event),
		ResolvedAt:        *doc.ResolvedAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to publish resolved event", "document_id", doc.ID, "error", err)
	}
}

// auditFailure records a rejected operation on an existing document and returns err.
func (s *Service) auditFailure(ctx context.Context, doc *Document, actor *string, err error) error {
	entry := newEntry(doc, EventTransitionFailed, actor, doc.Status, s.now().UTC())
	entry.Detail = err.Error()

	if aerr := s.repo.AppendAudit(context.WithoutCancel(ctx), entry); aerr != nil {
		slog.ErrorContext(ctx, "failed to append audit entry", "document_id", doc.ID, "error", aerr)
	}

	return err
}

func (s *Service) release(ctx context.Context, tenantID uuid.UUID, fp string) {
	if err := s.fingerprints.Release(context.WithoutCancel(ctx), tenantID, fp); err != nil {
		slog.ErrorContext(ctx, "failed to release fingerprint", "tenant_id", tenantID, "error", err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func blobKey(tenantID, id uuid.UUID, fileName string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}

		return '_'
	}, fileName)

	return fmt.Sprintf("%s/%s/%s", tenantID, id, safe)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}
