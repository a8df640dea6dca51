package document

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type ListFilter struct {
	Status *Status
	// Query matches file name, issuer name, tax id or invoice number.
	Query  string
	Limit  int
	Offset int
}

type Page struct {
	Items []*Document
	Total int
}

// Stats are review-queue counters, computed on read.
type Stats struct {
	Processing         int `json:"processing"`
	PendingReview      int `json:"pending_review"`
	AutoMatched        int `json:"auto_matched"`
	Confirmed          int `json:"confirmed"`
	Rejected           int `json:"rejected"`
	ConfirmedThisMonth int `json:"confirmed_this_month"`
	RejectedThisMonth  int `json:"rejected_this_month"`
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Document, error) {
	doc, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*Page, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", *filter.Status)}
	}

	if filter.Offset < 0 {
		return nil, &ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}

	page, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return page, nil
}

func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats, err := s.repo.Stats(ctx, tenantID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	return stats, nil
}

func (s *Service) AuditTrail(ctx context.Context, tenantID, id uuid.UUID) ([]AuditEntry, error) {
	if _, err := s.repo.Get(ctx, tenantID, id); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	trail, err := s.repo.AuditTrail(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get audit trail: %w", err)
	}

	return trail, nil
}

// Candidates scores the open ledger against the document's extraction on demand, for
// reviewers choosing a record by hand. Documents without usable extraction have none.
func (s *Service) Candidates(ctx context.Context, tenantID, id uuid.UUID) ([]matching.Candidate, error) {
	doc, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	if doc.Extracted == nil || doc.Extracted.Sparse() {
		return nil, nil
	}

	records, err := s.ledger.ListOpenRecords(ctx, tenantID, ledger.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list open records: %w", err)
	}

	return matching.FindCandidates(tenantID, doc.Extracted.Fields, records), nil
}
