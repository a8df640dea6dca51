// Package memory is an in-process document repository, used for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
)

type Store struct {
	mu    sync.RWMutex
	docs  map[uuid.UUID]*document.Document
	audit []document.AuditEntry
}

func New() *Store {
	return &Store{docs: make(map[uuid.UUID]*document.Document)}
}

func (s *Store) Create(_ context.Context, doc *document.Document, entry *document.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.docs {
		if d.TenantID == doc.TenantID && d.DeletedAt == nil && d.Source.Fingerprint == doc.Source.Fingerprint {
			return &document.DuplicateError{DocumentID: d.ID}
		}
	}

	doc.Version = 1
	s.docs[doc.ID] = clone(doc)
	s.appendAudit(entry)

	return nil
}

func (s *Store) Get(_ context.Context, tenantID, id uuid.UUID) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok || d.TenantID != tenantID || d.DeletedAt != nil {
		return nil, document.ErrNotFound
	}

	return clone(d), nil
}

func (s *Store) Update(_ context.Context, doc *document.Document, entry *document.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.docs[doc.ID]
	if !ok || stored.TenantID != doc.TenantID || stored.DeletedAt != nil {
		return document.ErrNotFound
	}

	if stored.Version != doc.Version {
		return document.ErrStale
	}

	if recordID := doc.Match.FinancialRecordID; doc.Status == document.StatusConfirmed && doc.DeletedAt == nil && recordID != nil {
		if holder := s.confirmedHolder(doc.TenantID, *recordID); holder != nil && holder.ID != doc.ID {
			return document.ErrAlreadyLinked
		}
	}

	doc.Version++
	s.docs[doc.ID] = clone(doc)
	s.appendAudit(entry)

	return nil
}

func (s *Store) FindConfirmedByRecord(_ context.Context, tenantID, recordID uuid.UUID) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d := s.confirmedHolder(tenantID, recordID); d != nil {
		return clone(d), nil
	}

	return nil, document.ErrNotFound
}

func (s *Store) AppendAudit(_ context.Context, entry *document.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendAudit(entry)

	return nil
}

func (s *Store) AuditTrail(_ context.Context, tenantID, documentID uuid.UUID) ([]document.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var trail []document.AuditEntry

	for _, e := range s.audit {
		if e.TenantID == tenantID && e.DocumentID == documentID {
			trail = append(trail, e)
		}
	}

	return trail, nil
}

func (s *Store) List(_ context.Context, tenantID uuid.UUID, filter document.ListFilter) (*document.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))

	var matched []*document.Document

	for _, d := range s.docs {
		if d.TenantID != tenantID || d.DeletedAt != nil {
			continue
		}

		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}

		if query != "" && !matches(d, query) {
			continue
		}

		matched = append(matched, d)
	}

	slices.SortFunc(matched, func(a, b *document.Document) int {
		if c := b.Source.ReceivedAt.Compare(a.Source.ReceivedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	page := &document.Page{Total: len(matched), Items: []*document.Document{}}

	start := min(filter.Offset, len(matched))
	end := len(matched)

	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}

	for _, d := range matched[start:end] {
		page.Items = append(page.Items, clone(d))
	}

	return page, nil
}

func (s *Store) Stats(_ context.Context, tenantID uuid.UUID, monthStart, monthEnd time.Time) (*document.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st document.Stats

	inMonth := func(d *document.Document) bool {
		return d.ResolvedAt != nil && !d.ResolvedAt.Before(monthStart) && d.ResolvedAt.Before(monthEnd)
	}

	for _, d := range s.docs {
		if d.TenantID != tenantID || d.DeletedAt != nil {
			continue
		}

		switch d.Status {
		case document.StatusProcessing:
			st.Processing++
		case document.StatusPendingReview:
			st.PendingReview++
		case document.StatusAutoMatched:
			st.AutoMatched++
		case document.StatusConfirmed:
			st.Confirmed++
			if inMonth(d) {
				st.ConfirmedThisMonth++
			}
		case document.StatusRejected:
			st.Rejected++
			if inMonth(d) {
				st.RejectedThisMonth++
			}
		}
	}

	return &st, nil
}

func (s *Store) confirmedHolder(tenantID, recordID uuid.UUID) *document.Document {
	for _, d := range s.docs {
		if d.TenantID == tenantID && d.DeletedAt == nil && d.Status == document.StatusConfirmed &&
			d.Match.FinancialRecordID != nil && *d.Match.FinancialRecordID == recordID {
			return d
		}
	}

	return nil
}

func (s *Store) appendAudit(entry *document.AuditEntry) {
	if entry == nil {
		return
	}

	s.audit = append(s.audit, *entry)
}

func matches(d *document.Document, query string) bool {
	fields := []string{d.Source.FileName}

	if d.Extracted != nil {
		fields = append(fields, d.Extracted.IssuerName, d.Extracted.IssuerTaxID, d.Extracted.InvoiceNumber)
	}

	if d.Confirmed != nil {
		fields = append(fields, d.Confirmed.IssuerName, d.Confirmed.IssuerTaxID, d.Confirmed.InvoiceNumber)
	}

	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}

	return false
}

func clone(d *document.Document) *document.Document {
	c := *d

	if d.Extracted != nil {
		ex := *d.Extracted
		c.Extracted = &ex
	}

	if d.Confirmed != nil {
		f := *d.Confirmed
		c.Confirmed = &f
	}

	c.Match.Basis = slices.Clone(d.Match.Basis)

	return &c
}
