// Package memory is an in-process ledger used by the memory store driver and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
)

type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]ledger.Record
}

func New(records ...ledger.Record) *Store {
	s := &Store{records: make(map[uuid.UUID]ledger.Record, len(records))}

	for _, r := range records {
		s.records[r.ID] = r
	}

	return s
}

func (s *Store) ListOpenRecords(_ context.Context, tenantID uuid.UUID, filter ledger.ListFilter) ([]ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))

	var out []ledger.Record

	for _, r := range s.records {
		switch {
		case r.TenantID != tenantID, !r.NFStatus.Open():
			continue
		case q != "" && !strings.Contains(strings.ToLower(r.CounterpartyName), q) && !strings.Contains(r.CounterpartyTaxID, q):
			continue
		case filter.JobID != nil && (r.JobID == nil || *r.JobID != *filter.JobID):
			continue
		case filter.DueFrom != nil && r.DueDate.Before(*filter.DueFrom):
			continue
		case filter.DueTo != nil && r.DueDate.After(*filter.DueTo):
			continue
		}

		out = append(out, r)
	}

	slices.SortFunc(out, func(a, b ledger.Record) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}

		return strings.Compare(a.ID.String(), b.ID.String())
	})

	return out, nil
}

func (s *Store) GetRecord(_ context.Context, tenantID, id uuid.UUID) (*ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.TenantID != tenantID {
		return nil, ledger.ErrNotFound
	}

	return &r, nil
}

func (s *Store) MarkLinked(_ context.Context, tenantID, recordID, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[recordID]
	if !ok || r.TenantID != tenantID {
		return ledger.ErrNotFound
	}

	r.NFStatus = ledger.NFStatusReceived
	r.DocumentID = &documentID
	s.records[recordID] = r

	return nil
}

func (s *Store) MarkUnlinked(_ context.Context, tenantID, recordID, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[recordID]
	if !ok || r.TenantID != tenantID || r.DocumentID == nil || *r.DocumentID != documentID {
		return nil
	}

	r.NFStatus = ledger.NFStatusPending
	r.DocumentID = nil
	s.records[recordID] = r

	return nil
}

// Put adds or replaces a record.
func (s *Store) Put(r ledger.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.ID] = r
}
