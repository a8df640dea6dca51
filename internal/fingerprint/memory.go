package fingerprint

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type key struct {
	TenantID    uuid.UUID
	Fingerprint string
}

// Memory is an in-process Registry for tests and single-instance development.
type Memory struct {
	mu       sync.Mutex
	reserved map[key]uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{reserved: make(map[key]uuid.UUID)}
}

func (m *Memory) Reserve(_ context.Context, tenantID uuid.UUID, fingerprint string, documentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{TenantID: tenantID, Fingerprint: fingerprint}
	if holder, ok := m.reserved[k]; ok {
		return &ReservedError{DocumentID: holder}
	}

	m.reserved[k] = documentID

	return nil
}

func (m *Memory) Release(_ context.Context, tenantID uuid.UUID, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.reserved, key{TenantID: tenantID, Fingerprint: fingerprint})

	return nil
}
