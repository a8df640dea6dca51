package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger/memory"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	job := uuid.New()

	march := ledger.Record{
		ID:                uuid.New(),
		TenantID:          tenant,
		CounterpartyName:  "Gráfica Aurora",
		CounterpartyTaxID: "12345678000199",
		DueDate:           time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		JobID:             &job,
		NFStatus:          ledger.NFStatusPending,
	}
	april := ledger.Record{
		ID:               uuid.New(),
		TenantID:         tenant,
		CounterpartyName: "Papelaria Central",
		DueDate:          time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
		NFStatus:         ledger.NFStatusRequested,
	}
	other := ledger.Record{ID: uuid.New(), TenantID: uuid.New(), NFStatus: ledger.NFStatusPending}

	s := memory.New(april, march, other)

	all, err := s.ListOpenRecords(ctx, tenant, ledger.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, march.ID, all[0].ID)

	byName, err := s.ListOpenRecords(ctx, tenant, ledger.ListFilter{Query: "aurora"})
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byJob, err := s.ListOpenRecords(ctx, tenant, ledger.ListFilter{JobID: &job})
	require.NoError(t, err)
	require.Len(t, byJob, 1)

	_, err = s.GetRecord(ctx, tenant, other.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	doc := uuid.New()
	require.NoError(t, s.MarkLinked(ctx, tenant, march.ID, doc))

	got, err := s.GetRecord(ctx, tenant, march.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.NFStatusReceived, got.NFStatus)
	assert.Equal(t, &doc, got.DocumentID)

	open, err := s.ListOpenRecords(ctx, tenant, ledger.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, s.MarkUnlinked(ctx, tenant, march.ID, uuid.New()))

	got, err = s.GetRecord(ctx, tenant, march.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.NFStatusReceived, got.NFStatus, "a stale holder must not reopen the record")

	require.NoError(t, s.MarkUnlinked(ctx, tenant, march.ID, doc))

	got, err = s.GetRecord(ctx, tenant, march.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.NFStatusPending, got.NFStatus)
	assert.Nil(t, got.DocumentID)
}
