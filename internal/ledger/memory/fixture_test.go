package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger/memory"
)

func TestLoadFile(t *testing.T) {
	records, err := memory.LoadFile("testdata/ledger.json")
	require.NoError(t, err)
	require.Len(t, records, 2)

	aurora := records[0]
	assert.Equal(t, "Gráfica Aurora LTDA", aurora.CounterpartyName)
	assert.Equal(t, "1000", aurora.Amount.String())
	assert.Equal(t, "2026-03-10", aurora.DueDate.Format("2006-01-02"))
	assert.Equal(t, ledger.NFStatusPending, aurora.NFStatus)
	require.NotNil(t, aurora.JobID)

	assert.Equal(t, ledger.NFStatusRequested, records[1].NFStatus)
	assert.Nil(t, records[1].JobID)

	store := memory.New(records...)
	open, err := store.ListOpenRecords(context.Background(), aurora.TenantID, ledger.ListFilter{Query: "serra"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, records[1].ID, open[0].ID)
}

func TestLoad_Invalid(t *testing.T) {
	id, tenant := uuid.NewString(), uuid.NewString()

	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: `{`},
		{name: "missing tenant", input: `[{"id":"` + id + `","amount":"1","due_date":"2026-01-01"}]`},
		{name: "bad date", input: `[{"id":"` + id + `","tenant_id":"` + tenant + `","amount":"1","due_date":"10/01/2026"}]`},
		{name: "already received", input: `[{"id":"` + id + `","tenant_id":"` + tenant + `","amount":"1","due_date":"2026-01-01","nf_status":"received"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := memory.Load(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
