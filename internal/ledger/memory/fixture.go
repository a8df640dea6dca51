package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
)

type fixtureRecord struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	CounterpartyName  string          `json:"counterparty_name"`
	CounterpartyTaxID string          `json:"counterparty_tax_id"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           string          `json:"due_date"`
	JobID             *uuid.UUID      `json:"job_id"`
	NFStatus          ledger.NFStatus `json:"nf_status"`
}

// Load reads a JSON array of financial records. Records without an nf_status
// start as pending.
func Load(r io.Reader) ([]ledger.Record, error) {
	var raw []fixtureRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding ledger fixture: %w", err)
	}

	records := make([]ledger.Record, 0, len(raw))

	for i, f := range raw {
		if f.ID == uuid.Nil || f.TenantID == uuid.Nil {
			return nil, fmt.Errorf("ledger fixture record %d: id and tenant_id are required", i)
		}

		due, err := time.Parse(time.DateOnly, f.DueDate)
		if err != nil {
			return nil, fmt.Errorf("ledger fixture record %d: parsing due_date: %w", i, err)
		}

		status := f.NFStatus
		switch status {
		case "":
			status = ledger.NFStatusPending
		case ledger.NFStatusPending, ledger.NFStatusRequested:
		default:
			return nil, fmt.Errorf("ledger fixture record %d: nf_status %q must be pending or requested", i, status)
		}

		records = append(records, ledger.Record{
			ID:                f.ID,
			TenantID:          f.TenantID,
			CounterpartyName:  f.CounterpartyName,
			CounterpartyTaxID: f.CounterpartyTaxID,
			Amount:            f.Amount,
			DueDate:           due,
			JobID:             f.JobID,
			NFStatus:          status,
		})
	}

	return records, nil
}

// LoadFile is Load over the file at path.
func LoadFile(path string) ([]ledger.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger fixture: %w", err)
	}
	defer f.Close()

	return Load(f)
}
