package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("financial record not found")

// NFStatus tracks whether a financial record still expects an invoice.
type NFStatus string

const (
	NFStatusPending   NFStatus = "pending"
	NFStatusRequested NFStatus = "requested"
	NFStatusReceived  NFStatus = "received"
)

// Open reports whether the record is still waiting for an invoice.
func (s NFStatus) Open() bool {
	return s != NFStatusReceived
}

// Record is an expected payment or expense owned by the ledger.
type Record struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	CounterpartyName  string
	CounterpartyTaxID string
	Amount            decimal.Decimal
	DueDate           time.Time
	JobID             *uuid.UUID
	NFStatus          NFStatus
	DocumentID        *uuid.UUID
}

type ListFilter struct {
	Query   string
	JobID   *uuid.UUID
	DueFrom *time.Time
	DueTo   *time.Time
}
