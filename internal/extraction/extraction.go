package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when the OCR collaborator fails or times out.
// Callers may retry the same document later.
var ErrUnavailable = errors.New("extraction unavailable")

// RawFields is the collaborator's best-effort output. Every field is optional and untrusted.
type RawFields struct {
	IssuerName    string  `json:"issuer_name"`
	IssuerTaxID   string  `json:"issuer_tax_id"`
	InvoiceNumber string  `json:"invoice_number"`
	Value         Text    `json:"value"`
	IssueDate     string  `json:"issue_date"`
	Period        string  `json:"period"`
	Confidence    float64 `json:"confidence"`
}

// Text decodes a JSON string or number as its literal text; collaborators disagree
// on how to encode amounts.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		*t = Text(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}

	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return err
	}

	// Fixed two decimals keeps numeric amounts out of the thousands-separator heuristic.
	*t = Text(d.StringFixed(2))

	return nil
}

// Fields is the engine's validated view of an extraction.
type Fields struct {
	IssuerName    string
	IssuerTaxID   string // digits only
	InvoiceNumber string
	Value         *decimal.Decimal
	IssueDate     *time.Time
	Period        string
	Confidence    float64
}

// Sparse reports whether the fields lack both anchor signals (tax id and value),
// in which case matching is not attempted.
func (f Fields) Sparse() bool {
	return f.IssuerTaxID == "" && f.Value == nil
}

// Client is the external OCR collaborator.
type Client interface {
	Extract(ctx context.Context, content []byte, contentType string) (*RawFields, error)
}
