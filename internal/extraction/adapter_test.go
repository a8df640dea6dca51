package extraction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
)

type clientFunc func(ctx context.Context, content []byte, contentType string) (*extraction.RawFields, error)

func (f clientFunc) Extract(ctx context.Context, content []byte, contentType string) (*extraction.RawFields, error) {
	return f(ctx, content, contentType)
}

func staticClient(raw *extraction.RawFields) extraction.Client {
	return clientFunc(func(context.Context, []byte, string) (*extraction.RawFields, error) {
		return raw, nil
	})
}

func TestAdapter_Extract_Normalizes(t *testing.T) {
	adapter := extraction.NewAdapter(staticClient(&extraction.RawFields{
		IssuerName:    "  Gráfica   Aurora  LTDA ",
		IssuerTaxID:   "12.345.678/0001-99",
		InvoiceNumber: " 000123 ",
		Value:         "R$ 1.234,56",
		IssueDate:     "15/03/2026",
		Period:        "03/2026",
		Confidence:    0.92,
	}), time.Second)

	got, err := adapter.Extract(context.Background(), []byte("pdf"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "Gráfica Aurora LTDA", got.IssuerName)
	assert.Equal(t, "12345678000199", got.IssuerTaxID)
	assert.Equal(t, "000123", got.InvoiceNumber)
	require.NotNil(t, got.Value)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(*got.Value))
	require.NotNil(t, got.IssueDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *got.IssueDate)
	assert.Equal(t, "03/2026", got.Period)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	assert.False(t, got.Sparse())
}

func TestAdapter_Extract_QualityGate(t *testing.T) {
	type testCase struct {
		name       string
		raw        *extraction.RawFields
		wantSparse bool
	}

	tests := []testCase{
		{
			name:       "NoTaxIDNoValue",
			raw:        &extraction.RawFields{IssuerName: "Aurora", InvoiceNumber: "1", Confidence: 0.8},
			wantSparse: true,
		},
		{
			name:       "InvalidTaxIDAndZeroValue",
			raw:        &extraction.RawFields{IssuerTaxID: "123", Value: "0,00", Confidence: 0.8},
			wantSparse: true,
		},
		{
			name:       "NilResponse",
			raw:        nil,
			wantSparse: true,
		},
		{
			name:       "ValueOnly",
			raw:        &extraction.RawFields{Value: "10.00", Confidence: 0.5},
			wantSparse: false,
		},
		{
			name:       "TaxIDOnly",
			raw:        &extraction.RawFields{IssuerTaxID: "123.456.789-09", Confidence: 0.5},
			wantSparse: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := extraction.NewAdapter(staticClient(tt.raw), time.Second)

			got, err := adapter.Extract(context.Background(), nil, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSparse, got.Sparse())

			if tt.wantSparse {
				assert.Zero(t, got.Confidence)
			}
		})
	}
}

func TestAdapter_Extract_ValueFormats(t *testing.T) {
	tests := map[string]string{
		"1234.56":     "1234.56",
		"1.234,56":    "1234.56",
		"1,234.56":    "1234.56",
		"1.500":       "1500",
		"1.234.567,8": "1234567.8",
		"R$ 1.000,00": "1000",
		"99,9":        "99.9",
		"USD 12.5":    "12.5",
		"  250  ":     "250",
		"10.4449":     "10.44",
		"1.000.000":   "1000000",
		"15,499":      "15.5",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			adapter := extraction.NewAdapter(staticClient(&extraction.RawFields{Value: extraction.Text(in)}), 0)

			got, err := adapter.Extract(context.Background(), nil, "")
			require.NoError(t, err)
			require.NotNil(t, got.Value)
			assert.True(t, decimal.RequireFromString(want).Equal(*got.Value), "got %s", got.Value)
		})
	}
}

func TestAdapter_Extract_ClientError(t *testing.T) {
	adapter := extraction.NewAdapter(clientFunc(func(context.Context, []byte, string) (*extraction.RawFields, error) {
		return nil, errors.New("connection refused")
	}), time.Second)

	_, err := adapter.Extract(context.Background(), nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, extraction.ErrUnavailable)
}

func TestAdapter_Extract_Timeout(t *testing.T) {
	adapter := extraction.NewAdapter(clientFunc(func(ctx context.Context, _ []byte, _ string) (*extraction.RawFields, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 10*time.Millisecond)

	_, err := adapter.Extract(context.Background(), nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, extraction.ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNormalizeTaxID(t *testing.T) {
	assert.Equal(t, "12345678000199", extraction.NormalizeTaxID("12.345.678/0001-99"))
	assert.Equal(t, "", extraction.NormalizeTaxID("n/a"))
}
