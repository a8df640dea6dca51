package extraction

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	time.RFC3339,
}

// NormalizeTaxID keeps only the digits of a tax id ("12.345.678/0001-99" -> "12345678000199").
func NormalizeTaxID(s string) string {
	var sb strings.Builder

	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// parseValue accepts "1234.56", "1.234,56", "1,234.56" and "R$ 1.234,56". A lone comma is
// always the decimal separator.
// Non-positive values are treated as missing.
func parseValue(s string) *decimal.Decimal {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			return r
		}

		return -1
	}, s)
	if clean == "" {
		return nil
	}

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")

	switch {
	case lastComma < 0 && lastDot >= 0 && (strings.Count(clean, ".") > 1 || len(clean)-lastDot-1 == 3):
		// Only dots, grouped in thousands: "1.500" or "1.234.567".
		clean = strings.ReplaceAll(clean, ".", "")
	case lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case lastDot > lastComma:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil || !d.IsPositive() {
		return nil
	}

	d = d.Round(2)

	return &d
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}

		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

		return &d
	}

	return nil
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}

	if f > 1 {
		return 1
	}

	return f
}

// normalize validates raw collaborator output into Fields. It never fails:
// anything unparseable is dropped.
func normalize(raw *RawFields) Fields {
	if raw == nil {
		return Fields{}
	}

	f := Fields{
		IssuerName:    strings.Join(strings.Fields(raw.IssuerName), " "),
		IssuerTaxID:   NormalizeTaxID(raw.IssuerTaxID),
		InvoiceNumber: strings.TrimSpace(raw.InvoiceNumber),
		Value:         parseValue(string(raw.Value)),
		IssueDate:     parseDate(raw.IssueDate),
		Period:        strings.TrimSpace(raw.Period),
		Confidence:    clamp01(raw.Confidence),
	}

	// Brazilian tax ids are CPF (11 digits) or CNPJ (14 digits).
	if n := len(f.IssuerTaxID); n != 11 && n != 14 {
		f.IssuerTaxID = ""
	}

	return f
}
