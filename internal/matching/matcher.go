// Package matching scores open ledger entries against extracted invoice fields.
//
// FindCandidates is pure: identical inputs always give the same ordered output, so it is
// safe to call concurrently and speculatively.
package matching

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
)

const (
	WeightTaxID      = 0.45
	WeightValue      = 0.30
	WeightDate       = 0.15
	WeightIssuerName = 0.10

	// AutoMatchThreshold is the aggregate at or above which a match resolves without review.
	AutoMatchThreshold = 0.85
	// SuggestThreshold is the aggregate at or above which the top candidate is suggested.
	SuggestThreshold = 0.40
)

const (
	valueFullRatio = 0.005
	valueZeroRatio = 0.05

	dateFullDays = 3
	dateZeroDays = 30
)

// Signal names a score component that contributed to a match.
type Signal string

const (
	SignalTaxID      Signal = "tax_id"
	SignalValue      Signal = "value"
	SignalDate       Signal = "date"
	SignalIssuerName Signal = "issuer_name"
	// SignalManual marks a target chosen by a reviewer rather than scored.
	SignalManual Signal = "manual"
)

// Score is the decomposed match score; each component is in [0,1].
type Score struct {
	TaxID      float64
	Value      float64
	Date       float64
	IssuerName float64
}

// Aggregate is the weighted sum, rounded to four decimals.
func (s Score) Aggregate() float64 {
	sum := s.TaxID*WeightTaxID + s.Value*WeightValue + s.Date*WeightDate + s.IssuerName*WeightIssuerName
	return math.Round(sum*1e4) / 1e4
}

// Basis lists the signals with a non-zero component.
func (s Score) Basis() []Signal {
	var basis []Signal

	if s.TaxID > 0 {
		basis = append(basis, SignalTaxID)
	}

	if s.Value > 0 {
		basis = append(basis, SignalValue)
	}

	if s.Date > 0 {
		basis = append(basis, SignalDate)
	}

	if s.IssuerName > 0 {
		basis = append(basis, SignalIssuerName)
	}

	return basis
}

// Candidate is an ephemeral scored ledger entry.
type Candidate struct {
	Record     ledger.Record
	Score      Score
	Confidence float64

	// ValueDiff is |extracted value - amount|; nil when the document has no value.
	ValueDiff *decimal.Decimal
	// DateDiffDays is |issue date - due date| in days; -1 when the document has no date.
	DateDiffDays int
}

// Decision is what the lifecycle does with the top candidate.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionSuggest
	DecisionAutoMatch
)

func (d Decision) String() string {
	switch d {
	case DecisionAutoMatch:
		return "auto_match"
	case DecisionSuggest:
		return "suggest"
	}

	return "none"
}

// Decide applies the threshold rule to the most confident candidate.
func Decide(candidates []Candidate) (Decision, *Candidate) {
	if len(candidates) == 0 {
		return DecisionNone, nil
	}

	top := &candidates[0]

	switch {
	case top.Confidence >= AutoMatchThreshold:
		return DecisionAutoMatch, top
	case top.Confidence >= SuggestThreshold:
		return DecisionSuggest, top
	}

	return DecisionNone, top
}

// FindCandidates scores every tenant entry against the fields and returns plausible
// candidates, most confident first. Entries with neither a tax-id nor a value signal
// are discarded.
func FindCandidates(tenantID uuid.UUID, fields extraction.Fields, entries []ledger.Record) []Candidate {
	issuerTokens := nameTokens(fields.IssuerName)
	taxID := extraction.NormalizeTaxID(fields.IssuerTaxID)

	var candidates []Candidate

	for _, entry := range entries {
		if entry.TenantID != tenantID {
			continue
		}

		c := Candidate{Record: entry, DateDiffDays: -1}

		if taxID != "" && taxID == extraction.NormalizeTaxID(entry.CounterpartyTaxID) {
			c.Score.TaxID = 1
		}

		if fields.Value != nil {
			diff := fields.Value.Sub(entry.Amount).Abs()
			c.ValueDiff = &diff
			c.Score.Value = valueScore(diff, entry.Amount)
		}

		if c.Score.TaxID == 0 && c.Score.Value == 0 {
			continue
		}

		if fields.IssueDate != nil {
			c.DateDiffDays = daysBetween(*fields.IssueDate, entry.DueDate)
			c.Score.Date = dateScore(c.DateDiffDays)
		}

		c.Score.IssuerName = tokenOverlap(issuerTokens, nameTokens(entry.CounterpartyName))
		c.Confidence = c.Score.Aggregate()

		candidates = append(candidates, c)
	}

	slices.SortFunc(candidates, compareCandidates)

	return candidates
}

func compareCandidates(a, b Candidate) int {
	if a.Confidence != b.Confidence {
		if a.Confidence > b.Confidence {
			return -1
		}

		return 1
	}

	if c := compareValueDiff(a.ValueDiff, b.ValueDiff); c != 0 {
		return c
	}

	if c := compareDateDiff(a.DateDiffDays, b.DateDiffDays); c != 0 {
		return c
	}

	return strings.Compare(a.Record.ID.String(), b.Record.ID.String())
}

// Unknown differences sort after known ones.
func compareValueDiff(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	return a.Cmp(*b)
}

func compareDateDiff(a, b int) int {
	switch {
	case a == b:
		return 0
	case a < 0:
		return 1
	case b < 0:
		return -1
	case a < b:
		return -1
	}

	return 1
}

// valueScore is 1 within 0.5% relative difference, decaying linearly to 0 at 5%.
func valueScore(diff, amount decimal.Decimal) float64 {
	if amount.IsZero() {
		if diff.IsZero() {
			return 1
		}

		return 0
	}

	ratio, _ := diff.Div(amount.Abs()).Float64()

	switch {
	case ratio <= valueFullRatio:
		return 1
	case ratio >= valueZeroRatio:
		return 0
	}

	return (valueZeroRatio - ratio) / (valueZeroRatio - valueFullRatio)
}

// dateScore is 1 within ±3 days, decaying linearly to 0 at ±30 days.
func dateScore(days int) float64 {
	switch {
	case days <= dateFullDays:
		return 1
	case days >= dateZeroDays:
		return 0
	}

	return float64(dateZeroDays-days) / float64(dateZeroDays-dateFullDays)
}

func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	days := int(da.Sub(db).Hours() / 24)
	if days < 0 {
		days = -days
	}

	return days
}
