package matching_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

var tenant = uuid.MustParse("8d7f0c8e-1111-4a5b-9c3d-000000000001")

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func record(taxID, name, amount string, due time.Time) ledger.Record {
	return ledger.Record{
		ID:                uuid.New(),
		TenantID:          tenant,
		CounterpartyName:  name,
		CounterpartyTaxID: taxID,
		Amount:            decimal.RequireFromString(amount),
		DueDate:           due,
		NFStatus:          ledger.NFStatusPending,
	}
}

func TestFindCandidates_ExactMatch(t *testing.T) {
	issued := day(2026, 3, 10)
	fields := extraction.Fields{
		IssuerName:  "Gráfica Aurora LTDA",
		IssuerTaxID: "12.345.678/0001-99",
		Value:       money("1000.00"),
		IssueDate:   &issued,
	}

	entry := record("12345678000199", "GRAFICA AURORA", "1000.00", issued)

	got := matching.FindCandidates(tenant, fields, []ledger.Record{entry})
	require.Len(t, got, 1)

	assert.Equal(t, entry.ID, got[0].Record.ID)
	assert.InDelta(t, 1.0, got[0].Confidence, 1e-9)
	assert.Equal(t, []matching.Signal{
		matching.SignalTaxID, matching.SignalValue, matching.SignalDate, matching.SignalIssuerName,
	}, got[0].Score.Basis())

	decision, top := matching.Decide(got)
	assert.Equal(t, matching.DecisionAutoMatch, decision)
	assert.Equal(t, entry.ID, top.Record.ID)
}

func TestFindCandidates_ExactMatchWithoutName(t *testing.T) {
	issued := day(2026, 3, 10)
	fields := extraction.Fields{IssuerTaxID: "12345678000199", Value: money("1000.00"), IssueDate: &issued}

	got := matching.FindCandidates(tenant, fields, []ledger.Record{record("12345678000199", "", "1000.00", issued)})
	require.Len(t, got, 1)
	assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)

	decision, _ := matching.Decide(got)
	assert.Equal(t, matching.DecisionAutoMatch, decision)
}

func TestFindCandidates_Components(t *testing.T) {
	due := day(2026, 3, 10)

	type testCase struct {
		name      string
		fields    extraction.Fields
		entry     ledger.Record
		wantScore matching.Score
		wantFound bool
	}

	tests := []testCase{
		{
			name:      "ValueWithinHalfPercent",
			fields:    extraction.Fields{Value: money("1004.00")},
			entry:     record("", "", "1000.00", due),
			wantScore: matching.Score{Value: 1},
			wantFound: true,
		},
		{
			name:      "ValueMidDecay",
			fields:    extraction.Fields{Value: money("1027.50")},
			entry:     record("", "", "1000.00", due),
			wantScore: matching.Score{Value: 0.5},
			wantFound: true,
		},
		{
			name:      "ValueBeyondFivePercentDiscarded",
			fields:    extraction.Fields{Value: money("1050.00")},
			entry:     record("", "", "1000.00", due),
			wantFound: false,
		},
		{
			name:      "TaxIDOnlyKeepsCandidate",
			fields:    extraction.Fields{IssuerTaxID: "12345678000199", Value: money("5000")},
			entry:     record("12.345.678/0001-99", "", "1000.00", due),
			wantScore: matching.Score{TaxID: 1},
			wantFound: true,
		},
		{
			name:      "DateWithinThreeDays",
			fields:    extraction.Fields{Value: money("1000"), IssueDate: new(day(2026, 3, 13))},
			entry:     record("", "", "1000.00", due),
			wantScore: matching.Score{Value: 1, Date: 1},
			wantFound: true,
		},
		{
			name:      "DateMidDecay",
			fields:    extraction.Fields{Value: money("1000"), IssueDate: new(day(2026, 3, 26))},
			entry:     record("", "", "1000.00", day(2026, 3, 10)),
			wantScore: matching.Score{Value: 1, Date: float64(30-16) / 27},
			wantFound: true,
		},
		{
			name:      "DateBeyondThirtyDays",
			fields:    extraction.Fields{Value: money("1000"), IssueDate: new(day(2026, 1, 1))},
			entry:     record("", "", "1000.00", due),
			wantScore: matching.Score{Value: 1},
			wantFound: true,
		},
		{
			name:      "NameDiacriticsInsensitive",
			fields:    extraction.Fields{Value: money("1000"), IssuerName: "São João Serviços"},
			entry:     record("", "SAO JOAO SERVICOS ME", "1000.00", due),
			wantScore: matching.Score{Value: 1, IssuerName: 1},
			wantFound: true,
		},
		{
			name:      "NamePartialOverlap",
			fields:    extraction.Fields{Value: money("1000"), IssuerName: "Aurora Impressos"},
			entry:     record("", "Aurora Grafica", "1000.00", due),
			wantScore: matching.Score{Value: 1, IssuerName: 1.0 / 3},
			wantFound: true,
		},
		{
			name:      "NoAnchorDiscarded",
			fields:    extraction.Fields{IssuerName: "Aurora", IssueDate: new(due)},
			entry:     record("99999999000199", "Aurora", "1000.00", due),
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matching.FindCandidates(tenant, tt.fields, []ledger.Record{tt.entry})

			if !tt.wantFound {
				assert.Empty(t, got)
				return
			}

			require.Len(t, got, 1)
			assert.InDelta(t, tt.wantScore.TaxID, got[0].Score.TaxID, 1e-9)
			assert.InDelta(t, tt.wantScore.Value, got[0].Score.Value, 1e-9)
			assert.InDelta(t, tt.wantScore.Date, got[0].Score.Date, 1e-9)
			assert.InDelta(t, tt.wantScore.IssuerName, got[0].Score.IssuerName, 1e-9)
			assert.InDelta(t, tt.wantScore.Aggregate(), got[0].Confidence, 1e-9)
		})
	}
}

func TestFindCandidates_IgnoresOtherTenants(t *testing.T) {
	entry := record("12345678000199", "", "1000.00", day(2026, 3, 10))
	entry.TenantID = uuid.New()

	got := matching.FindCandidates(tenant, extraction.Fields{IssuerTaxID: "12345678000199"}, []ledger.Record{entry})
	assert.Empty(t, got)
}

func TestFindCandidates_Deterministic(t *testing.T) {
	issued := day(2026, 3, 10)
	fields := extraction.Fields{
		IssuerName:  "Aurora",
		IssuerTaxID: "12345678000199",
		Value:       money("1000.00"),
		IssueDate:   &issued,
	}

	var entries []ledger.Record
	for i := range 20 {
		amount := decimal.NewFromInt(980 + int64(i*3))
		entries = append(entries, record("12345678000199", "Aurora", amount.String(), issued.AddDate(0, 0, i%7)))
	}

	want := matching.FindCandidates(tenant, fields, entries)
	require.NotEmpty(t, want)

	for range 10 {
		shuffled := append([]ledger.Record(nil), entries...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := matching.FindCandidates(tenant, fields, shuffled)
		require.Len(t, got, len(want))

		for i := range want {
			assert.Equal(t, want[i].Record.ID, got[i].Record.ID)
			assert.Equal(t, want[i].Confidence, got[i].Confidence)
		}
	}
}

func TestFindCandidates_TieBreaks(t *testing.T) {
	issued := day(2026, 3, 10)
	fields := extraction.Fields{IssuerTaxID: "12345678000199", Value: money("1000.00"), IssueDate: &issued}

	// All three score 1.0 on value (within 0.5%) and date (within 3 days).
	far := record("12345678000199", "", "1004.00", issued)
	near := record("12345678000199", "", "1001.00", issued.AddDate(0, 0, 2))
	nearSooner := record("12345678000199", "", "1001.00", issued.AddDate(0, 0, 1))

	got := matching.FindCandidates(tenant, fields, []ledger.Record{far, near, nearSooner})
	require.Len(t, got, 3)

	assert.Equal(t, nearSooner.ID, got[0].Record.ID)
	assert.Equal(t, near.ID, got[1].Record.ID)
	assert.Equal(t, far.ID, got[2].Record.ID)
}

func TestFindCandidates_ValueMonotonic(t *testing.T) {
	issued := day(2026, 3, 10)
	entry := record("12345678000199", "Aurora", "1000.00", issued)

	prev := -1.0

	// Walk the extracted value from 8% above the amount down to exact.
	for cents := int64(108000); cents >= 100000; cents -= 250 {
		value := decimal.New(cents, -2)
		fields := extraction.Fields{IssuerTaxID: "12345678000199", Value: &value, IssueDate: &issued}

		got := matching.FindCandidates(tenant, fields, []ledger.Record{entry})
		require.Len(t, got, 1)

		assert.GreaterOrEqual(t, got[0].Confidence, prev, "value %s", value)
		prev = got[0].Confidence
	}
}

func TestDecide(t *testing.T) {
	type testCase struct {
		name       string
		confidence float64
		want       matching.Decision
	}

	tests := []testCase{
		{name: "Auto", confidence: 0.85, want: matching.DecisionAutoMatch},
		{name: "SuggestUpper", confidence: 0.8499, want: matching.DecisionSuggest},
		{name: "SuggestLower", confidence: 0.40, want: matching.DecisionSuggest},
		{name: "None", confidence: 0.3999, want: matching.DecisionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, top := matching.Decide([]matching.Candidate{{Confidence: tt.confidence}})
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, top)
		})
	}

	got, top := matching.Decide(nil)
	assert.Equal(t, matching.DecisionNone, got)
	assert.Nil(t, top)
}
