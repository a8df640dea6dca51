package ledger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/http/auth"
	"github.com/MrJamesThe3rd/nfrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/records", h.listRecords)
}

type recordResponse struct {
	ID                uuid.UUID       `json:"id"`
	CounterpartyName  string          `json:"counterparty_name"`
	CounterpartyTaxID string          `json:"counterparty_tax_id"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           string          `json:"due_date"`
	JobID             *uuid.UUID      `json:"job_id,omitempty"`
	NFStatus          ledger.NFStatus `json:"nf_status"`
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := ledger.ListFilter{Query: q.Get("q")}

	if s := q.Get("job_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respond.BadRequest(w, "invalid job_id")
			return
		}

		filter.JobID = &id
	}

	if s := q.Get("due_from"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.DueFrom = new(t)
		}
	}

	if s := q.Get("due_to"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.DueTo = new(t)
		}
	}

	records, err := h.svc.ListOpenRecords(r.Context(), p.TenantID, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]recordResponse, len(records))
	for i, rec := range records {
		resp[i] = recordResponse{
			ID:                rec.ID,
			CounterpartyName:  rec.CounterpartyName,
			CounterpartyTaxID: rec.CounterpartyTaxID,
			Amount:            rec.Amount,
			DueDate:           rec.DueDate.Format(time.DateOnly),
			JobID:             rec.JobID,
			NFStatus:          rec.NFStatus,
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}
