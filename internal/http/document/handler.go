package document

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/http/auth"
	"github.com/MrJamesThe3rd/nfrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/nfrecon/internal/inbound"
)

type Handler struct {
	svc       *document.Service
	validate  *validator.Validate
	maxUpload int64
}

func NewHandler(svc *document.Service, maxUpload int64) *Handler {
	return &Handler{
		svc:       svc,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		maxUpload: maxUpload,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Post("/", h.upload)
	r.Post("/email", h.email)
	r.Get("/{id}", h.get)
	r.Get("/{id}/audit", h.audit)
	r.Get("/{id}/candidates", h.candidates)
	r.Post("/{id}/validate", h.validateDocument)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/reassign", h.reassign)
	r.Post("/{id}/reprocess", h.reprocess)
	r.Delete("/{id}", h.delete)
}

// target resolves the caller and the {id} path parameter.
func target(w http.ResponseWriter, r *http.Request) (auth.Principal, uuid.UUID, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return auth.Principal{}, uuid.Nil, false
	}

	if chi.URLParam(r, "id") == "" {
		return p, uuid.Nil, true
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return auth.Principal{}, uuid.Nil, false
	}

	return p, id, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, _, ok := target(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := document.ListFilter{Query: q.Get("q")}

	if s := q.Get("status"); s != "" {
		filter.Status = new(document.Status(s))
	}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if s := q.Get(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				respond.BadRequest(w, "invalid "+name)
				return
			}

			*dst = n
		}
	}

	page, err := h.svc.List(r.Context(), p.TenantID, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPageResponse(page))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	p, _, ok := target(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(r.Context(), p.TenantID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, stats)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Get(r.Context(), p.TenantID, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	trail, err := h.svc.AuditTrail(r.Context(), p.TenantID, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toAuditResponse(trail))
}

func (h *Handler) candidates(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	candidates, err := h.svc.Candidates(r.Context(), p.TenantID, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCandidatesResponse(candidates))
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	p, _, ok := target(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respond.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.BadRequest(w, "failed to read file")
		return
	}

	doc, err := h.svc.Ingest(r.Context(), p.TenantID, document.IngestInput{
		FileName:     header.Filename,
		ContentType:  inbound.DetectContentType(header.Filename, header.Header.Get("Content-Type"), content),
		Content:      content,
		EmailSubject: r.FormValue("email_subject"),
		EmailFrom:    r.FormValue("email_from"),
	})

	h.writeIngest(w, r, p, doc, err)
}

// writeIngest answers a duplicate with 200 and the existing document. A holder
// whose row is not committed yet is reported by id alone.
func (h *Handler) writeIngest(w http.ResponseWriter, r *http.Request, p auth.Principal, doc *document.Document, err error) {
	var dup *document.DuplicateError
	if errors.As(err, &dup) {
		h.writeDuplicate(w, r, p, dup.DocumentID)
		return
	}

	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ingestResponse{DocumentID: doc.ID, Document: new(toResponse(doc))})
}

func (h *Handler) writeDuplicate(w http.ResponseWriter, r *http.Request, p auth.Principal, id uuid.UUID) {
	res := ingestResponse{Duplicate: true, DocumentID: id}

	if id == uuid.Nil {
		respond.JSON(w, http.StatusOK, res)
		return
	}

	existing, err := h.svc.Get(r.Context(), p.TenantID, id)
	switch {
	case errors.Is(err, document.ErrNotFound):
	case err != nil:
		respond.Error(w, r, err)
		return
	default:
		res.Document = new(toResponse(existing))
	}

	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) email(w http.ResponseWriter, r *http.Request) {
	p, _, ok := target(w, r)
	if !ok {
		return
	}

	msg, err := inbound.Parse(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		if errors.Is(err, inbound.ErrNoAttachments) {
			respond.Error(w, r, err)
			return
		}

		respond.BadRequest(w, "invalid message: "+err.Error())

		return
	}

	results := inbound.IngestMessage(r.Context(), h.svc, p.TenantID, msg)

	respond.JSON(w, http.StatusOK, toAttachmentResults(results))
}

// fieldOverrides are the reviewer-supplied values shared by validate and reassign.
type fieldOverrides struct {
	IssuerName    *string          `json:"issuer_name" validate:"omitempty,min=1,max=200"`
	IssuerTaxID   *string          `json:"issuer_tax_id" validate:"omitempty,min=11,max=18"`
	InvoiceNumber *string          `json:"invoice_number" validate:"omitempty,min=1,max=60"`
	Value         *decimal.Decimal `json:"value"`
	IssueDate     *string          `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
}

func (o fieldOverrides) toDomain() document.FieldOverrides {
	overrides := document.FieldOverrides{
		IssuerName:    o.IssuerName,
		IssuerTaxID:   o.IssuerTaxID,
		InvoiceNumber: o.InvoiceNumber,
		Value:         o.Value,
	}

	if o.IssueDate != nil {
		d, _ := time.Parse(time.DateOnly, *o.IssueDate)
		overrides.IssueDate = &d
	}

	return overrides
}

type validateRequest struct {
	FinancialRecordID uuid.UUID `json:"financial_record_id" validate:"required"`
	fieldOverrides
}

func (h *Handler) validateDocument(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	var req validateRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.svc.Validate(r.Context(), p.TenantID, id, document.ValidateInput{
		FinancialRecordID: req.FinancialRecordID,
		Overrides:         req.toDomain(),
		Actor:             p.Subject,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.svc.Reject(r.Context(), p.TenantID, id, req.Reason, p.Subject)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}

type reassignRequest struct {
	FinancialRecordID uuid.UUID  `json:"financial_record_id" validate:"required"`
	JobID             *uuid.UUID `json:"job_id"`
	fieldOverrides
}

func (h *Handler) reassign(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	var req reassignRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.svc.Reassign(r.Context(), p.TenantID, id, document.ReassignInput{
		FinancialRecordID: req.FinancialRecordID,
		JobID:             req.JobID,
		Overrides:         req.toDomain(),
		Actor:             p.Subject,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) reprocess(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	doc, err := h.svc.Reprocess(r.Context(), p.TenantID, id, p.Subject)
	if doc != nil && errors.Is(err, document.ErrExtractionUnavailable) {
		respond.JSON(w, http.StatusServiceUnavailable, reprocessFailure{Error: err.Error(), Document: toResponse(doc)})
		return
	}

	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := target(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), p.TenantID, id, p.Subject); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body and runs struct validation on it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.BadRequest(w, err.Error())
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		respond.Error(w, r, err)
		return false
	}

	return true
}
