package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/inbound"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

type sourceResponse struct {
	FileName     string    `json:"file_name"`
	FileURI      string    `json:"file_uri"`
	ContentType  string    `json:"content_type"`
	Fingerprint  string    `json:"content_fingerprint"`
	ReceivedAt   time.Time `json:"received_at"`
	EmailSubject *string   `json:"email_subject,omitempty"`
	EmailFrom    *string   `json:"email_from,omitempty"`
}

type extractedResponse struct {
	IssuerName    string           `json:"issuer_name,omitempty"`
	IssuerTaxID   string           `json:"issuer_tax_id,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Value         *decimal.Decimal `json:"value,omitempty"`
	IssueDate     *string          `json:"issue_date,omitempty"`
	Period        string           `json:"period,omitempty"`
	Confidence    float64          `json:"confidence"`
	ExtractedAt   time.Time        `json:"extracted_at"`
}

type confirmedResponse struct {
	IssuerName    string          `json:"issuer_name"`
	IssuerTaxID   string          `json:"issuer_tax_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Value         decimal.Decimal `json:"value"`
	IssueDate     string          `json:"issue_date"`
}

type matchResponse struct {
	FinancialRecordID *uuid.UUID        `json:"financial_record_id,omitempty"`
	Confidence        float64           `json:"confidence"`
	Basis             []matching.Signal `json:"basis"`
}

type documentResponse struct {
	ID              uuid.UUID          `json:"id"`
	Status          document.Status    `json:"status"`
	Version         int64              `json:"version"`
	Source          sourceResponse     `json:"source"`
	Extracted       *extractedResponse `json:"extracted,omitempty"`
	ExtractionError string             `json:"extraction_error,omitempty"`
	Confirmed       *confirmedResponse `json:"confirmed,omitempty"`
	Match           matchResponse      `json:"match"`
	JobID           *uuid.UUID         `json:"job_id,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
	ResolvedBy      *string            `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func toResponse(doc *document.Document) documentResponse {
	resp := documentResponse{
		ID:      doc.ID,
		Status:  doc.Status,
		Version: doc.Version,
		Source: sourceResponse{
			FileName:     doc.Source.FileName,
			FileURI:      doc.Source.FileURI,
			ContentType:  doc.Source.ContentType,
			Fingerprint:  doc.Source.Fingerprint,
			ReceivedAt:   doc.Source.ReceivedAt,
			EmailSubject: doc.Source.EmailSubject,
			EmailFrom:    doc.Source.EmailFrom,
		},
		ExtractionError: doc.ExtractionError,
		Match: matchResponse{
			FinancialRecordID: doc.Match.FinancialRecordID,
			Confidence:        doc.Match.Confidence,
			Basis:             doc.Match.Basis,
		},
		JobID:           doc.JobID,
		RejectionReason: doc.RejectionReason,
		ResolvedBy:      doc.ResolvedBy,
		ResolvedAt:      doc.ResolvedAt,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}

	if resp.Match.Basis == nil {
		resp.Match.Basis = []matching.Signal{}
	}

	if ex := doc.Extracted; ex != nil {
		resp.Extracted = &extractedResponse{
			IssuerName:    ex.IssuerName,
			IssuerTaxID:   ex.IssuerTaxID,
			InvoiceNumber: ex.InvoiceNumber,
			Value:         ex.Value,
			Period:        ex.Period,
			Confidence:    ex.Confidence,
			ExtractedAt:   ex.ExtractedAt,
		}

		if ex.IssueDate != nil {
			resp.Extracted.IssueDate = new(ex.IssueDate.Format(time.DateOnly))
		}
	}

	if cf := doc.Confirmed; cf != nil {
		resp.Confirmed = &confirmedResponse{
			IssuerName:    cf.IssuerName,
			IssuerTaxID:   cf.IssuerTaxID,
			InvoiceNumber: cf.InvoiceNumber,
			Value:         cf.Value,
			IssueDate:     cf.IssueDate.Format(time.DateOnly),
		}
	}

	return resp
}

type pageResponse struct {
	Items []documentResponse `json:"items"`
	Total int                `json:"total"`
}

func toPageResponse(page *document.Page) pageResponse {
	resp := pageResponse{Items: make([]documentResponse, len(page.Items)), Total: page.Total}
	for i, doc := range page.Items {
		resp.Items[i] = toResponse(doc)
	}

	return resp
}

type ingestResponse struct {
	Duplicate  bool              `json:"duplicate"`
	DocumentID uuid.UUID         `json:"document_id"`
	Document   *documentResponse `json:"document,omitempty"`
}

type reprocessFailure struct {
	Error    string           `json:"error"`
	Document documentResponse `json:"document"`
}

type auditEntryResponse struct {
	ID                uuid.UUID       `json:"id"`
	Event             document.Event  `json:"event"`
	Actor             *string         `json:"actor"`
	FromStatus        document.Status `json:"from_status,omitempty"`
	ToStatus          document.Status `json:"to_status,omitempty"`
	FinancialRecordID *uuid.UUID      `json:"financial_record_id,omitempty"`
	PreviousRecordID  *uuid.UUID      `json:"previous_record_id,omitempty"`
	Detail            string          `json:"detail,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toAuditResponse(trail []document.AuditEntry) []auditEntryResponse {
	resp := make([]auditEntryResponse, len(trail))
	for i, e := range trail {
		resp[i] = auditEntryResponse{
			ID:                e.ID,
			Event:             e.Event,
			Actor:             e.Actor,
			FromStatus:        e.FromStatus,
			ToStatus:          e.ToStatus,
			FinancialRecordID: e.FinancialRecordID,
			PreviousRecordID:  e.PreviousRecordID,
			Detail:            e.Detail,
			CreatedAt:         e.CreatedAt,
		}
	}

	return resp
}

type candidateResponse struct {
	FinancialRecordID uuid.UUID         `json:"financial_record_id"`
	CounterpartyName  string            `json:"counterparty_name"`
	Amount            decimal.Decimal   `json:"amount"`
	DueDate           string            `json:"due_date"`
	Confidence        float64           `json:"confidence"`
	Basis             []matching.Signal `json:"basis"`
}

func toCandidatesResponse(candidates []matching.Candidate) []candidateResponse {
	resp := make([]candidateResponse, len(candidates))
	for i, c := range candidates {
		resp[i] = candidateResponse{
			FinancialRecordID: c.Record.ID,
			CounterpartyName:  c.Record.CounterpartyName,
			Amount:            c.Record.Amount,
			DueDate:           c.Record.DueDate.Format(time.DateOnly),
			Confidence:        c.Confidence,
			Basis:             c.Score.Basis(),
		}
	}

	return resp
}

type attachmentResult struct {
	FileName    string            `json:"file_name"`
	Document    *documentResponse `json:"document,omitempty"`
	Duplicate   bool              `json:"duplicate,omitempty"`
	DuplicateOf *uuid.UUID        `json:"duplicate_of,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func toAttachmentResults(results []inbound.Result) []attachmentResult {
	resp := make([]attachmentResult, len(results))
	for i, r := range results {
		resp[i] = attachmentResult{FileName: r.FileName, Duplicate: r.Duplicate, DuplicateOf: r.DuplicateOf}

		if r.Document != nil {
			resp[i].Document = new(toResponse(r.Document))
		}

		if r.Err != nil {
			resp[i].Error = "ingestion failed"
		}
	}

	return resp
}
