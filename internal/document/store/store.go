package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/matching"
)

const uniqueViolation = "23505"

const (
	fingerprintIndex     = "idx_invoice_documents_fingerprint"
	confirmedRecordIndex = "idx_invoice_documents_confirmed_record"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// documentColumns is the write order used by documentValues.
var documentColumns = []string{
	"id", "tenant_id", "version", "status",
	"file_name", "file_uri", "content_type", "content_fingerprint", "received_at",
	"source_email_subject", "source_email_from",
	"extracted_at", "extracted_issuer_name", "extracted_issuer_tax_id", "extracted_invoice_number",
	"extracted_value", "extracted_issue_date", "extracted_period", "extraction_confidence", "extraction_error",
	"confirmed_issuer_name", "confirmed_issuer_tax_id", "confirmed_invoice_number",
	"confirmed_value", "confirmed_issue_date",
	"matched_financial_record_id", "match_confidence", "match_basis", "job_id",
	"rejection_reason", "resolved_by", "resolved_at",
	"created_at", "updated_at", "deleted_at",
}

// Same order as documentColumns, with numerics read back as text.
const selectDocumentColumns = `
	id, tenant_id, version, status,
	file_name, file_uri, content_type, content_fingerprint, received_at,
	source_email_subject, source_email_from,
	extracted_at, extracted_issuer_name, extracted_issuer_tax_id, extracted_invoice_number,
	extracted_value::text, extracted_issue_date, extracted_period, extraction_confidence, extraction_error,
	confirmed_issuer_name, confirmed_issuer_tax_id, confirmed_invoice_number,
	confirmed_value::text, confirmed_issue_date,
	matched_financial_record_id, match_confidence, match_basis, job_id,
	rejection_reason, resolved_by, resolved_at,
	created_at, updated_at, deleted_at
`

func documentValues(doc *document.Document) ([]any, error) {
	basis, err := json.Marshal(doc.Match.Basis)
	if err != nil {
		return nil, fmt.Errorf("encoding match basis: %w", err)
	}

	if doc.Match.Basis == nil {
		basis = []byte("[]")
	}

	var (
		exAt, exIssuer, exTaxID, exNumber, exValue, exDate, exPeriod any
		exConfidence                                                 float64
	)

	if ex := doc.Extracted; ex != nil {
		exAt = ex.ExtractedAt
		exIssuer, exTaxID, exNumber, exPeriod = ex.IssuerName, ex.IssuerTaxID, ex.InvoiceNumber, ex.Period
		exConfidence = ex.Confidence

		if ex.Value != nil {
			exValue = ex.Value.StringFixed(2)
		}

		if ex.IssueDate != nil {
			exDate = *ex.IssueDate
		}
	}

	var cfIssuer, cfTaxID, cfNumber, cfValue, cfDate any

	if cf := doc.Confirmed; cf != nil {
		cfIssuer, cfTaxID, cfNumber = cf.IssuerName, cf.IssuerTaxID, cf.InvoiceNumber
		cfValue = cf.Value.StringFixed(2)
		cfDate = cf.IssueDate
	}

	return []any{
		doc.ID, doc.TenantID, doc.Version, doc.Status,
		doc.Source.FileName, doc.Source.FileURI, doc.Source.ContentType, doc.Source.Fingerprint, doc.Source.ReceivedAt,
		doc.Source.EmailSubject, doc.Source.EmailFrom,
		exAt, exIssuer, exTaxID, exNumber,
		exValue, exDate, exPeriod, exConfidence, nullString(doc.ExtractionError),
		cfIssuer, cfTaxID, cfNumber,
		cfValue, cfDate,
		doc.Match.FinancialRecordID, doc.Match.Confidence, string(basis), doc.JobID,
		doc.RejectionReason, doc.ResolvedBy, doc.ResolvedAt,
		doc.CreatedAt, doc.UpdatedAt, doc.DeletedAt,
	}, nil
}

func scanDocument(s scanner) (*document.Document, error) {
	var (
		doc    document.Document
		status string

		exAt                                                      sql.NullTime
		exIssuer, exTaxID, exNumber, exValue, exPeriod, exFailure sql.NullString
		exDate                                                    sql.NullTime
		exConfidence                                              float64

		cfIssuer, cfTaxID, cfNumber, cfValue sql.NullString
		cfDate                               sql.NullTime

		basis []byte
	)

	if err := s.Scan(
		&doc.ID, &doc.TenantID, &doc.Version, &status,
		&doc.Source.FileName, &doc.Source.FileURI, &doc.Source.ContentType, &doc.Source.Fingerprint, &doc.Source.ReceivedAt,
		&doc.Source.EmailSubject, &doc.Source.EmailFrom,
		&exAt, &exIssuer, &exTaxID, &exNumber,
		&exValue, &exDate, &exPeriod, &exConfidence, &exFailure,
		&cfIssuer, &cfTaxID, &cfNumber,
		&cfValue, &cfDate,
		&doc.Match.FinancialRecordID, &doc.Match.Confidence, &basis, &doc.JobID,
		&doc.RejectionReason, &doc.ResolvedBy, &doc.ResolvedAt,
		&doc.CreatedAt, &doc.UpdatedAt, &doc.DeletedAt,
	); err != nil {
		return nil, err
	}

	doc.Status = document.Status(status)
	doc.ExtractionError = exFailure.String

	if exAt.Valid {
		ex := &document.Extraction{ExtractedAt: exAt.Time}
		ex.IssuerName = exIssuer.String
		ex.IssuerTaxID = exTaxID.String
		ex.InvoiceNumber = exNumber.String
		ex.Period = exPeriod.String
		ex.Confidence = exConfidence

		if exValue.Valid {
			v, err := decimal.NewFromString(exValue.String)
			if err != nil {
				return nil, fmt.Errorf("parsing extracted value %q: %w", exValue.String, err)
			}

			ex.Value = &v
		}

		if exDate.Valid {
			ex.IssueDate = new(exDate.Time.UTC())
		}

		doc.Extracted = ex
	}

	if cfValue.Valid {
		v, err := decimal.NewFromString(cfValue.String)
		if err != nil {
			return nil, fmt.Errorf("parsing confirmed value %q: %w", cfValue.String, err)
		}

		doc.Confirmed = &document.Fields{
			IssuerName:    cfIssuer.String,
			IssuerTaxID:   cfTaxID.String,
			InvoiceNumber: cfNumber.String,
			Value:         v,
			IssueDate:     cfDate.Time.UTC(),
		}
	}

	var signals []matching.Signal
	if err := json.Unmarshal(basis, &signals); err != nil {
		return nil, fmt.Errorf("decoding match basis: %w", err)
	}

	if len(signals) > 0 {
		doc.Match.Basis = signals
	}

	return &doc, nil
}

func (s *Store) Create(ctx context.Context, doc *document.Document, entry *document.AuditEntry) error {
	doc.Version = 1

	values, err := documentValues(doc)
	if err != nil {
		return err
	}

	placeholders := make([]string, len(documentColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO invoice_documents (%s) VALUES (%s)`,
		strings.Join(documentColumns, ", "), strings.Join(placeholders, ", "))

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			if constraint, ok := uniqueConstraint(err); ok && constraint == fingerprintIndex {
				return document.ErrDuplicateDocument
			}

			return fmt.Errorf("inserting document: %w", err)
		}

		return insertAudit(ctx, tx, entry)
	})
}

func (s *Store) Get(ctx context.Context, tenantID, id uuid.UUID) (*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM invoice_documents
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	return doc, nil
}

// Update is a compare-and-swap on the version column.
func (s *Store) Update(ctx context.Context, doc *document.Document, entry *document.AuditEntry) error {
	expected := doc.Version

	next := *doc
	next.Version = expected + 1

	values, err := documentValues(&next)
	if err != nil {
		return err
	}

	// id and tenant_id never change; they are only used in the WHERE clause.
	sets := make([]string, 0, len(documentColumns)-2)
	args := make([]any, 0, len(documentColumns)+1)

	for i, col := range documentColumns {
		if col == "id" || col == "tenant_id" {
			continue
		}

		args = append(args, values[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	args = append(args, doc.ID, doc.TenantID, expected)

	query := fmt.Sprintf(`UPDATE invoice_documents SET %s
		WHERE id = $%d AND tenant_id = $%d AND version = $%d AND deleted_at IS NULL`,
		strings.Join(sets, ", "), len(args)-2, len(args)-1, len(args))

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if constraint, ok := uniqueConstraint(err); ok && constraint == confirmedRecordIndex {
				return document.ErrAlreadyLinked
			}

			return fmt.Errorf("updating document: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating document: %w", err)
		}

		if n == 0 {
			return document.ErrStale
		}

		return insertAudit(ctx, tx, entry)
	})
	if err != nil {
		return err
	}

	doc.Version = next.Version

	return nil
}

func (s *Store) FindConfirmedByRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*document.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM invoice_documents
		WHERE tenant_id = $1 AND matched_financial_record_id = $2
		AND status = $3 AND deleted_at IS NULL`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, tenantID, recordID, document.StatusConfirmed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, document.ErrNotFound
		}

		return nil, fmt.Errorf("finding confirmed document: %w", err)
	}

	return doc, nil
}

func (s *Store) AppendAudit(ctx context.Context, entry *document.AuditEntry) error {
	return insertAudit(ctx, s.db, entry)
}

func (s *Store) AuditTrail(ctx context.Context, tenantID, documentID uuid.UUID) ([]document.AuditEntry, error) {
	query := `
		SELECT id, tenant_id, document_id, event, actor, from_status, to_status,
			financial_record_id, previous_record_id, detail, created_at
		FROM document_audit
		WHERE tenant_id = $1 AND document_id = $2
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var trail []document.AuditEntry

	for rows.Next() {
		var (
			e        document.AuditEntry
			event    string
			from, to sql.NullString
		)

		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.DocumentID, &event, &e.Actor, &from, &to,
			&e.FinancialRecordID, &e.PreviousRecordID, &e.Detail, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		e.Event = document.Event(event)
		e.FromStatus = document.Status(from.String)
		e.ToStatus = document.Status(to.String)

		trail = append(trail, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return trail, nil
}

func (s *Store) List(ctx context.Context, tenantID uuid.UUID, filter document.ListFilter) (*document.Page, error) {
	where := ` WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []any{tenantID}
	argIdx := 2

	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		where += fmt.Sprintf(` AND (
			file_name ILIKE $%[1]d
			OR extracted_issuer_name ILIKE $%[1]d OR extracted_issuer_tax_id LIKE $%[1]d
			OR extracted_invoice_number ILIKE $%[1]d
			OR confirmed_issuer_name ILIKE $%[1]d OR confirmed_issuer_tax_id LIKE $%[1]d
			OR confirmed_invoice_number ILIKE $%[1]d
		)`, argIdx)

		args = append(args, "%"+q+"%")
		argIdx++
	}

	page := &document.Page{Items: []*document.Document{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoice_documents`+where, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}

	query := `SELECT ` + selectDocumentColumns + ` FROM invoice_documents` + where +
		fmt.Sprintf(" ORDER BY received_at DESC, id ASC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		page.Items = append(page.Items, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}

	return page, nil
}

func (s *Store) Stats(ctx context.Context, tenantID uuid.UUID, monthStart, monthEnd time.Time) (*document.Stats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'pending_review'),
			COUNT(*) FILTER (WHERE status = 'auto_matched'),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'confirmed' AND resolved_at >= $2 AND resolved_at < $3),
			COUNT(*) FILTER (WHERE status = 'rejected' AND resolved_at >= $2 AND resolved_at < $3)
		FROM invoice_documents
		WHERE tenant_id = $1 AND deleted_at IS NULL
	`

	var st document.Stats

	if err := s.db.QueryRowContext(ctx, query, tenantID, monthStart, monthEnd).Scan(
		&st.Processing, &st.PendingReview, &st.AutoMatched, &st.Confirmed, &st.Rejected,
		&st.ConfirmedThisMonth, &st.RejectedThisMonth,
	); err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}

	return &st, nil
}

func insertAudit(ctx context.Context, db execer, e *document.AuditEntry) error {
	if e == nil {
		return nil
	}

	query := `
		INSERT INTO document_audit (
			id, tenant_id, document_id, event, actor, from_status, to_status,
			financial_record_id, previous_record_id, detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := db.ExecContext(ctx, query,
		e.ID, e.TenantID, e.DocumentID, e.Event, e.Actor,
		nullString(string(e.FromStatus)), nullString(string(e.ToStatus)),
		e.FinancialRecordID, e.PreviousRecordID, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}

	return "", false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
