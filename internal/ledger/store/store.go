package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
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

// Expected column order: id, tenant_id, counterparty_name, counterparty_tax_id, amount,
// due_date, job_id, nf_status, nf_document_id
const selectRecordColumns = `
	id, tenant_id, counterparty_name, counterparty_tax_id, amount::text,
	due_date, job_id, nf_status, nf_document_id
`

func scanRecord(s scanner) (*ledger.Record, error) {
	var rec ledger.Record

	var amount, status string

	if err := s.Scan(
		&rec.ID, &rec.TenantID, &rec.CounterpartyName, &rec.CounterpartyTaxID, &amount,
		&rec.DueDate, &rec.JobID, &status, &rec.DocumentID,
	); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}

	rec.Amount = d
	rec.NFStatus = ledger.NFStatus(status)

	return &rec, nil
}

func (s *Store) ListOpenRecords(ctx context.Context, tenantID uuid.UUID, filter ledger.ListFilter) ([]ledger.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM financial_records
		WHERE tenant_id = $1 AND nf_status <> $2`

	args := []any{tenantID, ledger.NFStatusReceived}
	argIdx := 3

	if q := strings.TrimSpace(filter.Query); q != "" {
		query += fmt.Sprintf(" AND (counterparty_name ILIKE $%d OR counterparty_tax_id LIKE $%d)", argIdx, argIdx)

		args = append(args, "%"+q+"%")
		argIdx++
	}

	if filter.JobID != nil {
		query += fmt.Sprintf(" AND job_id = $%d", argIdx)

		args = append(args, *filter.JobID)
		argIdx++
	}

	if filter.DueFrom != nil {
		query += fmt.Sprintf(" AND due_date >= $%d", argIdx)

		args = append(args, *filter.DueFrom)
		argIdx++
	}

	if filter.DueTo != nil {
		query += fmt.Sprintf(" AND due_date <= $%d", argIdx)

		args = append(args, *filter.DueTo)
		argIdx++
	}

	query += " ORDER BY due_date ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing open records: %w", err)
	}
	defer rows.Close()

	var records []ledger.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}

	return records, nil
}

func (s *Store) GetRecord(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM financial_records
		WHERE tenant_id = $1 AND id = $2`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting record: %w", err)
	}

	return rec, nil
}

func (s *Store) MarkLinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error {
	query := `
		UPDATE financial_records
		SET nf_status = $1, nf_document_id = $2, updated_at = NOW()
		WHERE tenant_id = $3 AND id = $4
	`

	return s.exec(ctx, "marking record linked", query, ledger.NFStatusReceived, documentID, tenantID, recordID)
}

func (s *Store) MarkUnlinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error {
	query := `
		UPDATE financial_records
		SET nf_status = $1, nf_document_id = NULL, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND nf_document_id = $4
	`

	// No row means another document holds the record now.
	if _, err := s.db.ExecContext(ctx, query, ledger.NFStatusPending, tenantID, recordID, documentID); err != nil {
		return fmt.Errorf("marking record unlinked: %w", err)
	}

	return nil
}

func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}
