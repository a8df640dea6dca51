package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfrecon/internal/fingerprint"
)

// reserveAttempts bounds the insert/lookup loop when the holder is released in between.
const reserveAttempts = 3

// Store reserves fingerprints through the document_fingerprints primary key, so the
// check and the reservation are one statement.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Reserve(ctx context.Context, tenantID uuid.UUID, fp string, documentID uuid.UUID) error {
	insert := `
		INSERT INTO document_fingerprints (tenant_id, fingerprint, document_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id, fingerprint) DO NOTHING
	`

	lookup := `
		SELECT document_id
		FROM document_fingerprints
		WHERE tenant_id = $1 AND fingerprint = $2
	`

	for range reserveAttempts {
		res, err := s.db.ExecContext(ctx, insert, tenantID, fp, documentID)
		if err != nil {
			return fmt.Errorf("reserving fingerprint: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reserving fingerprint: %w", err)
		}

		if n == 1 {
			return nil
		}

		var holder uuid.UUID

		err = s.db.QueryRowContext(ctx, lookup, tenantID, fp).Scan(&holder)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}

		if err != nil {
			return fmt.Errorf("looking up fingerprint holder: %w", err)
		}

		return &fingerprint.ReservedError{DocumentID: holder}
	}

	return fmt.Errorf("reserving fingerprint: %w", fingerprint.ErrReserved)
}

func (s *Store) Release(ctx context.Context, tenantID uuid.UUID, fp string) error {
	query := `DELETE FROM document_fingerprints WHERE tenant_id = $1 AND fingerprint = $2`

	if _, err := s.db.ExecContext(ctx, query, tenantID, fp); err != nil {
		return fmt.Errorf("releasing fingerprint: %w", err)
	}

	return nil
}
