package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrReserved is returned when a fingerprint is already held by another document in the tenant.
var ErrReserved = errors.New("fingerprint already reserved")

// ReservedError carries the document that holds the fingerprint.
type ReservedError struct {
	DocumentID uuid.UUID
}

func (e *ReservedError) Error() string {
	return fmt.Sprintf("fingerprint already reserved by document %s", e.DocumentID)
}

func (e *ReservedError) Is(target error) bool {
	return target == ErrReserved
}

// Compute hashes the raw bytes, so byte-identical re-deliveries collide before extraction runs.
func Compute(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Registry reserves fingerprints atomically: of any number of concurrent Reserve calls
// for the same tenant and fingerprint, exactly one succeeds.
type Registry interface {
	Reserve(ctx context.Context, tenantID uuid.UUID, fingerprint string, documentID uuid.UUID) error
	Release(ctx context.Context, tenantID uuid.UUID, fingerprint string) error
}
