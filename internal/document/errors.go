package document

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/nfrecon/internal/extraction"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicateDocument = errors.New("duplicate document")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRecordNotFound    = errors.New("financial record not found")
	ErrAlreadyLinked     = errors.New("financial record already linked to another document")
	ErrValidation        = errors.New("validation error")

	// ErrExtractionUnavailable is the adapter's failure, surfaced by Reprocess.
	ErrExtractionUnavailable = extraction.ErrUnavailable

	// ErrStale is returned by repositories when the stored version moved on.
	ErrStale = fmt.Errorf("%w: document modified concurrently", ErrInvalidTransition)
)

// DuplicateError identifies the document already holding the same content.
// DocumentID is uuid.Nil when the holder could not be determined.
type DuplicateError struct {
	DocumentID uuid.UUID
}

func (e *DuplicateError) Error() string {
	if e.DocumentID == uuid.Nil {
		return "duplicate document: content already ingested"
	}

	return fmt.Sprintf("duplicate document: content already ingested as %s", e.DocumentID)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateDocument
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func transitionError(op string, from Status) error {
	return fmt.Errorf("%w: cannot %s a %s document", ErrInvalidTransition, op, from)
}
