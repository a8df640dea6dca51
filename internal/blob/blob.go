package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store keeps the raw bytes of ingested documents. Put returns the URI recorded as the
// document's file_uri; Get accepts that URI.
type Store interface {
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
	Get(ctx context.Context, uri string) ([]byte, error)
}
