package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/MrJamesThe3rd/nfrecon/internal/blob"
)

const scheme = "gs://"

// Store keeps document bytes in a Google Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// New uses Application Default Credentials unless credentialsJSON is provided.
func New(ctx context.Context, bucket, credentialsJSON string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Store{client: client, bucket: bucket}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("writing object: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing object writer: %w", err)
	}

	return scheme + s.bucket + "/" + key, nil
}

func (s *Store) Get(ctx context.Context, uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, scheme)
	if !ok {
		return nil, fmt.Errorf("unsupported blob uri %q", uri)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket != s.bucket {
		return nil, fmt.Errorf("blob uri %q outside bucket %s", uri, s.bucket)
	}

	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, blob.ErrNotFound
		}

		return nil, fmt.Errorf("opening object: %w", err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}

	return content, nil
}
