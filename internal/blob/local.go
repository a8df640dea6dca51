package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const localScheme = "file://"

// Local stores blobs under a directory on the local filesystem.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving storage dir: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}

	return &Local{dir: abs}, nil
}

func (l *Local) Put(_ context.Context, key string, content []byte, _ string) (string, error) {
	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, l.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating blob dir: %w", err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}

	return localScheme + filepath.ToSlash(path), nil
}

func (l *Local) Get(_ context.Context, uri string) ([]byte, error) {
	path, ok := strings.CutPrefix(uri, localScheme)
	if !ok {
		return nil, fmt.Errorf("unsupported blob uri %q", uri)
	}

	path = filepath.FromSlash(path)
	if !strings.HasPrefix(path, l.dir+string(filepath.Separator)) {
		return nil, fmt.Errorf("blob uri %q outside storage dir", uri)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("reading blob: %w", err)
	}

	return content, nil
}
