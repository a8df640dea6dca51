package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Adapter wraps the OCR collaborator, bounding every call with a timeout and
// normalizing its output.
type Adapter struct {
	client  Client
	timeout time.Duration
}

func NewAdapter(client Client, timeout time.Duration) *Adapter {
	return &Adapter{client: client, timeout: timeout}
}

// Extract returns normalized fields. Partial data is never an error; only a failed or
// timed-out collaborator call is, reported as ErrUnavailable. Sparse results get
// Confidence 0.
func (a *Adapter) Extract(ctx context.Context, content []byte, contentType string) (Fields, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.client.Extract(ctx, content, contentType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.WarnContext(ctx, "ocr collaborator timed out", "timeout", a.timeout)
		}

		return Fields{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	fields := normalize(raw)
	if fields.Sparse() {
		fields.Confidence = 0
	}

	return fields, nil
}
