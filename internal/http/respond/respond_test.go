package respond_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/http/respond"
	"github.com/MrJamesThe3rd/nfrecon/internal/inbound"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
)

func TestError(t *testing.T) {
	type request struct {
		Reason string `validate:"required"`
	}

	invalid := validator.New().Struct(request{})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "struct validation", err: invalid, wantStatus: http.StatusUnprocessableEntity, wantBody: `"Reason":"required"`},
		{name: "domain validation", err: &document.ValidationError{Field: "reason", Reason: "required"}, wantStatus: http.StatusUnprocessableEntity, wantBody: `"reason":"required"`},
		{name: "document not found", err: fmt.Errorf("get document: %w", document.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "record not found", err: document.ErrRecordNotFound, wantStatus: http.StatusNotFound},
		{name: "ledger not found", err: ledger.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "no attachments", err: inbound.ErrNoAttachments, wantStatus: http.StatusUnprocessableEntity},
		{name: "invalid transition", err: document.ErrInvalidTransition, wantStatus: http.StatusConflict},
		{name: "stale", err: document.ErrStale, wantStatus: http.StatusConflict},
		{name: "already linked", err: document.ErrAlreadyLinked, wantStatus: http.StatusConflict},
		{name: "extraction unavailable", err: document.ErrExtractionUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantBody: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respond.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}
