// Package respond writes JSON responses and maps domain errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/nfrecon/internal/document"
	"github.com/MrJamesThe3rd/nfrecon/internal/inbound"
	"github.com/MrJamesThe3rd/nfrecon/internal/ledger"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status its kind maps to. Unexpected errors are logged
// and hidden from the caller.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid    validator.ValidationErrors
		validation *document.ValidationError
	)

	switch {
	case errors.As(err, &invalid):
		fields := make(map[string]string, len(invalid))
		for _, fe := range invalid {
			fields[fe.Field()] = fe.Tag()
		}

		JSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: fields})
	case errors.As(err, &validation):
		JSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  validation.Error(),
			Fields: map[string]string{validation.Field: validation.Reason},
		})
	case errors.Is(err, document.ErrNotFound),
		errors.Is(err, document.ErrRecordNotFound),
		errors.Is(err, ledger.ErrNotFound):
		JSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, inbound.ErrNoAttachments):
		JSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, document.ErrInvalidTransition),
		errors.Is(err, document.ErrAlreadyLinked):
		JSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, document.ErrExtractionUnavailable):
		JSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// BadRequest is for malformed input the handler itself rejects.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
