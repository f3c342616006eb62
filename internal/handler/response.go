package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

// retryAfterSeconds is advertised on CONCURRENT_UPDATE responses.
const retryAfterSeconds = "1"

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps service errors onto API errors. Validation and
// state errors carry the underlying message as details.
func RespondDomainError(w http.ResponseWriter, err error) {
	var (
		appErr  *AppError
		details any
	)

	switch {
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrConcurrentUpdate):
		w.Header().Set("Retry-After", retryAfterSeconds)
		appErr = ErrConcurrentUpdate
	case errors.Is(err, domain.ErrInsufficientPayment):
		appErr = ErrInsufficientPayment
		details = reason(err)
	case errors.Is(err, domain.ErrInvalidState):
		appErr = ErrInvalidState
		details = reason(err)
	case errors.Is(err, domain.ErrCurrencyMismatch):
		appErr = ErrCurrencyMismatch
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrValidation):
		appErr = ErrValidationFailed
		details = reason(err)
	case errors.Is(err, domain.ErrAlreadyExists):
		appErr = ErrAlreadyExists
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, details)
}

// reason drops the operation prefixes and sentinel text from a wrapped
// error, leaving the human-readable cause.
func reason(err error) any {
	var parts []string
	for _, part := range strings.Split(err.Error(), ": ") {
		if operationName.MatchString(part) || isSentinelText(part) {
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, ": ")
}

var operationName = regexp.MustCompile(`^[A-Za-z]+$`)

func isSentinelText(s string) bool {
	for _, sentinel := range []error{
		domain.ErrInvalidState,
		domain.ErrInsufficientPayment,
		domain.ErrValidation,
		domain.ErrNotFound,
	} {
		if s == sentinel.Error() {
			return true
		}
	}
	return false
}
