package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/folio-ledger/internal/auth"
)

// staffFromRequest returns the authenticated staff member. Every folio and
// invoice lookup is scoped to their hotel.
func staffFromRequest(r *http.Request) (auth.Staff, *AppError) {
	staff, ok := auth.StaffFromContext(r.Context())
	if !ok {
		return auth.Staff{}, ErrMissingToken
	}
	return staff, nil
}

// pathID parses a UUID path segment. A malformed id is reported as not found.
func pathID(r *http.Request, name string) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, ErrResourceNotFound
	}
	return id, nil
}
