package auth

import (
	"context"

	"github.com/google/uuid"
)

type staffKey struct{}

// Staff is the authenticated front-desk or back-office user behind a request.
type Staff struct {
	ID      uuid.UUID
	HotelID uuid.UUID
	Email   string
}

// Actor is the identity recorded on ledger entries and audit events.
func (s Staff) Actor() string {
	return "staff:" + s.ID.String()
}

func ContextWithStaff(ctx context.Context, s Staff) context.Context {
	return context.WithValue(ctx, staffKey{}, s)
}

func StaffFromContext(ctx context.Context) (Staff, bool) {
	s, ok := ctx.Value(staffKey{}).(Staff)
	return s, ok
}
