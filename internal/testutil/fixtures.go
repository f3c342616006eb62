package testutil

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

func SeedHotel(t *testing.T, db *sql.DB, code string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO hotels (id, code, name, address, tax_id, currency)
		 VALUES ($1, $2, $3, $4, $5, 'USD')`,
		id, code, "Hotel "+code, "1 Harbour Road", "TAX-"+code,
	)
	if err != nil {
		t.Fatalf("seed hotel %s: %v", code, err)
	}
	return id
}

func SeedGuest(t *testing.T, db *sql.DB, hotelID uuid.UUID, firstName, lastName string) *domain.Guest {
	t.Helper()

	email := strings.ToLower(firstName) + "@example.com"
	now := time.Now().UTC()
	g := &domain.Guest{
		ID:            uuid.New(),
		HotelID:       hotelID,
		FirstName:     firstName,
		LastName:      lastName,
		Email:         &email,
		LifetimeSpend: decimal.Zero,
		LoyaltyTier:   "BRONZE",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Exec(
		`INSERT INTO guests (id, hotel_id, first_name, last_name, email, lifetime_stays,
			lifetime_spend, loyalty_tier, is_vip, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 0, 0, $6, false, $7, $8)`,
		g.ID, g.HotelID, g.FirstName, g.LastName, g.Email, g.LoyaltyTier, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed guest %s: %v", firstName, err)
	}
	return g
}

func SetGuestSpend(t *testing.T, db *sql.DB, guestID uuid.UUID, spend string) {
	t.Helper()

	if _, err := db.Exec(`UPDATE guests SET lifetime_spend = $1 WHERE id = $2`, spend, guestID); err != nil {
		t.Fatalf("set guest spend %s: %v", guestID, err)
	}
}

func SeedRoomRate(t *testing.T, db *sql.DB, hotelID uuid.UUID, roomType, rate, currency string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO room_rates (hotel_id, room_type, nightly_rate, currency) VALUES ($1, $2, $3, $4)`,
		hotelID, roomType, rate, currency,
	)
	if err != nil {
		t.Fatalf("seed room rate %s: %v", roomType, err)
	}
}

func CountFolioEvents(t *testing.T, db *sql.DB, folioID uuid.UUID, eventType domain.FolioEventType) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM folio_events WHERE folio_id = $1 AND event_type = $2`,
		folioID, eventType,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count folio events for %s: %v", folioID, err)
	}
	return count
}

func CountFolios(t *testing.T, db *sql.DB, bookingID uuid.UUID) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM folios WHERE booking_id = $1`, bookingID).Scan(&count); err != nil {
		t.Fatalf("count folios for booking %s: %v", bookingID, err)
	}
	return count
}

func SetInvoiceDueDate(t *testing.T, db *sql.DB, invoiceID uuid.UUID, due time.Time) {
	t.Helper()

	if _, err := db.Exec(`UPDATE invoices SET due_date = $1 WHERE id = $2`, due, invoiceID); err != nil {
		t.Fatalf("set invoice due date %s: %v", invoiceID, err)
	}
}
