package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

type Hotel struct {
	ID       uuid.UUID
	Code     string
	Name     string
	Address  *string
	TaxID    *string
	Currency domain.Currency
}

// CatalogRepository reads hotel and room rate reference data.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetHotel(ctx context.Context, id uuid.UUID) (*Hotel, error) {
	var h Hotel
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, name, address, tax_id, currency FROM hotels WHERE id = $1`, id,
	).Scan(&h.ID, &h.Code, &h.Name, &h.Address, &h.TaxID, &h.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetHotel: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetHotel: %w", err)
	}
	return &h, nil
}

func (r *CatalogRepository) GetRoomRate(ctx context.Context, hotelID uuid.UUID, roomType string) (*domain.RoomRate, error) {
	var rate domain.RoomRate
	err := r.db.QueryRowContext(ctx,
		`SELECT hotel_id, room_type, nightly_rate, currency FROM room_rates
		WHERE hotel_id = $1 AND room_type = $2`, hotelID, roomType,
	).Scan(&rate.HotelID, &rate.RoomType, &rate.NightlyRate, &rate.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetRoomRate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetRoomRate: %w", err)
	}
	return &rate, nil
}

func (r *CatalogRepository) UpsertRoomRate(ctx context.Context, rate *domain.RoomRate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_rates (hotel_id, room_type, nightly_rate, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hotel_id, room_type) DO UPDATE
		SET nightly_rate = EXCLUDED.nightly_rate, currency = EXCLUDED.currency`,
		rate.HotelID, rate.RoomType, rate.NightlyRate, rate.Currency,
	)
	if err != nil {
		return fmt.Errorf("UpsertRoomRate: %w", err)
	}
	return nil
}
