package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

const guestColumns = `id, hotel_id, first_name, last_name, email, phone, address,
	lifetime_stays, lifetime_spend, loyalty_tier, is_vip, created_at, updated_at`

type GuestRepository struct {
	db *sql.DB
}

func NewGuestRepository(db *sql.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

func (r *GuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Guest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = $1`, id)
	g, err := scanGuest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return g, nil
}

func (r *GuestRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Guest, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = $1 FOR UPDATE`, id)
	g, err := scanGuest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return g, nil
}

func (r *GuestRepository) Create(ctx context.Context, g *domain.Guest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO guests (`+guestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		g.ID, g.HotelID, g.FirstName, g.LastName, g.Email, g.Phone, g.Address,
		g.LifetimeStays, g.LifetimeSpend, g.LoyaltyTier, g.IsVIP, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *GuestRepository) UpdateLoyalty(ctx context.Context, tx *sql.Tx, g *domain.Guest) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE guests SET lifetime_stays = $1, lifetime_spend = $2, loyalty_tier = $3,
			is_vip = $4, updated_at = now()
		WHERE id = $5`,
		g.LifetimeStays, g.LifetimeSpend, g.LoyaltyTier, g.IsVIP, g.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateLoyalty: %w", err)
	}
	return expectOneRow(res, "UpdateLoyalty")
}

func scanGuest(s scanner) (*domain.Guest, error) {
	var g domain.Guest
	err := s.Scan(
		&g.ID, &g.HotelID, &g.FirstName, &g.LastName, &g.Email, &g.Phone, &g.Address,
		&g.LifetimeStays, &g.LifetimeSpend, &g.LoyaltyTier, &g.IsVIP, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
