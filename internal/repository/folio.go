package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

const folioColumns = `id, hotel_id, booking_id, guest_id, folio_number, status, currency,
	subtotal, tax_amount, total_amount, paid_amount, balance_due, payment_status,
	billing_name, billing_email, billing_address, billing_tax_id,
	check_in_date, check_out_date, opened_at, opened_by, closed_at, closed_by,
	close_override_by, close_override_reason, version, updated_at`

type FolioRepository struct {
	db *sql.DB
}

func NewFolioRepository(db *sql.DB) *FolioRepository {
	return &FolioRepository{db: db}
}

func (r *FolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Folio, error) {
	f, err := getFolio(ctx, r.db, `WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return f, nil
}

func (r *FolioRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Folio, error) {
	f, err := getFolio(ctx, r.db, `WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("GetByBookingID: %w", err)
	}
	return f, nil
}

func (r *FolioRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Folio, error) {
	f, err := getFolio(ctx, tx, `WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return f, nil
}

func (r *FolioRepository) ListByHotel(ctx context.Context, hotelID uuid.UUID, status domain.FolioStatus, limit, offset int) ([]domain.Folio, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folioColumns+` FROM folios
		WHERE hotel_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY opened_at DESC LIMIT $3 OFFSET $4`,
		hotelID, string(status), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByHotel: %w", err)
	}
	defer rows.Close()

	var folios []domain.Folio
	for rows.Next() {
		f, err := scanFolio(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByHotel: scan: %w", err)
		}
		folios = append(folios, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByHotel: rows: %w", err)
	}
	return folios, nil
}

func (r *FolioRepository) Create(ctx context.Context, tx *sql.Tx, f *domain.Folio) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO folios (
			id, hotel_id, booking_id, guest_id, folio_number, status, currency,
			subtotal, tax_amount, total_amount, paid_amount, balance_due, payment_status,
			billing_name, billing_email, billing_address, billing_tax_id,
			check_in_date, check_out_date, opened_at, opened_by, version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23)`,
		f.ID, f.HotelID, f.BookingID, f.GuestID, f.FolioNumber, f.Status, f.Currency,
		f.Subtotal, f.TaxAmount, f.TotalAmount, f.PaidAmount, f.BalanceDue, f.PaymentStatus,
		f.BillingName, f.BillingEmail, f.BillingAddress, f.BillingTaxID,
		f.CheckInDate, f.CheckOutDate, f.OpenedAt, f.OpenedBy, f.Version, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// UpdateAggregates writes recomputed totals. The caller must hold the row
// lock taken by GetForUpdate.
func (r *FolioRepository) UpdateAggregates(ctx context.Context, tx *sql.Tx, id uuid.UUID, agg domain.Aggregates) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE folios SET subtotal = $1, tax_amount = $2, total_amount = $3,
			paid_amount = $4, balance_due = $5, payment_status = $6,
			version = version + 1, updated_at = now()
		WHERE id = $7`,
		agg.Subtotal, agg.TaxAmount, agg.TotalAmount, agg.PaidAmount,
		agg.BalanceDue, agg.PaymentStatus, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateAggregates: %w", err)
	}
	return expectOneRow(res, "UpdateAggregates")
}

func (r *FolioRepository) MarkClosed(ctx context.Context, tx *sql.Tx, f *domain.Folio) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE folios SET status = $1, closed_at = $2, closed_by = $3,
			close_override_by = $4, close_override_reason = $5,
			version = version + 1, updated_at = now()
		WHERE id = $6 AND status = $7`,
		domain.FolioStatusClosed, f.ClosedAt, f.ClosedBy,
		f.CloseOverrideBy, f.CloseOverrideReason, f.ID, domain.FolioStatusOpen,
	)
	if err != nil {
		return fmt.Errorf("MarkClosed: %w", err)
	}
	if err := expectOneRow(res, "MarkClosed"); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("MarkClosed: %w", domain.ErrInvalidState)
		}
		return err
	}
	return nil
}

func getFolio(ctx context.Context, q querier, where string, args ...any) (*domain.Folio, error) {
	row := q.QueryRowContext(ctx, `SELECT `+folioColumns+` FROM folios `+where, args...)
	f, err := scanFolio(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func scanFolio(s scanner) (*domain.Folio, error) {
	var f domain.Folio
	err := s.Scan(
		&f.ID, &f.HotelID, &f.BookingID, &f.GuestID, &f.FolioNumber, &f.Status, &f.Currency,
		&f.Subtotal, &f.TaxAmount, &f.TotalAmount, &f.PaidAmount, &f.BalanceDue, &f.PaymentStatus,
		&f.BillingName, &f.BillingEmail, &f.BillingAddress, &f.BillingTaxID,
		&f.CheckInDate, &f.CheckOutDate, &f.OpenedAt, &f.OpenedBy, &f.ClosedAt, &f.ClosedBy,
		&f.CloseOverrideBy, &f.CloseOverrideReason, &f.Version, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
