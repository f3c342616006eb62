package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

const folioItemColumns = `id, folio_id, description, category, quantity, unit_price,
	total_price, tax_rate, tax_amount, service_date, posted_at, posted_by,
	is_voided, voided_at, voided_by, void_reason, reference_id, reference_type`

type FolioItemRepository struct {
	db *sql.DB
}

func NewFolioItemRepository(db *sql.DB) *FolioItemRepository {
	return &FolioItemRepository{db: db}
}

func (r *FolioItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FolioItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+folioItemColumns+` FROM folio_items WHERE id = $1`, id,
	)
	item, err := scanFolioItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return item, nil
}

func (r *FolioItemRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.FolioItem, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+folioItemColumns+` FROM folio_items WHERE id = $1 FOR UPDATE`, id,
	)
	item, err := scanFolioItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return item, nil
}

func (r *FolioItemRepository) ListByFolio(ctx context.Context, folioID uuid.UUID) ([]domain.FolioItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folioItemColumns+` FROM folio_items
		WHERE folio_id = $1 ORDER BY posted_at, id`, folioID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByFolio: %w", err)
	}
	defer rows.Close()

	var items []domain.FolioItem
	for rows.Next() {
		item, err := scanFolioItem(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByFolio: scan: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByFolio: rows: %w", err)
	}
	return items, nil
}

func (r *FolioItemRepository) Create(ctx context.Context, tx *sql.Tx, item *domain.FolioItem) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO folio_items (
			id, folio_id, description, category, quantity, unit_price,
			total_price, tax_rate, tax_amount, service_date, posted_at, posted_by,
			is_voided, voided_at, voided_by, void_reason, reference_id, reference_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		item.ID, item.FolioID, item.Description, item.Category, item.Quantity, item.UnitPrice,
		item.TotalPrice, item.TaxRate, item.TaxAmount, item.ServiceDate, item.PostedAt, item.PostedBy,
		item.IsVoided, item.VoidedAt, item.VoidedBy, item.VoidReason, item.ReferenceID, item.ReferenceType,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// MarkVoided flags an item as voided. It is the only in-place change an item
// may receive.
func (r *FolioItemRepository) MarkVoided(ctx context.Context, tx *sql.Tx, item *domain.FolioItem) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE folio_items SET is_voided = true, voided_at = $1, voided_by = $2, void_reason = $3
		WHERE id = $4 AND is_voided = false`,
		item.VoidedAt, item.VoidedBy, item.VoidReason, item.ID,
	)
	if err != nil {
		return fmt.Errorf("MarkVoided: %w", err)
	}
	if err := expectOneRow(res, "MarkVoided"); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("MarkVoided: %w", domain.ErrInvalidState)
		}
		return err
	}
	return nil
}

// SumActive totals price and tax over the folio's non-voided items.
func (r *FolioItemRepository) SumActive(ctx context.Context, tx *sql.Tx, folioID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var subtotal, tax decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price), 0), COALESCE(SUM(tax_amount), 0)
		FROM folio_items WHERE folio_id = $1 AND is_voided = false`, folioID,
	).Scan(&subtotal, &tax)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("SumActive: %w", err)
	}
	return subtotal, tax, nil
}

func scanFolioItem(s scanner) (*domain.FolioItem, error) {
	var i domain.FolioItem
	err := s.Scan(
		&i.ID, &i.FolioID, &i.Description, &i.Category, &i.Quantity, &i.UnitPrice,
		&i.TotalPrice, &i.TaxRate, &i.TaxAmount, &i.ServiceDate, &i.PostedAt, &i.PostedBy,
		&i.IsVoided, &i.VoidedAt, &i.VoidedBy, &i.VoidReason, &i.ReferenceID, &i.ReferenceType,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
