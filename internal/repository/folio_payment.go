package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

const folioPaymentColumns = `id, folio_id, amount, currency, method, reference, status,
	payment_date, recorded_by`

type FolioPaymentRepository struct {
	db *sql.DB
}

func NewFolioPaymentRepository(db *sql.DB) *FolioPaymentRepository {
	return &FolioPaymentRepository{db: db}
}

func (r *FolioPaymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO folio_payments (
			id, folio_id, amount, currency, method, reference, status, payment_date, recorded_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.FolioID, p.Amount, p.Currency, p.Method, p.Reference, p.Status,
		p.PaymentDate, p.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FolioPaymentRepository) ListByFolio(ctx context.Context, folioID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folioPaymentColumns+` FROM folio_payments
		WHERE folio_id = $1 ORDER BY payment_date, id`, folioID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByFolio: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID, &p.FolioID, &p.Amount, &p.Currency, &p.Method, &p.Reference, &p.Status,
			&p.PaymentDate, &p.RecordedBy,
		); err != nil {
			return nil, fmt.Errorf("ListByFolio: scan: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByFolio: rows: %w", err)
	}
	return payments, nil
}

func (r *FolioPaymentRepository) SumByFolio(ctx context.Context, tx *sql.Tx, folioID uuid.UUID) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM folio_payments
		WHERE folio_id = $1 AND status = $2`, folioID, domain.PaymentRecordStatusCompleted,
	).Scan(&paid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumByFolio: %w", err)
	}
	return paid, nil
}
