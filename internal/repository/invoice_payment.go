package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

type InvoicePaymentRepository struct {
	db *sql.DB
}

func NewInvoicePaymentRepository(db *sql.DB) *InvoicePaymentRepository {
	return &InvoicePaymentRepository{db: db}
}

func (r *InvoicePaymentRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.InvoicePayment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO invoice_payments (id, invoice_id, amount, method, reference, payment_date, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference, p.PaymentDate, p.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *InvoicePaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoicePayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, amount, method, reference, payment_date, recorded_by
		FROM invoice_payments WHERE invoice_id = $1 ORDER BY payment_date, id`, invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByInvoice: %w", err)
	}
	defer rows.Close()

	var payments []domain.InvoicePayment
	for rows.Next() {
		var p domain.InvoicePayment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.PaymentDate, &p.RecordedBy); err != nil {
			return nil, fmt.Errorf("ListByInvoice: scan: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByInvoice: rows: %w", err)
	}
	return payments, nil
}

func (r *InvoicePaymentRepository) SumByInvoice(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var paid decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM invoice_payments WHERE invoice_id = $1`, invoiceID,
	).Scan(&paid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumByInvoice: %w", err)
	}
	return paid, nil
}
