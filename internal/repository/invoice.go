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

const invoiceColumns = `id, hotel_id, folio_id, guest_id, invoice_number, currency,
	subtotal, tax_amount, total_amount, folio_paid_amount, paid_amount, balance_due,
	bill_to_name, bill_to_email, bill_to_address, bill_to_tax_id,
	issue_date, due_date, status, notes, paid_at,
	cancelled_at, cancelled_by, cancellation_reason, created_at, updated_at`

type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := getInvoice(ctx, r.db, `WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) GetByFolioID(ctx context.Context, folioID uuid.UUID) (*domain.Invoice, error) {
	inv, err := getInvoice(ctx, r.db, `WHERE folio_id = $1`, folioID)
	if err != nil {
		return nil, fmt.Errorf("GetByFolioID: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) GetByFolioIDTx(ctx context.Context, tx *sql.Tx, folioID uuid.UUID) (*domain.Invoice, error) {
	inv, err := getInvoice(ctx, tx, `WHERE folio_id = $1`, folioID)
	if err != nil {
		return nil, fmt.Errorf("GetByFolioIDTx: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Invoice, error) {
	inv, err := getInvoice(ctx, tx, `WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return inv, nil
}

// ListPastDue returns ISSUED invoices whose due date has passed.
func (r *InvoiceRepository) ListPastDue(ctx context.Context, limit int) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		WHERE status = $1 AND due_date < now()
		ORDER BY due_date LIMIT $2`,
		domain.InvoiceStatusIssued, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListPastDue: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPastDue: scan: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPastDue: rows: %w", err)
	}
	return invoices, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO invoices (
			id, hotel_id, folio_id, guest_id, invoice_number, currency,
			subtotal, tax_amount, total_amount, folio_paid_amount, paid_amount, balance_due,
			bill_to_name, bill_to_email, bill_to_address, bill_to_tax_id,
			issue_date, due_date, status, notes, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23)`,
		inv.ID, inv.HotelID, inv.FolioID, inv.GuestID, inv.InvoiceNumber, inv.Currency,
		inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.FolioPaidAmount, inv.PaidAmount, inv.BalanceDue,
		inv.BillTo.Name, inv.BillTo.Email, inv.BillTo.Address, inv.BillTo.TaxID,
		inv.IssueDate, inv.DueDate, inv.Status, inv.Notes, inv.PaidAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) UpdateSettlement(ctx context.Context, tx *sql.Tx, id uuid.UUID, paid, balance decimal.Decimal, status domain.InvoiceStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET paid_amount = $1, balance_due = $2, status = $3,
			paid_at = CASE WHEN $3 = 'PAID' AND paid_at IS NULL THEN now() ELSE paid_at END,
			updated_at = now()
		WHERE id = $4`,
		paid, balance, string(status), id,
	)
	if err != nil {
		return fmt.Errorf("UpdateSettlement: %w", err)
	}
	return expectOneRow(res, "UpdateSettlement")
}

func (r *InvoiceRepository) MarkCancelled(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET status = $1, cancelled_at = $2, cancelled_by = $3,
			cancellation_reason = $4, updated_at = now()
		WHERE id = $5`,
		domain.InvoiceStatusCancelled, inv.CancelledAt, inv.CancelledBy,
		inv.CancellationReason, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("MarkCancelled: %w", err)
	}
	return expectOneRow(res, "MarkCancelled")
}

func getInvoice(ctx context.Context, q querier, where string, args ...any) (*domain.Invoice, error) {
	row := q.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices `+where, args...)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func scanInvoice(s scanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := s.Scan(
		&inv.ID, &inv.HotelID, &inv.FolioID, &inv.GuestID, &inv.InvoiceNumber, &inv.Currency,
		&inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount, &inv.FolioPaidAmount, &inv.PaidAmount, &inv.BalanceDue,
		&inv.BillTo.Name, &inv.BillTo.Email, &inv.BillTo.Address, &inv.BillTo.TaxID,
		&inv.IssueDate, &inv.DueDate, &inv.Status, &inv.Notes, &inv.PaidAt,
		&inv.CancelledAt, &inv.CancelledBy, &inv.CancellationReason, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
