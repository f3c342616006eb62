package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/events"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
	"github.com/josh-kwaku/folio-ledger/internal/repository"
)

type InvoiceOptions struct {
	DueDate *time.Time
	Notes   *string
	Actor   string
}

type InvoicePaymentInput struct {
	Amount    decimal.Decimal
	Method    domain.PaymentMethod
	Reference *string
	Actor     string
}

// InvoiceGenerator projects closed folios into invoices and tracks their
// settlement.
type InvoiceGenerator struct {
	db              *sql.DB
	folios          folioRepo
	guests          guestRepo
	invoices        invoiceRepo
	invoicePayments invoicePaymentRepo
	sequences       sequenceRepo
	audit           auditRepo
	emitter         events.Emitter
	dueDays         int
	now             func() time.Time
}

func NewInvoiceGenerator(
	db *sql.DB,
	folios folioRepo,
	guests guestRepo,
	invoices invoiceRepo,
	invoicePayments invoicePaymentRepo,
	sequences sequenceRepo,
	audit auditRepo,
	emitter events.Emitter,
	dueDays int,
) *InvoiceGenerator {
	return &InvoiceGenerator{
		db:              db,
		folios:          folios,
		guests:          guests,
		invoices:        invoices,
		invoicePayments: invoicePayments,
		sequences:       sequences,
		audit:           audit,
		emitter:         emitter,
		dueDays:         dueDays,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// FromFolio issues the invoice for a closed folio. A folio has at most one
// invoice; repeated calls return it with created false.
func (g *InvoiceGenerator) FromFolio(ctx context.Context, folioID uuid.UUID, opts InvoiceOptions) (_ *domain.Invoice, created bool, err error) {
	defer observe("generate_invoice", time.Now(), &err)
	log := logging.FromContext(ctx)
	actor := actorOrSystem(opts.Actor)

	var (
		invoice *domain.Invoice
		fresh   bool
	)
	err = inTx(ctx, g.db, func(tx *sql.Tx) error {
		f, err := g.folios.GetForUpdate(ctx, tx, folioID)
		if err != nil {
			return err
		}
		if f.Status != domain.FolioStatusClosed {
			return fmt.Errorf("folio %s is %s: %w", f.FolioNumber, f.Status, domain.ErrInvalidState)
		}

		existing, err := g.invoices.GetByFolioIDTx(ctx, tx, f.ID)
		if err == nil {
			invoice = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		guest, err := g.guests.GetByID(ctx, f.GuestID)
		if err != nil {
			return fmt.Errorf("guest: %w", err)
		}
		billTo, err := resolveBillTo(f, guest)
		if err != nil {
			return err
		}

		now := g.now()
		dueDate := now.AddDate(0, 0, g.dueDays)
		if opts.DueDate != nil {
			if opts.DueDate.Before(now.Truncate(24 * time.Hour)) {
				return fmt.Errorf("%w: due date must not be before the issue date", domain.ErrValidation)
			}
			dueDate = opts.DueDate.UTC()
		}

		seq, err := g.sequences.Next(ctx, tx, f.HotelID, domain.SequenceKindInvoice, now.Year())
		if err != nil {
			return err
		}

		inv := &domain.Invoice{
			ID:              uuid.New(),
			HotelID:         f.HotelID,
			FolioID:         f.ID,
			GuestID:         f.GuestID,
			InvoiceNumber:   fmt.Sprintf("INV-%d-%06d", now.Year(), seq),
			Currency:        f.Currency,
			Subtotal:        f.Subtotal,
			TaxAmount:       f.TaxAmount,
			TotalAmount:     f.TotalAmount,
			FolioPaidAmount: f.PaidAmount,
			PaidAmount:      f.PaidAmount,
			BalanceDue:      f.BalanceDue,
			BillTo:          billTo,
			IssueDate:       now,
			DueDate:         dueDate,
			Status:          domain.InvoiceStatusIssued,
			Notes:           opts.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := g.invoices.Create(ctx, tx, inv); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, g.audit, f.ID, domain.FolioEventTypeInvoiceGenerated, actor, map[string]any{
			"invoice_id":     inv.ID,
			"invoice_number": inv.InvoiceNumber,
			"total_amount":   inv.TotalAmount,
		}, now); err != nil {
			return err
		}

		invoice, fresh = inv, true
		return nil
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			winner, getErr := g.invoices.GetByFolioID(ctx, folioID)
			if getErr != nil {
				return nil, false, fmt.Errorf("FromFolio: %w", getErr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("FromFolio: %w", err)
	}
	if !fresh {
		return invoice, false, nil
	}

	log.Info("invoice generated",
		"invoice_id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
		"folio_id", invoice.FolioID,
		"total_amount", invoice.TotalAmount,
		"balance_due", invoice.BalanceDue,
	)
	publish(ctx, g.emitter, invoiceEvent(events.TypeInvoiceGenerated, invoice, actor))

	return invoice, true, nil
}

// resolveBillTo takes each field from the folio billing details, falling
// back to the guest profile.
func resolveBillTo(f *domain.Folio, guest *domain.Guest) (domain.BillTo, error) {
	b := domain.BillTo{
		Email:   firstNonEmpty(f.BillingEmail, guest.Email),
		Address: firstNonEmpty(f.BillingAddress, guest.Address),
		TaxID:   firstNonEmpty(f.BillingTaxID),
	}
	name := guest.FullName()
	if f.BillingName != nil && strings.TrimSpace(*f.BillingName) != "" {
		name = *f.BillingName
	}
	b.Name = strings.TrimSpace(name)
	if b.Name == "" {
		return domain.BillTo{}, fmt.Errorf("%w: bill-to name is missing on folio and guest profile", domain.ErrValidation)
	}
	return b, nil
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}

// MarkPaid recomputes settlement from the payments linked to the invoice and
// moves it to PAID, OVERDUE or back to ISSUED.
func (g *InvoiceGenerator) MarkPaid(ctx context.Context, invoiceID uuid.UUID, actor string) (_ *domain.Invoice, err error) {
	defer observe("mark_paid", time.Now(), &err)
	actor = actorOrSystem(actor)

	var (
		invoice  *domain.Invoice
		previous domain.InvoiceStatus
	)
	err = inTx(ctx, g.db, func(tx *sql.Tx) error {
		inv, err := g.invoices.GetForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		previous = inv.Status
		switch inv.Status {
		case domain.InvoiceStatusCancelled:
			return fmt.Errorf("invoice %s is cancelled: %w", inv.InvoiceNumber, domain.ErrInvalidState)
		case domain.InvoiceStatusPaid:
			invoice = inv
			return nil
		}

		if err := g.settle(ctx, tx, inv, actor); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("MarkPaid: %w", err)
	}

	g.afterSettle(ctx, invoice, previous, actor)
	return invoice, nil
}

func (g *InvoiceGenerator) RecordPayment(ctx context.Context, invoiceID uuid.UUID, in InvoicePaymentInput) (_ *domain.Invoice, err error) {
	defer observe("record_invoice_payment", time.Now(), &err)
	log := logging.FromContext(ctx)

	if err := validatePayment(in.Amount, in.Method); err != nil {
		return nil, fmt.Errorf("RecordPayment: %w", err)
	}
	actor := actorOrSystem(in.Actor)

	var (
		invoice  *domain.Invoice
		payment  *domain.InvoicePayment
		previous domain.InvoiceStatus
	)
	err = inTx(ctx, g.db, func(tx *sql.Tx) error {
		inv, err := g.invoices.GetForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status.Terminal() {
			return fmt.Errorf("invoice %s is %s: %w", inv.InvoiceNumber, inv.Status, domain.ErrInvalidState)
		}
		previous = inv.Status

		p := &domain.InvoicePayment{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			Amount:      domain.RoundMoney(in.Amount),
			Method:      in.Method,
			Reference:   in.Reference,
			PaymentDate: g.now(),
			RecordedBy:  actor,
		}
		if err := g.invoicePayments.Create(ctx, tx, p); err != nil {
			return err
		}

		if err := g.settle(ctx, tx, inv, actor); err != nil {
			return err
		}
		invoice, payment = inv, p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("RecordPayment: %w", err)
	}

	log.Info("invoice payment recorded",
		"invoice_id", invoice.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount,
		"balance_due", invoice.BalanceDue,
	)
	g.afterSettle(ctx, invoice, previous, actor)
	return invoice, nil
}

// settle recomputes paid and balance from the folio snapshot plus invoice
// payments. The caller must hold the invoice row lock.
func (g *InvoiceGenerator) settle(ctx context.Context, tx *sql.Tx, inv *domain.Invoice, actor string) error {
	extra, err := g.invoicePayments.SumByInvoice(ctx, tx, inv.ID)
	if err != nil {
		return err
	}

	now := g.now()
	paid := inv.FolioPaidAmount.Add(extra)
	balance := inv.TotalAmount.Sub(paid)
	status := domain.SettlementStatus(balance, inv.DueDate, now)

	if err := g.invoices.UpdateSettlement(ctx, tx, inv.ID, paid, balance, status); err != nil {
		return err
	}

	previous := inv.Status
	inv.PaidAmount = paid
	inv.BalanceDue = balance
	inv.Status = status
	inv.UpdatedAt = now
	if status == domain.InvoiceStatusPaid && inv.PaidAt == nil {
		inv.PaidAt = &now
	}

	if status != previous {
		if err := writeAudit(ctx, tx, g.audit, inv.FolioID, domain.FolioEventTypeInvoiceStatus, actor, map[string]any{
			"invoice_id": inv.ID,
			"from":       previous,
			"to":         status,
		}, now); err != nil {
			return err
		}
	}
	return nil
}

func (g *InvoiceGenerator) afterSettle(ctx context.Context, inv *domain.Invoice, previous domain.InvoiceStatus, actor string) {
	if inv.Status == previous {
		return
	}
	logging.FromContext(ctx).Info("invoice status changed",
		"invoice_id", inv.ID,
		"from", previous,
		"to", inv.Status,
	)
	switch inv.Status {
	case domain.InvoiceStatusPaid:
		publish(ctx, g.emitter, invoiceEvent(events.TypeInvoicePaid, inv, actor))
	case domain.InvoiceStatusOverdue:
		publish(ctx, g.emitter, invoiceEvent(events.TypeInvoiceOverdue, inv, actor))
	}
}

// Cancel voids an unpaid invoice. The source folio is not touched.
func (g *InvoiceGenerator) Cancel(ctx context.Context, invoiceID uuid.UUID, reason, actor string) (_ *domain.Invoice, err error) {
	defer observe("cancel_invoice", time.Now(), &err)
	log := logging.FromContext(ctx)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("Cancel: %w: reason is required", domain.ErrValidation)
	}
	actor = actorOrSystem(actor)

	var invoice *domain.Invoice
	err = inTx(ctx, g.db, func(tx *sql.Tx) error {
		inv, err := g.invoices.GetForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status.Terminal() {
			return fmt.Errorf("invoice %s is %s: %w", inv.InvoiceNumber, inv.Status, domain.ErrInvalidState)
		}

		now := g.now()
		inv.Status = domain.InvoiceStatusCancelled
		inv.CancelledAt = &now
		inv.CancelledBy = &actor
		inv.CancellationReason = &reason
		inv.UpdatedAt = now
		if err := g.invoices.MarkCancelled(ctx, tx, inv); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, g.audit, inv.FolioID, domain.FolioEventTypeInvoiceCancelled, actor, map[string]any{
			"invoice_id": inv.ID,
			"reason":     reason,
		}, now); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	log.Info("invoice cancelled",
		"invoice_id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
		"reason", reason,
	)
	publish(ctx, g.emitter, invoiceEvent(events.TypeInvoiceCancelled, invoice, actor))
	return invoice, nil
}

// RefreshOverdue re-evaluates ISSUED invoices past their due date.
func (g *InvoiceGenerator) RefreshOverdue(ctx context.Context, limit int) (int, error) {
	due, err := g.invoices.ListPastDue(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("RefreshOverdue: %w", err)
	}

	changed := 0
	for _, inv := range due {
		updated, err := g.MarkPaid(ctx, inv.ID, SystemActor)
		if err != nil {
			logging.FromContext(ctx).Error("failed to refresh invoice status",
				"invoice_id", inv.ID,
				"error", err,
			)
			continue
		}
		if updated.Status != inv.Status {
			changed++
		}
	}
	return changed, nil
}

func invoiceEvent(eventType string, inv *domain.Invoice, actor string) events.Event {
	e := events.New(eventType, inv.HotelID, inv.FolioID, actor, map[string]any{
		"invoice_number": inv.InvoiceNumber,
		"status":         string(inv.Status),
		"total_amount":   inv.TotalAmount.StringFixed(2),
		"balance_due":    inv.BalanceDue.StringFixed(2),
	})
	id := inv.ID
	e.InvoiceID = &id
	return e
}
