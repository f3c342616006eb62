package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/events"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
)

type PaymentInput struct {
	Amount    decimal.Decimal
	Method    domain.PaymentMethod
	Currency  domain.Currency
	Reference *string
	Actor     string
}

func validatePayment(amount decimal.Decimal, method domain.PaymentMethod) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidAmount)
	}
	if !domain.ValidMoney(amount) {
		return fmt.Errorf("%w: %w: %s exceeds 2 decimal places or the allowed range", domain.ErrValidation, domain.ErrInvalidAmount, amount)
	}
	if !method.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, method)
	}
	return nil
}

// PaymentRecorder records money received against an open folio.
type PaymentRecorder struct {
	db       *sql.DB
	ledger   *Ledger
	folios   folioRepo
	payments paymentRepo
	audit    auditRepo
	emitter  events.Emitter
}

func NewPaymentRecorder(db *sql.DB, ledger *Ledger, folios folioRepo, payments paymentRepo, audit auditRepo, emitter events.Emitter) *PaymentRecorder {
	return &PaymentRecorder{
		db:       db,
		ledger:   ledger,
		folios:   folios,
		payments: payments,
		audit:    audit,
		emitter:  emitter,
	}
}

func (r *PaymentRecorder) Record(ctx context.Context, folioID uuid.UUID, in PaymentInput) (_ *domain.Payment, _ *domain.Folio, err error) {
	defer observe("record_payment", time.Now(), &err)
	log := logging.FromContext(ctx)

	if err := validatePayment(in.Amount, in.Method); err != nil {
		return nil, nil, fmt.Errorf("Record: %w", err)
	}
	if in.Currency != "" && !in.Currency.Valid() {
		return nil, nil, fmt.Errorf("Record: %w: invalid currency %q", domain.ErrValidation, in.Currency)
	}

	var (
		payment *domain.Payment
		folio   *domain.Folio
	)
	err = inTx(ctx, r.db, func(tx *sql.Tx) error {
		f, err := r.folios.GetForUpdate(ctx, tx, folioID)
		if err != nil {
			return err
		}
		if !f.IsOpen() {
			return fmt.Errorf("folio %s is %s: %w", f.FolioNumber, f.Status, domain.ErrInvalidState)
		}

		currency := in.Currency
		if currency == "" {
			currency = f.Currency
		}
		if currency != f.Currency {
			return fmt.Errorf("%w: %w: folio is %s, payment is %s",
				domain.ErrValidation, domain.ErrCurrencyMismatch, f.Currency, currency)
		}

		now := r.ledger.now()
		p := &domain.Payment{
			ID:          uuid.New(),
			FolioID:     f.ID,
			Amount:      domain.RoundMoney(in.Amount),
			Currency:    currency,
			Method:      in.Method,
			Reference:   in.Reference,
			Status:      domain.PaymentRecordStatusCompleted,
			PaymentDate: now,
			RecordedBy:  actorOrSystem(in.Actor),
		}
		if err := r.payments.Create(ctx, tx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		if err := r.ledger.recalculate(ctx, tx, f); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, r.audit, f.ID, domain.FolioEventTypePaymentRecorded, p.RecordedBy, map[string]any{
			"payment_id": p.ID,
			"amount":     p.Amount,
			"method":     p.Method,
		}, now); err != nil {
			return err
		}

		payment, folio = p, f
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("Record: %w", err)
	}

	log.Info("payment recorded",
		"folio_id", folio.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount,
		"method", payment.Method,
		"payment_status", folio.PaymentStatus,
		"balance_due", folio.BalanceDue,
	)
	publish(ctx, r.emitter, events.New(events.TypePaymentRecorded, folio.HotelID, folio.ID, payment.RecordedBy, map[string]any{
		"payment_id":     payment.ID.String(),
		"amount":         payment.Amount.StringFixed(2),
		"method":         string(payment.Method),
		"payment_status": string(folio.PaymentStatus),
		"balance_due":    folio.BalanceDue.StringFixed(2),
	}))

	return payment, folio, nil
}
