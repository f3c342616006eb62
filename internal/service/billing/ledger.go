package billing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/events"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
)

// Charge is a line item to be posted to an open folio. TaxRate is a
// percentage.
type Charge struct {
	Description   string
	Category      domain.ChargeCategory
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TaxRate       decimal.Decimal
	ServiceDate   time.Time
	ReferenceID   *string
	ReferenceType *string
	Actor         string
}

func (c Charge) validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, c.Category)
	}
	if c.Quantity.IsZero() {
		return fmt.Errorf("%w: quantity must not be zero", domain.ErrValidation)
	}
	if !domain.ValidQuantity(c.Quantity) {
		return fmt.Errorf("%w: quantity %s exceeds 3 decimal places or the allowed range", domain.ErrValidation, c.Quantity)
	}
	if c.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", domain.ErrValidation)
	}
	if !domain.ValidMoney(c.UnitPrice) {
		return fmt.Errorf("%w: unit price %s exceeds 2 decimal places or the allowed range", domain.ErrValidation, c.UnitPrice)
	}
	if !domain.ValidTaxRate(c.TaxRate) {
		return fmt.Errorf("%w: tax rate must be between 0 and 100 with at most 3 decimal places", domain.ErrValidation)
	}
	if total, tax := domain.LineAmounts(c.Quantity, c.UnitPrice, c.TaxRate); !domain.ValidMoney(total.Add(tax)) {
		return fmt.Errorf("%w: line total exceeds the allowed range", domain.ErrValidation)
	}
	if c.ReferenceType != nil && *c.ReferenceType == domain.ReferenceTypeVoid {
		return fmt.Errorf("%w: reference type %s is reserved", domain.ErrValidation, domain.ReferenceTypeVoid)
	}
	return nil
}

// Posting is the outcome of a ledger mutation: the item written and the
// folio with its recomputed aggregates.
type Posting struct {
	Item  domain.FolioItem
	Folio domain.Folio
}

// Ledger posts and voids folio line items and keeps the folio aggregates in
// step with them.
type Ledger struct {
	db       *sql.DB
	folios   folioRepo
	items    itemRepo
	payments paymentRepo
	audit    auditRepo
	emitter  events.Emitter
	now      func() time.Time
}

func NewLedger(db *sql.DB, folios folioRepo, items itemRepo, payments paymentRepo, audit auditRepo, emitter events.Emitter) *Ledger {
	return &Ledger{
		db:       db,
		folios:   folios,
		items:    items,
		payments: payments,
		audit:    audit,
		emitter:  emitter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *Ledger) Post(ctx context.Context, folioID uuid.UUID, ch Charge) (_ *Posting, err error) {
	defer observe("post", time.Now(), &err)
	log := logging.FromContext(ctx)

	if err := ch.validate(); err != nil {
		return nil, fmt.Errorf("Post: %w", err)
	}

	var result *Posting
	err = inTx(ctx, l.db, func(tx *sql.Tx) error {
		folio, err := l.folios.GetForUpdate(ctx, tx, folioID)
		if err != nil {
			return err
		}
		item, err := l.post(ctx, tx, folio, ch)
		if err != nil {
			return err
		}
		result = &Posting{Item: *item, Folio: *folio}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Post: %w", err)
	}

	log.Info("charge posted",
		"folio_id", folioID,
		"item_id", result.Item.ID,
		"category", result.Item.Category,
		"total_price", result.Item.TotalPrice,
		"balance_due", result.Folio.BalanceDue,
	)
	publish(ctx, l.emitter, chargeEvent(events.TypeChargePosted, &result.Folio, &result.Item))

	return result, nil
}

// post writes an item to a folio already locked by tx and recomputes the
// folio aggregates. folio is updated in place.
func (l *Ledger) post(ctx context.Context, tx *sql.Tx, folio *domain.Folio, ch Charge) (*domain.FolioItem, error) {
	if !folio.IsOpen() {
		return nil, fmt.Errorf("post: folio %s is %s: %w", folio.FolioNumber, folio.Status, domain.ErrInvalidState)
	}

	now := l.now()
	serviceDate := ch.ServiceDate
	if serviceDate.IsZero() {
		serviceDate = now
	}
	total, tax := domain.LineAmounts(ch.Quantity, ch.UnitPrice, ch.TaxRate)

	item := &domain.FolioItem{
		ID:            uuid.New(),
		FolioID:       folio.ID,
		Description:   strings.TrimSpace(ch.Description),
		Category:      ch.Category,
		Quantity:      ch.Quantity,
		UnitPrice:     ch.UnitPrice,
		TotalPrice:    total,
		TaxRate:       ch.TaxRate,
		TaxAmount:     tax,
		ServiceDate:   serviceDate,
		PostedAt:      now,
		PostedBy:      actorOrSystem(ch.Actor),
		ReferenceID:   ch.ReferenceID,
		ReferenceType: ch.ReferenceType,
	}
	if err := l.items.Create(ctx, tx, item); err != nil {
		return nil, fmt.Errorf("post: create item: %w", err)
	}

	if err := l.recalculate(ctx, tx, folio); err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}

	if err := writeAudit(ctx, tx, l.audit, folio.ID, domain.FolioEventTypeChargePosted, item.PostedBy, map[string]any{
		"item_id":     item.ID,
		"category":    item.Category,
		"total_price": item.TotalPrice,
		"tax_amount":  item.TaxAmount,
	}, now); err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}

	return item, nil
}

// Void reverses an item with a compensating entry. Both the original and the
// reversal are flagged voided, so neither counts toward the aggregates and
// the pair nets to zero.
func (l *Ledger) Void(ctx context.Context, itemID uuid.UUID, reason, actor string) (_ *Posting, err error) {
	defer observe("void", time.Now(), &err)
	log := logging.FromContext(ctx)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("Void: %w: reason is required", domain.ErrValidation)
	}
	actor = actorOrSystem(actor)

	original, err := l.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("Void: %w", err)
	}

	var result *Posting
	err = inTx(ctx, l.db, func(tx *sql.Tx) error {
		folio, err := l.folios.GetForUpdate(ctx, tx, original.FolioID)
		if err != nil {
			return err
		}
		if !folio.IsOpen() {
			return fmt.Errorf("folio %s is %s: %w", folio.FolioNumber, folio.Status, domain.ErrInvalidState)
		}

		item, err := l.items.GetForUpdate(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.IsVoided {
			return fmt.Errorf("item %s already voided: %w", item.ID, domain.ErrInvalidState)
		}

		now := l.now()
		item.VoidedAt = &now
		item.VoidedBy = &actor
		item.VoidReason = &reason
		if err := l.items.MarkVoided(ctx, tx, item); err != nil {
			return err
		}

		reversal := reversalOf(item, now)
		if err := l.items.Create(ctx, tx, reversal); err != nil {
			return fmt.Errorf("create reversal: %w", err)
		}

		if err := l.recalculate(ctx, tx, folio); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, l.audit, folio.ID, domain.FolioEventTypeChargeVoided, actor, map[string]any{
			"item_id":     item.ID,
			"reversal_id": reversal.ID,
			"reason":      reason,
			"total_price": item.TotalPrice,
		}, now); err != nil {
			return err
		}

		result = &Posting{Item: *reversal, Folio: *folio}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Void: %w", err)
	}

	log.Info("charge voided",
		"folio_id", result.Folio.ID,
		"item_id", itemID,
		"reversal_id", result.Item.ID,
		"balance_due", result.Folio.BalanceDue,
	)
	publish(ctx, l.emitter, chargeEvent(events.TypeChargeVoided, &result.Folio, &result.Item))

	return result, nil
}

func reversalOf(item *domain.FolioItem, now time.Time) *domain.FolioItem {
	refID := item.ID.String()
	refType := domain.ReferenceTypeVoid
	return &domain.FolioItem{
		ID:            uuid.New(),
		FolioID:       item.FolioID,
		Description:   "VOID: " + item.Description,
		Category:      item.Category,
		Quantity:      item.Quantity.Neg(),
		UnitPrice:     item.UnitPrice,
		TotalPrice:    item.TotalPrice.Neg(),
		TaxRate:       item.TaxRate,
		TaxAmount:     item.TaxAmount.Neg(),
		ServiceDate:   item.ServiceDate,
		PostedAt:      now,
		PostedBy:      *item.VoidedBy,
		IsVoided:      true,
		VoidedAt:      item.VoidedAt,
		VoidedBy:      item.VoidedBy,
		VoidReason:    item.VoidReason,
		ReferenceID:   &refID,
		ReferenceType: &refType,
	}
}

// RecalculateAggregates re-sums a folio in its own transaction. Mutations
// recompute inline; this is for repair and reconciliation.
func (l *Ledger) RecalculateAggregates(ctx context.Context, folioID uuid.UUID) (_ *domain.Folio, err error) {
	defer observe("recalculate", time.Now(), &err)

	var folio *domain.Folio
	err = inTx(ctx, l.db, func(tx *sql.Tx) error {
		f, err := l.folios.GetForUpdate(ctx, tx, folioID)
		if err != nil {
			return err
		}
		if err := l.recalculate(ctx, tx, f); err != nil {
			return err
		}
		folio = f
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("RecalculateAggregates: %w", err)
	}
	return folio, nil
}

// recalculate re-sums items and payments inside tx and writes the result.
// The caller must hold the folio row lock.
func (l *Ledger) recalculate(ctx context.Context, tx *sql.Tx, folio *domain.Folio) error {
	subtotal, tax, err := l.items.SumActive(ctx, tx, folio.ID)
	if err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}
	paid, err := l.payments.SumByFolio(ctx, tx, folio.ID)
	if err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}

	agg := domain.ComputeAggregates(subtotal, tax, paid)
	if err := l.folios.UpdateAggregates(ctx, tx, folio.ID, agg); err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}

	folio.Subtotal = agg.Subtotal
	folio.TaxAmount = agg.TaxAmount
	folio.TotalAmount = agg.TotalAmount
	folio.PaidAmount = agg.PaidAmount
	folio.BalanceDue = agg.BalanceDue
	folio.PaymentStatus = agg.PaymentStatus
	folio.Version++
	return nil
}

func chargeEvent(eventType string, folio *domain.Folio, item *domain.FolioItem) events.Event {
	return events.New(eventType, folio.HotelID, folio.ID, item.PostedBy, map[string]any{
		"item_id":     item.ID.String(),
		"category":    string(item.Category),
		"total_price": item.TotalPrice.StringFixed(2),
		"tax_amount":  item.TaxAmount.StringFixed(2),
		"balance_due": folio.BalanceDue.StringFixed(2),
	})
}
