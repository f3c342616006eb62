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

const referenceTypeBooking = "BOOKING"

// BillingInfo describes the stay a folio is opened for. When NightlyRate is
// zero the rate and currency come from the room catalog.
type BillingInfo struct {
	HotelID        uuid.UUID
	BookingID      uuid.UUID
	GuestID        uuid.UUID
	CheckIn        time.Time
	CheckOut       time.Time
	RoomType       string
	NightlyRate    decimal.Decimal
	TaxRate        decimal.Decimal
	Currency       domain.Currency
	BillingName    *string
	BillingEmail   *string
	BillingAddress *string
	BillingTaxID   *string
	Actor          string
}

func (b BillingInfo) validate() error {
	switch {
	case b.HotelID == uuid.Nil:
		return fmt.Errorf("%w: hotel id is required", domain.ErrValidation)
	case b.BookingID == uuid.Nil:
		return fmt.Errorf("%w: booking id is required", domain.ErrValidation)
	case b.GuestID == uuid.Nil:
		return fmt.Errorf("%w: guest id is required", domain.ErrValidation)
	case !b.CheckOut.After(b.CheckIn):
		return fmt.Errorf("%w: check-out must be after check-in", domain.ErrValidation)
	case b.NightlyRate.IsNegative():
		return fmt.Errorf("%w: nightly rate must not be negative", domain.ErrValidation)
	case !domain.ValidMoney(b.NightlyRate):
		return fmt.Errorf("%w: nightly rate %s exceeds 2 decimal places or the allowed range", domain.ErrValidation, b.NightlyRate)
	case !domain.ValidTaxRate(b.TaxRate):
		return fmt.Errorf("%w: tax rate must be between 0 and 100 with at most 3 decimal places", domain.ErrValidation)
	case b.Currency != "" && !b.Currency.Valid():
		return fmt.Errorf("%w: invalid currency %q", domain.ErrValidation, b.Currency)
	}
	return nil
}

type CloseOptions struct {
	AllowUnpaid    bool
	OverrideReason string
	Actor          string
}

// Coordinator opens a folio when a stay starts and closes it when the stay
// ends.
type Coordinator struct {
	db              *sql.DB
	ledger          *Ledger
	folios          folioRepo
	guests          guestRepo
	catalog         rateCatalog
	sequences       sequenceRepo
	audit           auditRepo
	tiers           *TierTable
	emitter         events.Emitter
	defaultCurrency domain.Currency
}

func NewCoordinator(
	db *sql.DB,
	ledger *Ledger,
	folios folioRepo,
	guests guestRepo,
	catalog rateCatalog,
	sequences sequenceRepo,
	audit auditRepo,
	tiers *TierTable,
	emitter events.Emitter,
	defaultCurrency domain.Currency,
) *Coordinator {
	if tiers == nil {
		tiers = DefaultTierTable()
	}
	return &Coordinator{
		db:              db,
		ledger:          ledger,
		folios:          folios,
		guests:          guests,
		catalog:         catalog,
		sequences:       sequences,
		audit:           audit,
		tiers:           tiers,
		emitter:         emitter,
		defaultCurrency: defaultCurrency,
	}
}

// Open returns the folio for the booking, creating it with the initial room
// charge if it does not exist yet. created reports whether this call
// created it.
func (c *Coordinator) Open(ctx context.Context, info BillingInfo) (_ *domain.Folio, created bool, err error) {
	defer observe("open", time.Now(), &err)
	log := logging.FromContext(ctx)

	if err := info.validate(); err != nil {
		return nil, false, fmt.Errorf("Open: %w", err)
	}

	existing, err := c.existingFolio(ctx, info)
	if err != nil {
		return nil, false, fmt.Errorf("Open: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	guest, err := c.guests.GetByID(ctx, info.GuestID)
	if err != nil {
		return nil, false, fmt.Errorf("Open: guest: %w", err)
	}
	if guest.HotelID != info.HotelID {
		return nil, false, fmt.Errorf("Open: guest: %w", domain.ErrNotFound)
	}

	rate, currency, err := c.resolveRate(ctx, info)
	if err != nil {
		return nil, false, fmt.Errorf("Open: %w", err)
	}

	nights := domain.StayNights(info.CheckIn, info.CheckOut)
	actor := actorOrSystem(info.Actor)

	var (
		folio *domain.Folio
		room  *domain.FolioItem
	)
	err = inTx(ctx, c.db, func(tx *sql.Tx) error {
		now := c.ledger.now()
		seq, err := c.sequences.Next(ctx, tx, info.HotelID, domain.SequenceKindFolio, now.Year())
		if err != nil {
			return err
		}

		f := &domain.Folio{
			ID:             uuid.New(),
			HotelID:        info.HotelID,
			BookingID:      info.BookingID,
			GuestID:        info.GuestID,
			FolioNumber:    fmt.Sprintf("F-%d-%06d", now.Year(), seq),
			Status:         domain.FolioStatusOpen,
			Currency:       currency,
			Subtotal:       decimal.Zero,
			TaxAmount:      decimal.Zero,
			TotalAmount:    decimal.Zero,
			PaidAmount:     decimal.Zero,
			BalanceDue:     decimal.Zero,
			PaymentStatus:  domain.PaymentStatusUnpaid,
			BillingName:    info.BillingName,
			BillingEmail:   info.BillingEmail,
			BillingAddress: info.BillingAddress,
			BillingTaxID:   info.BillingTaxID,
			CheckInDate:    info.CheckIn,
			CheckOutDate:   info.CheckOut,
			OpenedAt:       now,
			OpenedBy:       actor,
			UpdatedAt:      now,
		}
		if err := c.folios.Create(ctx, tx, f); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, c.audit, f.ID, domain.FolioEventTypeOpened, actor, map[string]any{
			"booking_id":   f.BookingID,
			"folio_number": f.FolioNumber,
			"nights":       nights,
			"nightly_rate": rate,
		}, now); err != nil {
			return err
		}

		bookingRef := info.BookingID.String()
		refType := referenceTypeBooking
		item, err := c.ledger.post(ctx, tx, f, Charge{
			Description:   roomChargeDescription(info.RoomType, nights),
			Category:      domain.ChargeCategoryRoom,
			Quantity:      decimal.NewFromInt(int64(nights)),
			UnitPrice:     rate,
			TaxRate:       info.TaxRate,
			ServiceDate:   info.CheckIn,
			ReferenceID:   &bookingRef,
			ReferenceType: &refType,
			Actor:         actor,
		})
		if err != nil {
			return err
		}

		folio, room = f, item
		return nil
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost the race for this booking; the winner's folio is the answer.
			winner, getErr := c.existingFolio(ctx, info)
			if getErr != nil {
				return nil, false, fmt.Errorf("Open: %w", getErr)
			}
			if winner == nil {
				return nil, false, fmt.Errorf("Open: %w", err)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("Open: %w", err)
	}

	log.Info("folio opened",
		"folio_id", folio.ID,
		"folio_number", folio.FolioNumber,
		"booking_id", folio.BookingID,
		"nights", nights,
		"total_amount", folio.TotalAmount,
	)
	publish(ctx, c.emitter,
		events.New(events.TypeFolioOpened, folio.HotelID, folio.ID, actor, map[string]any{
			"booking_id":   folio.BookingID.String(),
			"guest_id":     folio.GuestID.String(),
			"folio_number": folio.FolioNumber,
		}),
		chargeEvent(events.TypeChargePosted, folio, room),
	)

	return folio, true, nil
}

func (c *Coordinator) existingFolio(ctx context.Context, info BillingInfo) (*domain.Folio, error) {
	f, err := c.folios.GetByBookingID(ctx, info.BookingID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if f.HotelID != info.HotelID {
		return nil, fmt.Errorf("booking %s: %w", info.BookingID, domain.ErrNotFound)
	}
	return f, nil
}

func (c *Coordinator) resolveRate(ctx context.Context, info BillingInfo) (decimal.Decimal, domain.Currency, error) {
	rate, currency := info.NightlyRate, info.Currency

	if rate.IsZero() {
		if info.RoomType == "" {
			return decimal.Zero, "", fmt.Errorf("%w: nightly rate or room type is required", domain.ErrValidation)
		}
		catalogRate, err := c.catalog.GetRoomRate(ctx, info.HotelID, info.RoomType)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return decimal.Zero, "", fmt.Errorf("%w: no nightly rate for room type %s", domain.ErrValidation, info.RoomType)
			}
			return decimal.Zero, "", err
		}
		rate = catalogRate.NightlyRate
		if currency == "" {
			currency = catalogRate.Currency
		}
	}

	if currency == "" {
		currency = c.defaultCurrency
	}
	return rate, currency, nil
}

func roomChargeDescription(roomType string, nights int) string {
	label := "Room"
	if roomType != "" {
		label = "Room (" + roomType + ")"
	}
	if nights == 1 {
		return label + ", 1 night"
	}
	return fmt.Sprintf("%s, %d nights", label, nights)
}

// Close settles the folio and credits the stay to the guest's loyalty
// profile. A positive balance is rejected unless AllowUnpaid is set, in
// which case the override reason is required and recorded.
func (c *Coordinator) Close(ctx context.Context, folioID uuid.UUID, opts CloseOptions) (_ *domain.Folio, err error) {
	defer observe("close", time.Now(), &err)
	log := logging.FromContext(ctx)

	actor := actorOrSystem(opts.Actor)
	reason := strings.TrimSpace(opts.OverrideReason)

	var (
		folio    *domain.Folio
		guest    *domain.Guest
		override bool
	)
	err = inTx(ctx, c.db, func(tx *sql.Tx) error {
		f, err := c.folios.GetForUpdate(ctx, tx, folioID)
		if err != nil {
			return err
		}
		if !f.IsOpen() {
			return fmt.Errorf("folio %s is %s: %w", f.FolioNumber, f.Status, domain.ErrInvalidState)
		}

		if err := c.ledger.recalculate(ctx, tx, f); err != nil {
			return err
		}

		now := c.ledger.now()
		if f.BalanceDue.IsPositive() {
			if !opts.AllowUnpaid {
				return fmt.Errorf("balance due %s %s: %w", f.BalanceDue.StringFixed(2), f.Currency, domain.ErrInsufficientPayment)
			}
			if reason == "" {
				return fmt.Errorf("%w: override reason is required to close with a balance due", domain.ErrValidation)
			}
			override = true
			f.CloseOverrideBy = &actor
			f.CloseOverrideReason = &reason
		}

		f.ClosedAt = &now
		f.ClosedBy = &actor
		if err := c.folios.MarkClosed(ctx, tx, f); err != nil {
			return err
		}
		f.Status = domain.FolioStatusClosed

		if override {
			if err := writeAudit(ctx, tx, c.audit, f.ID, domain.FolioEventTypeCloseOverride, actor, map[string]any{
				"reason":      reason,
				"balance_due": f.BalanceDue,
			}, now); err != nil {
				return err
			}
		}

		g, err := c.guests.GetForUpdate(ctx, tx, f.GuestID)
		if err != nil {
			return fmt.Errorf("guest: %w", err)
		}
		c.tiers.Accrue(g, f.TotalAmount)
		if err := c.guests.UpdateLoyalty(ctx, tx, g); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, c.audit, f.ID, domain.FolioEventTypeClosed, actor, map[string]any{
			"total_amount":   f.TotalAmount,
			"paid_amount":    f.PaidAmount,
			"balance_due":    f.BalanceDue,
			"loyalty_tier":   g.LoyaltyTier,
			"lifetime_stays": g.LifetimeStays,
		}, now); err != nil {
			return err
		}

		folio, guest = f, g
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Close: %w", err)
	}

	if override {
		log.Warn("folio closed with balance due",
			"folio_id", folio.ID,
			"balance_due", folio.BalanceDue,
			"override_by", actor,
			"override_reason", reason,
		)
	}
	log.Info("folio closed",
		"folio_id", folio.ID,
		"folio_number", folio.FolioNumber,
		"total_amount", folio.TotalAmount,
		"guest_id", guest.ID,
		"loyalty_tier", guest.LoyaltyTier,
		"is_vip", guest.IsVIP,
	)
	publish(ctx, c.emitter, events.New(events.TypeFolioClosed, folio.HotelID, folio.ID, actor, map[string]any{
		"total_amount":   folio.TotalAmount.StringFixed(2),
		"balance_due":    folio.BalanceDue.StringFixed(2),
		"unpaid_close":   override,
		"guest_id":       guest.ID.String(),
		"loyalty_tier":   guest.LoyaltyTier,
		"lifetime_stays": guest.LifetimeStays,
		"is_vip":         guest.IsVIP,
	}))

	return folio, nil
}
