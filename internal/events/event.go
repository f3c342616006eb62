package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	TypeFolioOpened      = "folio.opened"
	TypeChargePosted     = "folio.charge_posted"
	TypeChargeVoided     = "folio.charge_voided"
	TypePaymentRecorded  = "folio.payment_recorded"
	TypeFolioClosed      = "folio.closed"
	TypeInvoiceGenerated = "invoice.generated"
	TypeInvoicePaid      = "invoice.paid"
	TypeInvoiceOverdue   = "invoice.overdue"
	TypeInvoiceCancelled = "invoice.cancelled"
)

// Event is the envelope published after a ledger transaction commits.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	HotelID    uuid.UUID      `json:"hotel_id"`
	FolioID    uuid.UUID      `json:"folio_id"`
	InvoiceID  *uuid.UUID     `json:"invoice_id,omitempty"`
	Actor      string         `json:"actor"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(eventType string, hotelID, folioID uuid.UUID, actor string, data map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		HotelID:    hotelID,
		FolioID:    folioID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Key partitions events so that all events of one folio stay ordered.
func (e Event) Key() string {
	return e.FolioID.String()
}

type Emitter interface {
	Emit(ctx context.Context, e Event) error
	Close() error
}

// LogEmitter writes events to the service log. It is the default sink.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(ctx context.Context, e Event) error {
	l.logger.InfoContext(ctx, "domain event",
		"event_id", e.ID,
		"event_type", e.Type,
		"hotel_id", e.HotelID,
		"folio_id", e.FolioID,
		"actor", e.Actor,
	)
	return nil
}

func (l *LogEmitter) Close() error { return nil }

type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }
func (NopEmitter) Close() error                      { return nil }

// Multi fans an event out to every emitter and joins their errors.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, em := range m {
		if err := em.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, em := range m {
		if err := em.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
