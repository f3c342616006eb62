package billing

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

type folioRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Folio, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Folio, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Folio, error)
	Create(ctx context.Context, tx *sql.Tx, f *domain.Folio) error
	UpdateAggregates(ctx context.Context, tx *sql.Tx, id uuid.UUID, agg domain.Aggregates) error
	MarkClosed(ctx context.Context, tx *sql.Tx, f *domain.Folio) error
}

type itemRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FolioItem, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.FolioItem, error)
	ListByFolio(ctx context.Context, folioID uuid.UUID) ([]domain.FolioItem, error)
	Create(ctx context.Context, tx *sql.Tx, item *domain.FolioItem) error
	MarkVoided(ctx context.Context, tx *sql.Tx, item *domain.FolioItem) error
	SumActive(ctx context.Context, tx *sql.Tx, folioID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)
}

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error
	ListByFolio(ctx context.Context, folioID uuid.UUID) ([]domain.Payment, error)
	SumByFolio(ctx context.Context, tx *sql.Tx, folioID uuid.UUID) (decimal.Decimal, error)
}

type auditRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.FolioEvent) error
	ListByFolio(ctx context.Context, folioID uuid.UUID) ([]domain.FolioEvent, error)
}

type guestRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Guest, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Guest, error)
	UpdateLoyalty(ctx context.Context, tx *sql.Tx, g *domain.Guest) error
}

type rateCatalog interface {
	GetRoomRate(ctx context.Context, hotelID uuid.UUID, roomType string) (*domain.RoomRate, error)
}

type sequenceRepo interface {
	Next(ctx context.Context, tx *sql.Tx, hotelID uuid.UUID, kind domain.SequenceKind, year int) (int64, error)
}

type invoiceRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetByFolioID(ctx context.Context, folioID uuid.UUID) (*domain.Invoice, error)
	GetByFolioIDTx(ctx context.Context, tx *sql.Tx, folioID uuid.UUID) (*domain.Invoice, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Invoice, error)
	ListPastDue(ctx context.Context, limit int) ([]domain.Invoice, error)
	Create(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error
	UpdateSettlement(ctx context.Context, tx *sql.Tx, id uuid.UUID, paid, balance decimal.Decimal, status domain.InvoiceStatus) error
	MarkCancelled(ctx context.Context, tx *sql.Tx, inv *domain.Invoice) error
}

type invoicePaymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.InvoicePayment) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoicePayment, error)
	SumByInvoice(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID) (decimal.Decimal, error)
}
