package billing

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/events"
	"github.com/josh-kwaku/folio-ledger/internal/repository"
)

type Options struct {
	Emitter         events.Emitter
	Tiers           *TierTable
	DefaultCurrency domain.Currency
	InvoiceDueDays  int
}

// NewPostgresService wires every component against the Postgres
// repositories.
func NewPostgresService(db *sql.DB, opts Options) *Service {
	if opts.Emitter == nil {
		opts.Emitter = events.NopEmitter{}
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "USD"
	}

	folios := repository.NewFolioRepository(db)
	items := repository.NewFolioItemRepository(db)
	payments := repository.NewFolioPaymentRepository(db)
	audit := repository.NewFolioEventRepository(db)
	guests := repository.NewGuestRepository(db)
	catalog := repository.NewCatalogRepository(db)
	sequences := repository.NewSequenceRepository(db)
	invoices := repository.NewInvoiceRepository(db)
	invoicePayments := repository.NewInvoicePaymentRepository(db)

	ledger := NewLedger(db, folios, items, payments, audit, opts.Emitter)
	recorder := NewPaymentRecorder(db, ledger, folios, payments, audit, opts.Emitter)
	coordinator := NewCoordinator(db, ledger, folios, guests, catalog, sequences, audit, opts.Tiers, opts.Emitter, opts.DefaultCurrency)
	generator := NewInvoiceGenerator(db, folios, guests, invoices, invoicePayments, sequences, audit, opts.Emitter, opts.InvoiceDueDays)

	return NewService(coordinator, ledger, recorder, generator)
}

func (s *Service) RefreshOverdue(ctx context.Context, limit int) (int, error) {
	return s.generator.RefreshOverdue(ctx, limit)
}

func (s *Service) RecalculateAggregates(ctx context.Context, hotelID, folioID uuid.UUID) (*domain.Folio, error) {
	if _, err := s.GetFolio(ctx, hotelID, folioID); err != nil {
		return nil, fmt.Errorf("RecalculateAggregates: %w", err)
	}
	f, err := s.ledger.RecalculateAggregates(ctx, folioID)
	if err != nil {
		return nil, fmt.Errorf("RecalculateAggregates: %w", err)
	}
	return f, nil
}
