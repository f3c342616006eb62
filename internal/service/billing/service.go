package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

// Service is the hotel-scoped entry point used by the HTTP layer. Every
// operation checks that the folio or invoice belongs to the calling hotel;
// records of other hotels are reported as not found.
type Service struct {
	coordinator     *Coordinator
	ledger          *Ledger
	recorder        *PaymentRecorder
	generator       *InvoiceGenerator
	folios          folioRepo
	items           itemRepo
	payments        paymentRepo
	audit           auditRepo
	invoices        invoiceRepo
	invoicePayments invoicePaymentRepo
}

func NewService(
	coordinator *Coordinator,
	ledger *Ledger,
	recorder *PaymentRecorder,
	generator *InvoiceGenerator,
) *Service {
	return &Service{
		coordinator:     coordinator,
		ledger:          ledger,
		recorder:        recorder,
		generator:       generator,
		folios:          ledger.folios,
		items:           ledger.items,
		payments:        ledger.payments,
		audit:           ledger.audit,
		invoices:        generator.invoices,
		invoicePayments: generator.invoicePayments,
	}
}

func (s *Service) CheckIn(ctx context.Context, hotelID uuid.UUID, info BillingInfo) (*domain.Folio, bool, error) {
	info.HotelID = hotelID
	f, created, err := s.coordinator.Open(ctx, info)
	if err != nil {
		return nil, false, fmt.Errorf("CheckIn: %w", err)
	}
	return f, created, nil
}

func (s *Service) AddCharge(ctx context.Context, hotelID, folioID uuid.UUID, ch Charge) (*Posting, error) {
	if _, err := s.GetFolio(ctx, hotelID, folioID); err != nil {
		return nil, fmt.Errorf("AddCharge: %w", err)
	}
	p, err := s.ledger.Post(ctx, folioID, ch)
	if err != nil {
		return nil, fmt.Errorf("AddCharge: %w", err)
	}
	return p, nil
}

func (s *Service) VoidCharge(ctx context.Context, hotelID, itemID uuid.UUID, reason, actor string) (*Posting, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("VoidCharge: %w", err)
	}
	if _, err := s.GetFolio(ctx, hotelID, item.FolioID); err != nil {
		return nil, fmt.Errorf("VoidCharge: %w", err)
	}
	p, err := s.ledger.Void(ctx, itemID, reason, actor)
	if err != nil {
		return nil, fmt.Errorf("VoidCharge: %w", err)
	}
	return p, nil
}

func (s *Service) RecordPayment(ctx context.Context, hotelID, folioID uuid.UUID, in PaymentInput) (*domain.Payment, *domain.Folio, error) {
	if _, err := s.GetFolio(ctx, hotelID, folioID); err != nil {
		return nil, nil, fmt.Errorf("RecordPayment: %w", err)
	}
	p, f, err := s.recorder.Record(ctx, folioID, in)
	if err != nil {
		return nil, nil, fmt.Errorf("RecordPayment: %w", err)
	}
	return p, f, nil
}

func (s *Service) CheckOut(ctx context.Context, hotelID, bookingID uuid.UUID, opts CloseOptions) (*domain.Folio, error) {
	f, err := s.folios.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("CheckOut: %w", err)
	}
	if f.HotelID != hotelID {
		return nil, fmt.Errorf("CheckOut: %w", domain.ErrNotFound)
	}
	closed, err := s.coordinator.Close(ctx, f.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("CheckOut: %w", err)
	}
	return closed, nil
}

func (s *Service) GenerateInvoice(ctx context.Context, hotelID, folioID uuid.UUID, opts InvoiceOptions) (*domain.Invoice, bool, error) {
	if _, err := s.GetFolio(ctx, hotelID, folioID); err != nil {
		return nil, false, fmt.Errorf("GenerateInvoice: %w", err)
	}
	inv, created, err := s.generator.FromFolio(ctx, folioID, opts)
	if err != nil {
		return nil, false, fmt.Errorf("GenerateInvoice: %w", err)
	}
	return inv, created, nil
}

func (s *Service) GetFolio(ctx context.Context, hotelID, folioID uuid.UUID) (*domain.Folio, error) {
	f, err := s.folios.GetByID(ctx, folioID)
	if err != nil {
		return nil, fmt.Errorf("GetFolio: %w", err)
	}
	if f.HotelID != hotelID {
		return nil, fmt.Errorf("GetFolio: %w", domain.ErrNotFound)
	}
	return f, nil
}

func (s *Service) GetFolioByBooking(ctx context.Context, hotelID, bookingID uuid.UUID) (*domain.Folio, error) {
	f, err := s.folios.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("GetFolioByBooking: %w", err)
	}
	if f.HotelID != hotelID {
		return nil, fmt.Errorf("GetFolioByBooking: %w", domain.ErrNotFound)
	}
	return f, nil
}

func (s *Service) ListItems(ctx context.Context, hotelID, folioID uuid.UUID) ([]domain.FolioItem, error) {
	if _, err := s.GetFolio(ctx, hotelID, folioID); err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	items, err := s.items.ListByFolio(ctx, folioID)
	if err != nil {
		return nil, fmt.Errorf("ListItems: %w", err)
	}
	return items, nil
}

func (s *Service) ListPayments(ctx context.Context, hotelID, folioID uuid.UUID) ([]domain.Payment, error) {
	if _, err := s.GetFolio(ctx, hotelID, folioID); err != nil {
		return nil, fmt.Errorf("ListPayments: %w", err)
	}
	payments, err := s.payments.ListByFolio(ctx, folioID)
	if err != nil {
		return nil, fmt.Errorf("ListPayments: %w", err)
	}
	return payments, nil
}

func (s *Service) ListEvents(ctx context.Context, hotelID, folioID uuid.UUID) ([]domain.FolioEvent, error) {
	if _, err := s.GetFolio(ctx, hotelID, folioID); err != nil {
		return nil, fmt.Errorf("ListEvents: %w", err)
	}
	evts, err := s.audit.ListByFolio(ctx, folioID)
	if err != nil {
		return nil, fmt.Errorf("ListEvents: %w", err)
	}
	return evts, nil
}

func (s *Service) GetInvoice(ctx context.Context, hotelID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("GetInvoice: %w", err)
	}
	if inv.HotelID != hotelID {
		return nil, fmt.Errorf("GetInvoice: %w", domain.ErrNotFound)
	}
	return inv, nil
}

func (s *Service) ListInvoicePayments(ctx context.Context, hotelID, invoiceID uuid.UUID) ([]domain.InvoicePayment, error) {
	if _, err := s.GetInvoice(ctx, hotelID, invoiceID); err != nil {
		return nil, fmt.Errorf("ListInvoicePayments: %w", err)
	}
	payments, err := s.invoicePayments.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("ListInvoicePayments: %w", err)
	}
	return payments, nil
}

func (s *Service) MarkInvoicePaid(ctx context.Context, hotelID, invoiceID uuid.UUID, actor string) (*domain.Invoice, error) {
	if _, err := s.GetInvoice(ctx, hotelID, invoiceID); err != nil {
		return nil, fmt.Errorf("MarkInvoicePaid: %w", err)
	}
	inv, err := s.generator.MarkPaid(ctx, invoiceID, actor)
	if err != nil {
		return nil, fmt.Errorf("MarkInvoicePaid: %w", err)
	}
	return inv, nil
}

func (s *Service) RecordInvoicePayment(ctx context.Context, hotelID, invoiceID uuid.UUID, in InvoicePaymentInput) (*domain.Invoice, error) {
	if _, err := s.GetInvoice(ctx, hotelID, invoiceID); err != nil {
		return nil, fmt.Errorf("RecordInvoicePayment: %w", err)
	}
	inv, err := s.generator.RecordPayment(ctx, invoiceID, in)
	if err != nil {
		return nil, fmt.Errorf("RecordInvoicePayment: %w", err)
	}
	return inv, nil
}

func (s *Service) CancelInvoice(ctx context.Context, hotelID, invoiceID uuid.UUID, reason, actor string) (*domain.Invoice, error) {
	if _, err := s.GetInvoice(ctx, hotelID, invoiceID); err != nil {
		return nil, fmt.Errorf("CancelInvoice: %w", err)
	}
	inv, err := s.generator.Cancel(ctx, invoiceID, reason, actor)
	if err != nil {
		return nil, fmt.Errorf("CancelInvoice: %w", err)
	}
	return inv, nil
}

// InvoiceDocument gathers what is needed to render an invoice.
type InvoiceDocument struct {
	Invoice  domain.Invoice
	Folio    domain.Folio
	Items    []domain.FolioItem
	Payments []domain.InvoicePayment
}

func (s *Service) InvoiceDocument(ctx context.Context, hotelID, invoiceID uuid.UUID) (*InvoiceDocument, error) {
	inv, err := s.GetInvoice(ctx, hotelID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("InvoiceDocument: %w", err)
	}
	f, err := s.folios.GetByID(ctx, inv.FolioID)
	if err != nil {
		return nil, fmt.Errorf("InvoiceDocument: %w", err)
	}
	items, err := s.items.ListByFolio(ctx, inv.FolioID)
	if err != nil {
		return nil, fmt.Errorf("InvoiceDocument: %w", err)
	}
	payments, err := s.invoicePayments.ListByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("InvoiceDocument: %w", err)
	}
	return &InvoiceDocument{Invoice: *inv, Folio: *f, Items: items, Payments: payments}, nil
}
