package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
	"github.com/josh-kwaku/folio-ledger/internal/render"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

type invoiceService interface {
	GenerateInvoice(ctx context.Context, hotelID, folioID uuid.UUID, opts billing.InvoiceOptions) (*domain.Invoice, bool, error)
	GetInvoice(ctx context.Context, hotelID, invoiceID uuid.UUID) (*domain.Invoice, error)
	ListInvoicePayments(ctx context.Context, hotelID, invoiceID uuid.UUID) ([]domain.InvoicePayment, error)
	MarkInvoicePaid(ctx context.Context, hotelID, invoiceID uuid.UUID, actor string) (*domain.Invoice, error)
	RecordInvoicePayment(ctx context.Context, hotelID, invoiceID uuid.UUID, in billing.InvoicePaymentInput) (*domain.Invoice, error)
	CancelInvoice(ctx context.Context, hotelID, invoiceID uuid.UUID, reason, actor string) (*domain.Invoice, error)
	InvoiceDocument(ctx context.Context, hotelID, invoiceID uuid.UUID) (*billing.InvoiceDocument, error)
}

type InvoiceHandler struct {
	invoices invoiceService
}

func NewInvoiceHandler(invoices invoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

type generateInvoiceRequest struct {
	DueDate *time.Time `json:"due_date"`
	Notes   *string    `json:"notes"`
}

func (r generateInvoiceRequest) Validate() []FieldError {
	if r.Notes != nil && len(*r.Notes) > 2000 {
		return []FieldError{{Field: "notes", Message: "must be at most 2000 characters"}}
	}
	return nil
}

type invoicePaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference *string         `json:"reference"`
}

func (r invoicePaymentRequest) Validate() []FieldError {
	var errs []FieldError

	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	} else if !domain.ValidMoney(r.Amount) {
		errs = append(errs, FieldError{Field: "amount", Message: "must have at most 2 decimal places"})
	}
	if r.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "required"})
	} else if !domain.PaymentMethod(r.Method).Valid() {
		errs = append(errs, FieldError{Field: "method", Message: "unknown payment method"})
	}

	return errs
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (r cancelInvoiceRequest) Validate() []FieldError {
	if strings.TrimSpace(r.Reason) == "" {
		return []FieldError{{Field: "reason", Message: "required"}}
	}
	return nil
}

type emptyRequest struct{}

func (emptyRequest) Validate() []FieldError { return nil }

func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	folioID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req generateInvoiceRequest
	if !decode(w, r, &req) {
		return
	}

	inv, created, err := h.invoices.GenerateInvoice(r.Context(), staff.HotelID, folioID, billing.InvoiceOptions{
		DueDate: req.DueDate,
		Notes:   req.Notes,
		Actor:   staff.Actor(),
	})
	if err != nil {
		log.Warn("invoice generation failed", "folio_id", folioID, "error", err)
		RespondDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/invoices/%s", inv.ID))
	RespondSuccess(w, status, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	invoiceID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	inv, err := h.invoices.GetInvoice(r.Context(), staff.HotelID, invoiceID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("invoice lookup failed", "invoice_id", invoiceID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	invoiceID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	payments, err := h.invoices.ListInvoicePayments(r.Context(), staff.HotelID, invoiceID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, mapSlice(payments, toInvoicePaymentDTO))
}

func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	invoiceID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req invoicePaymentRequest
	if !decode(w, r, &req) {
		return
	}

	inv, err := h.invoices.RecordInvoicePayment(r.Context(), staff.HotelID, invoiceID, billing.InvoicePaymentInput{
		Amount:    req.Amount,
		Method:    domain.PaymentMethod(req.Method),
		Reference: req.Reference,
		Actor:     staff.Actor(),
	})
	if err != nil {
		log.Warn("invoice payment failed", "invoice_id", invoiceID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	invoiceID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req emptyRequest
	if !decode(w, r, &req) {
		return
	}

	inv, err := h.invoices.MarkInvoicePaid(r.Context(), staff.HotelID, invoiceID, staff.Actor())
	if err != nil {
		log.Warn("invoice settlement failed", "invoice_id", invoiceID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	invoiceID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req cancelInvoiceRequest
	if !decode(w, r, &req) {
		return
	}

	inv, err := h.invoices.CancelInvoice(r.Context(), staff.HotelID, invoiceID, req.Reason, staff.Actor())
	if err != nil {
		log.Warn("invoice cancellation failed", "invoice_id", invoiceID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toInvoiceDTO(inv))
}

func (h *InvoiceHandler) Document(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	invoiceID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "format", Message: "must be pdf or xlsx"}})
		return
	}

	doc, err := h.invoices.InvoiceDocument(r.Context(), staff.HotelID, invoiceID)
	if err != nil {
		log.Warn("invoice document lookup failed", "invoice_id", invoiceID, "error", err)
		RespondDomainError(w, err)
		return
	}

	out, err := render.Invoice(format, doc)
	if err != nil {
		log.Error("invoice render failed", "invoice_id", invoiceID, "format", format, "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(&doc.Invoice)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		log.Error("failed to write invoice document", "invoice_id", invoiceID, "error", err)
	}
}
