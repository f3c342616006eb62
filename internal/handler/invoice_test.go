package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

type mockInvoiceService struct {
	invoice *domain.Invoice
	err     error
}

func (m *mockInvoiceService) result() (*domain.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invoice, nil
}

func (m *mockInvoiceService) GenerateInvoice(context.Context, uuid.UUID, uuid.UUID, billing.InvoiceOptions) (*domain.Invoice, bool, error) {
	inv, err := m.result()
	return inv, err == nil, err
}

func (m *mockInvoiceService) GetInvoice(context.Context, uuid.UUID, uuid.UUID) (*domain.Invoice, error) {
	return m.result()
}

func (m *mockInvoiceService) ListInvoicePayments(context.Context, uuid.UUID, uuid.UUID) ([]domain.InvoicePayment, error) {
	return nil, m.err
}

func (m *mockInvoiceService) MarkInvoicePaid(context.Context, uuid.UUID, uuid.UUID, string) (*domain.Invoice, error) {
	return m.result()
}

func (m *mockInvoiceService) RecordInvoicePayment(context.Context, uuid.UUID, uuid.UUID, billing.InvoicePaymentInput) (*domain.Invoice, error) {
	return m.result()
}

func (m *mockInvoiceService) CancelInvoice(context.Context, uuid.UUID, uuid.UUID, string, string) (*domain.Invoice, error) {
	return m.result()
}

func (m *mockInvoiceService) InvoiceDocument(context.Context, uuid.UUID, uuid.UUID) (*billing.InvoiceDocument, error) {
	inv, err := m.result()
	if err != nil {
		return nil, err
	}
	return &billing.InvoiceDocument{Invoice: *inv, Folio: *sampleFolio()}, nil
}

func sampleInvoice() *domain.Invoice {
	issued := time.Date(2025, 3, 13, 11, 0, 0, 0, time.UTC)
	return &domain.Invoice{
		ID:            uuid.New(),
		HotelID:       testStaff.HotelID,
		FolioID:       uuid.New(),
		InvoiceNumber: "INV-2025-000001",
		Currency:      "USD",
		Subtotal:      decimal.RequireFromString("300"),
		TaxAmount:     decimal.RequireFromString("30"),
		TotalAmount:   decimal.RequireFromString("330"),
		PaidAmount:    decimal.RequireFromString("100"),
		BalanceDue:    decimal.RequireFromString("230"),
		BillTo:        domain.BillTo{Name: "Ada Lovelace"},
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, 30),
		Status:        domain.InvoiceStatusIssued,
	}
}

func newInvoiceMux(svc invoiceService) http.Handler {
	h := NewInvoiceHandler(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/folios/{id}/invoice", h.Generate)
	mux.HandleFunc("POST /api/v1/invoices/{id}/payments", h.RecordPayment)
	mux.HandleFunc("POST /api/v1/invoices/{id}/cancel", h.Cancel)
	mux.HandleFunc("GET /api/v1/invoices/{id}/document", h.Document)
	return mux
}

func TestInvoiceHandler_Generate(t *testing.T) {
	svc := &mockInvoiceService{invoice: sampleInvoice()}
	rec := doRequest(t, newInvoiceMux(svc), http.MethodPost, "/api/v1/folios/"+uuid.NewString()+"/invoice", "", &testStaff)
	assert.Equal(t, http.StatusCreated, rec.Code)

	resp, data := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "INV-2025-000001", data["invoice_number"])
	assert.Equal(t, "230.00", data["balance_due"])

	svc.err = fmt.Errorf("GenerateInvoice: FromFolio: folio F-2025-000001 is OPEN: %w", domain.ErrInvalidState)
	rec = doRequest(t, newInvoiceMux(svc), http.MethodPost, "/api/v1/folios/"+uuid.NewString()+"/invoice", "", &testStaff)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInvoiceHandler_Cancel(t *testing.T) {
	svc := &mockInvoiceService{invoice: sampleInvoice()}
	path := "/api/v1/invoices/" + uuid.NewString() + "/cancel"

	rec := doRequest(t, newInvoiceMux(svc), http.MethodPost, path, `{"reason":""}`, &testStaff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = fmt.Errorf("CancelInvoice: Cancel: invoice INV-2025-000001 is PAID: %w", domain.ErrInvalidState)
	rec = doRequest(t, newInvoiceMux(svc), http.MethodPost, path, `{"reason":"duplicate"}`, &testStaff)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp, _ := decodeResponse(t, rec)
	assert.Equal(t, "invoice INV-2025-000001 is PAID", resp.Error.Details)
}

func TestInvoiceHandler_RecordPayment_Validation(t *testing.T) {
	svc := &mockInvoiceService{invoice: sampleInvoice()}
	rec := doRequest(t, newInvoiceMux(svc), http.MethodPost, "/api/v1/invoices/"+uuid.NewString()+"/payments",
		`{"amount":"-5","method":"CHEQUE"}`, &testStaff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp, _ := decodeResponse(t, rec)
	details, ok := resp.Error.Details.([]any)
	require.True(t, ok)
	assert.Len(t, details, 2)
}

func TestInvoiceHandler_Document(t *testing.T) {
	svc := &mockInvoiceService{invoice: sampleInvoice()}
	base := "/api/v1/invoices/" + uuid.NewString() + "/document"

	rec := doRequest(t, newInvoiceMux(svc), http.MethodGet, base, "", &testStaff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "INV-2025-000001.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = doRequest(t, newInvoiceMux(svc), http.MethodGet, base+"?format=xlsx", "", &testStaff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")

	rec = doRequest(t, newInvoiceMux(svc), http.MethodGet, base+"?format=docx", "", &testStaff)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = domain.ErrNotFound
	rec = doRequest(t, newInvoiceMux(svc), http.MethodGet, base, "", &testStaff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
