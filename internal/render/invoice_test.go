package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

func sampleDocument() *billing.InvoiceDocument {
	d := decimal.RequireFromString
	issued := time.Date(2025, 3, 13, 11, 0, 0, 0, time.UTC)
	email := "ada@example.com"
	ref := "TRX-881"
	folioID := uuid.New()

	return &billing.InvoiceDocument{
		Invoice: domain.Invoice{
			ID:            uuid.New(),
			FolioID:       folioID,
			InvoiceNumber: "INV-2025-000042",
			Currency:      "USD",
			Subtotal:      d("325"),
			TaxAmount:     d("32.50"),
			TotalAmount:   d("357.50"),
			PaidAmount:    d("100"),
			BalanceDue:    d("257.50"),
			BillTo:        domain.BillTo{Name: "Ada Lovelace", Email: &email},
			IssueDate:     issued,
			DueDate:       issued.AddDate(0, 0, 30),
			Status:        domain.InvoiceStatusIssued,
		},
		Folio: domain.Folio{
			ID:           folioID,
			FolioNumber:  "F-2025-000007",
			CheckInDate:  issued.AddDate(0, 0, -3),
			CheckOutDate: issued,
		},
		Items: []domain.FolioItem{
			{Description: "Room (STANDARD), 3 nights", Category: domain.ChargeCategoryRoom, Quantity: d("3"), UnitPrice: d("100"), TotalPrice: d("300"), TaxRate: d("10"), TaxAmount: d("30")},
			{Description: "Dinner", Category: domain.ChargeCategoryFoodBeverage, Quantity: d("1"), UnitPrice: d("25"), TotalPrice: d("25"), TaxRate: d("10"), TaxAmount: d("2.50")},
			{Description: "Minibar", Category: domain.ChargeCategoryMinibar, Quantity: d("1"), UnitPrice: d("15"), TotalPrice: d("15"), TaxRate: d("10"), TaxAmount: d("1.50"), IsVoided: true},
			{Description: "VOID: Minibar", Category: domain.ChargeCategoryMinibar, Quantity: d("-1"), UnitPrice: d("15"), TotalPrice: d("-15"), TaxRate: d("10"), TaxAmount: d("-1.50"), IsVoided: true},
		},
		Payments: []domain.InvoicePayment{
			{Amount: d("50"), Method: domain.PaymentMethodBankTransfer, Reference: &ref, PaymentDate: issued.AddDate(0, 0, 5)},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestInvoicePDF(t *testing.T) {
	out, err := Invoice(FormatPDF, sampleDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestInvoiceXLSX(t *testing.T) {
	out, err := Invoice(FormatXLSX, sampleDocument())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	number, err := f.GetCellValue("invoice", "B1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-000042", number)

	rows, err := f.GetRows("lines")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus the two billable lines")

	payments, err := f.GetRows("payments")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "TRX-881", payments[1][2])
}

func TestFilename(t *testing.T) {
	inv := &domain.Invoice{InvoiceNumber: "INV-2025-000042"}
	assert.Equal(t, "INV-2025-000042.pdf", FormatPDF.Filename(inv))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}
