// Package render turns invoices into downloadable documents.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/metrics"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: unsupported document format %q", domain.ErrValidation, s)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

func (f Format) Filename(inv *domain.Invoice) string {
	return fmt.Sprintf("%s.%s", inv.InvoiceNumber, f)
}

// Invoice renders doc in the requested format.
func Invoice(format Format, doc *billing.InvoiceDocument) (_ []byte, err error) {
	defer func(start time.Time) {
		metrics.ObserveDocumentRender(string(format), err, time.Since(start))
	}(time.Now())

	switch format {
	case FormatPDF:
		return InvoicePDF(doc)
	case FormatXLSX:
		return InvoiceXLSX(doc)
	}
	return nil, fmt.Errorf("%w: unsupported document format %q", domain.ErrValidation, format)
}

// billableItems drops voided lines and their reversals; the pair nets to zero.
func billableItems(items []domain.FolioItem) []domain.FolioItem {
	out := make([]domain.FolioItem, 0, len(items))
	for _, item := range items {
		if !item.IsVoided {
			out = append(out, item)
		}
	}
	return out
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func InvoicePDF(doc *billing.InvoiceDocument) ([]byte, error) {
	inv := doc.Invoice

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice %s", inv.InvoiceNumber))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Folio: %s", doc.Folio.FolioNumber))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Stay: %s to %s", doc.Folio.CheckInDate.Format("2006-01-02"), doc.Folio.CheckOutDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", inv.IssueDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Due: %s", inv.DueDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", inv.Status))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Bill to")
	pdf.Ln(5)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, inv.BillTo.Name)
	pdf.Ln(5)
	for _, line := range []*string{inv.BillTo.Address, inv.BillTo.Email} {
		if line != nil {
			pdf.Cell(0, 6, *line)
			pdf.Ln(5)
		}
	}
	if inv.BillTo.TaxID != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Tax ID: %s", *inv.BillTo.TaxID))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(75, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Unit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Tax", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, item := range billableItems(doc.Items) {
		pdf.CellFormat(25, 6, item.ServiceDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 6, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, money(item.TaxAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, money(item.TotalPrice), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	for _, row := range [][2]string{
		{"Subtotal", money(inv.Subtotal)},
		{"Tax", money(inv.TaxAmount)},
		{"Total", money(inv.TotalAmount)},
		{"Paid", money(inv.PaidAmount)},
		{fmt.Sprintf("Balance due (%s)", inv.Currency), money(inv.BalanceDue)},
	} {
		pdf.CellFormat(165, 6, row[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, row[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(doc.Payments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Payments against this invoice")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		for _, p := range doc.Payments {
			pdf.Cell(0, 5, fmt.Sprintf("%s  %s  %s", p.PaymentDate.Format("2006-01-02"), p.Method, money(p.Amount)))
			pdf.Ln(5)
		}
	}

	if inv.Notes != nil {
		pdf.Ln(4)
		pdf.MultiCell(0, 5, *inv.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render.InvoicePDF: %w", err)
	}
	return buf.Bytes(), nil
}

func InvoiceXLSX(doc *billing.InvoiceDocument) ([]byte, error) {
	inv := doc.Invoice

	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "invoice"
	itemsSheet := "lines"
	paymentsSheet := "payments"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("render.InvoiceXLSX: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("render.InvoiceXLSX: %w", err)
	}
	if _, err := f.NewSheet(paymentsSheet); err != nil {
		return nil, fmt.Errorf("render.InvoiceXLSX: %w", err)
	}

	summary := [][2]any{
		{"Invoice", inv.InvoiceNumber},
		{"Folio", doc.Folio.FolioNumber},
		{"Status", string(inv.Status)},
		{"Issued", inv.IssueDate.Format("2006-01-02")},
		{"Due", inv.DueDate.Format("2006-01-02")},
		{"Bill to", inv.BillTo.Name},
		{"Currency", string(inv.Currency)},
		{"Subtotal", inv.Subtotal.InexactFloat64()},
		{"Tax", inv.TaxAmount.InexactFloat64()},
		{"Total", inv.TotalAmount.InexactFloat64()},
		{"Paid", inv.PaidAmount.InexactFloat64()},
		{"Balance due", inv.BalanceDue.InexactFloat64()},
	}
	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1])
	}

	_ = f.SetSheetRow(itemsSheet, "A1", &[]any{"Date", "Category", "Description", "Quantity", "Unit price", "Tax rate", "Tax", "Amount"})
	for i, item := range billableItems(doc.Items) {
		_ = f.SetSheetRow(itemsSheet, fmt.Sprintf("A%d", i+2), &[]any{
			item.ServiceDate.Format("2006-01-02"),
			string(item.Category),
			item.Description,
			item.Quantity.InexactFloat64(),
			item.UnitPrice.InexactFloat64(),
			item.TaxRate.InexactFloat64(),
			item.TaxAmount.InexactFloat64(),
			item.TotalPrice.InexactFloat64(),
		})
	}

	_ = f.SetSheetRow(paymentsSheet, "A1", &[]any{"Date", "Method", "Reference", "Amount"})
	for i, p := range doc.Payments {
		ref := ""
		if p.Reference != nil {
			ref = *p.Reference
		}
		_ = f.SetSheetRow(paymentsSheet, fmt.Sprintf("A%d", i+2), &[]any{
			p.PaymentDate.Format("2006-01-02"),
			string(p.Method),
			ref,
			p.Amount.InexactFloat64(),
		})
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render.InvoiceXLSX: %w", err)
	}
	return buf.Bytes(), nil
}
