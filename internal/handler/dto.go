package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type folioDTO struct {
	ID                  uuid.UUID  `json:"id"`
	HotelID             uuid.UUID  `json:"hotel_id"`
	BookingID           uuid.UUID  `json:"booking_id"`
	GuestID             uuid.UUID  `json:"guest_id"`
	FolioNumber         string     `json:"folio_number"`
	Status              string     `json:"status"`
	Currency            string     `json:"currency"`
	Subtotal            string     `json:"subtotal"`
	TaxAmount           string     `json:"tax_amount"`
	TotalAmount         string     `json:"total_amount"`
	PaidAmount          string     `json:"paid_amount"`
	BalanceDue          string     `json:"balance_due"`
	PaymentStatus       string     `json:"payment_status"`
	BillingName         *string    `json:"billing_name,omitempty"`
	BillingEmail        *string    `json:"billing_email,omitempty"`
	BillingAddress      *string    `json:"billing_address,omitempty"`
	BillingTaxID        *string    `json:"billing_tax_id,omitempty"`
	CheckInDate         time.Time  `json:"check_in_date"`
	CheckOutDate        time.Time  `json:"check_out_date"`
	OpenedAt            time.Time  `json:"opened_at"`
	OpenedBy            string     `json:"opened_by"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
	ClosedBy            *string    `json:"closed_by,omitempty"`
	CloseOverrideBy     *string    `json:"close_override_by,omitempty"`
	CloseOverrideReason *string    `json:"close_override_reason,omitempty"`
	Version             int64      `json:"version"`
}

func toFolioDTO(f *domain.Folio) folioDTO {
	return folioDTO{
		ID:                  f.ID,
		HotelID:             f.HotelID,
		BookingID:           f.BookingID,
		GuestID:             f.GuestID,
		FolioNumber:         f.FolioNumber,
		Status:              string(f.Status),
		Currency:            string(f.Currency),
		Subtotal:            money(f.Subtotal),
		TaxAmount:           money(f.TaxAmount),
		TotalAmount:         money(f.TotalAmount),
		PaidAmount:          money(f.PaidAmount),
		BalanceDue:          money(f.BalanceDue),
		PaymentStatus:       string(f.PaymentStatus),
		BillingName:         f.BillingName,
		BillingEmail:        f.BillingEmail,
		BillingAddress:      f.BillingAddress,
		BillingTaxID:        f.BillingTaxID,
		CheckInDate:         f.CheckInDate,
		CheckOutDate:        f.CheckOutDate,
		OpenedAt:            f.OpenedAt,
		OpenedBy:            f.OpenedBy,
		ClosedAt:            f.ClosedAt,
		ClosedBy:            f.ClosedBy,
		CloseOverrideBy:     f.CloseOverrideBy,
		CloseOverrideReason: f.CloseOverrideReason,
		Version:             f.Version,
	}
}

type folioItemDTO struct {
	ID            uuid.UUID  `json:"id"`
	FolioID       uuid.UUID  `json:"folio_id"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Quantity      string     `json:"quantity"`
	UnitPrice     string     `json:"unit_price"`
	TotalPrice    string     `json:"total_price"`
	TaxRate       string     `json:"tax_rate"`
	TaxAmount     string     `json:"tax_amount"`
	ServiceDate   time.Time  `json:"service_date"`
	PostedAt      time.Time  `json:"posted_at"`
	PostedBy      string     `json:"posted_by"`
	IsVoided      bool       `json:"is_voided"`
	VoidedAt      *time.Time `json:"voided_at,omitempty"`
	VoidedBy      *string    `json:"voided_by,omitempty"`
	VoidReason    *string    `json:"void_reason,omitempty"`
	ReferenceID   *string    `json:"reference_id,omitempty"`
	ReferenceType *string    `json:"reference_type,omitempty"`
}

func toFolioItemDTO(i *domain.FolioItem) folioItemDTO {
	return folioItemDTO{
		ID:            i.ID,
		FolioID:       i.FolioID,
		Description:   i.Description,
		Category:      string(i.Category),
		Quantity:      i.Quantity.String(),
		UnitPrice:     money(i.UnitPrice),
		TotalPrice:    money(i.TotalPrice),
		TaxRate:       i.TaxRate.String(),
		TaxAmount:     money(i.TaxAmount),
		ServiceDate:   i.ServiceDate,
		PostedAt:      i.PostedAt,
		PostedBy:      i.PostedBy,
		IsVoided:      i.IsVoided,
		VoidedAt:      i.VoidedAt,
		VoidedBy:      i.VoidedBy,
		VoidReason:    i.VoidReason,
		ReferenceID:   i.ReferenceID,
		ReferenceType: i.ReferenceType,
	}
}

type postingDTO struct {
	Item  folioItemDTO `json:"item"`
	Folio folioDTO     `json:"folio"`
}

type paymentDTO struct {
	ID          uuid.UUID `json:"id"`
	FolioID     uuid.UUID `json:"folio_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	Reference   *string   `json:"reference,omitempty"`
	Status      string    `json:"status"`
	PaymentDate time.Time `json:"payment_date"`
	RecordedBy  string    `json:"recorded_by"`
}

func toPaymentDTO(p *domain.Payment) paymentDTO {
	return paymentDTO{
		ID:          p.ID,
		FolioID:     p.FolioID,
		Amount:      money(p.Amount),
		Currency:    string(p.Currency),
		Method:      string(p.Method),
		Reference:   p.Reference,
		Status:      string(p.Status),
		PaymentDate: p.PaymentDate,
		RecordedBy:  p.RecordedBy,
	}
}

type paymentResultDTO struct {
	Payment paymentDTO `json:"payment"`
	Folio   folioDTO   `json:"folio"`
}

type folioEventDTO struct {
	ID        uuid.UUID       `json:"id"`
	EventType string          `json:"event_type"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func toFolioEventDTO(e *domain.FolioEvent) folioEventDTO {
	return folioEventDTO{
		ID:        e.ID,
		EventType: string(e.EventType),
		Actor:     e.Actor,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
	}
}

type billToDTO struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	TaxID   *string `json:"tax_id,omitempty"`
}

type invoiceDTO struct {
	ID                 uuid.UUID  `json:"id"`
	HotelID            uuid.UUID  `json:"hotel_id"`
	FolioID            uuid.UUID  `json:"folio_id"`
	GuestID            uuid.UUID  `json:"guest_id"`
	InvoiceNumber      string     `json:"invoice_number"`
	Status             string     `json:"status"`
	Currency           string     `json:"currency"`
	Subtotal           string     `json:"subtotal"`
	TaxAmount          string     `json:"tax_amount"`
	TotalAmount        string     `json:"total_amount"`
	PaidAmount         string     `json:"paid_amount"`
	BalanceDue         string     `json:"balance_due"`
	BillTo             billToDTO  `json:"bill_to"`
	IssueDate          time.Time  `json:"issue_date"`
	DueDate            time.Time  `json:"due_date"`
	Notes              *string    `json:"notes,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *string    `json:"cancelled_by,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
}

func toInvoiceDTO(inv *domain.Invoice) invoiceDTO {
	return invoiceDTO{
		ID:            inv.ID,
		HotelID:       inv.HotelID,
		FolioID:       inv.FolioID,
		GuestID:       inv.GuestID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        string(inv.Status),
		Currency:      string(inv.Currency),
		Subtotal:      money(inv.Subtotal),
		TaxAmount:     money(inv.TaxAmount),
		TotalAmount:   money(inv.TotalAmount),
		PaidAmount:    money(inv.PaidAmount),
		BalanceDue:    money(inv.BalanceDue),
		BillTo: billToDTO{
			Name:    inv.BillTo.Name,
			Email:   inv.BillTo.Email,
			Address: inv.BillTo.Address,
			TaxID:   inv.BillTo.TaxID,
		},
		IssueDate:          inv.IssueDate,
		DueDate:            inv.DueDate,
		Notes:              inv.Notes,
		PaidAt:             inv.PaidAt,
		CancelledAt:        inv.CancelledAt,
		CancelledBy:        inv.CancelledBy,
		CancellationReason: inv.CancellationReason,
	}
}

type invoicePaymentDTO struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Amount      string    `json:"amount"`
	Method      string    `json:"method"`
	Reference   *string   `json:"reference,omitempty"`
	PaymentDate time.Time `json:"payment_date"`
	RecordedBy  string    `json:"recorded_by"`
}

func toInvoicePaymentDTO(p *domain.InvoicePayment) invoicePaymentDTO {
	return invoicePaymentDTO{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		Amount:      money(p.Amount),
		Method:      string(p.Method),
		Reference:   p.Reference,
		PaymentDate: p.PaymentDate,
		RecordedBy:  p.RecordedBy,
	}
}

func mapSlice[T, D any](in []T, fn func(*T) D) []D {
	out := make([]D, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}
