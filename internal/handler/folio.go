package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

type folioService interface {
	CheckIn(ctx context.Context, hotelID uuid.UUID, info billing.BillingInfo) (*domain.Folio, bool, error)
	AddCharge(ctx context.Context, hotelID, folioID uuid.UUID, ch billing.Charge) (*billing.Posting, error)
	VoidCharge(ctx context.Context, hotelID, itemID uuid.UUID, reason, actor string) (*billing.Posting, error)
	RecordPayment(ctx context.Context, hotelID, folioID uuid.UUID, in billing.PaymentInput) (*domain.Payment, *domain.Folio, error)
	CheckOut(ctx context.Context, hotelID, bookingID uuid.UUID, opts billing.CloseOptions) (*domain.Folio, error)
	GetFolio(ctx context.Context, hotelID, folioID uuid.UUID) (*domain.Folio, error)
	GetFolioByBooking(ctx context.Context, hotelID, bookingID uuid.UUID) (*domain.Folio, error)
	ListItems(ctx context.Context, hotelID, folioID uuid.UUID) ([]domain.FolioItem, error)
	ListPayments(ctx context.Context, hotelID, folioID uuid.UUID) ([]domain.Payment, error)
	ListEvents(ctx context.Context, hotelID, folioID uuid.UUID) ([]domain.FolioEvent, error)
}

type FolioHandler struct {
	folios folioService
}

func NewFolioHandler(folios folioService) *FolioHandler {
	return &FolioHandler{folios: folios}
}

type checkInRequest struct {
	BookingID      uuid.UUID       `json:"booking_id"`
	GuestID        uuid.UUID       `json:"guest_id"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	RoomType       string          `json:"room_type"`
	NightlyRate    decimal.Decimal `json:"nightly_rate"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Currency       string          `json:"currency"`
	BillingName    *string         `json:"billing_name"`
	BillingEmail   *string         `json:"billing_email"`
	BillingAddress *string         `json:"billing_address"`
	BillingTaxID   *string         `json:"billing_tax_id"`
}

func (r checkInRequest) Validate() []FieldError {
	var errs []FieldError

	if r.BookingID == uuid.Nil {
		errs = append(errs, FieldError{Field: "booking_id", Message: "required"})
	}
	if r.GuestID == uuid.Nil {
		errs = append(errs, FieldError{Field: "guest_id", Message: "required"})
	}
	if r.CheckIn.IsZero() {
		errs = append(errs, FieldError{Field: "check_in", Message: "required"})
	}
	if r.CheckOut.IsZero() {
		errs = append(errs, FieldError{Field: "check_out", Message: "required"})
	} else if !r.CheckIn.IsZero() && !r.CheckOut.After(r.CheckIn) {
		errs = append(errs, FieldError{Field: "check_out", Message: "must be after check_in"})
	}
	if r.NightlyRate.IsNegative() {
		errs = append(errs, FieldError{Field: "nightly_rate", Message: "must not be negative"})
	} else if !domain.ValidMoney(r.NightlyRate) {
		errs = append(errs, FieldError{Field: "nightly_rate", Message: "must have at most 2 decimal places"})
	}
	if r.NightlyRate.IsZero() && r.RoomType == "" {
		errs = append(errs, FieldError{Field: "room_type", Message: "required when nightly_rate is not set"})
	}
	if !domain.ValidTaxRate(r.TaxRate) {
		errs = append(errs, FieldError{Field: "tax_rate", Message: "must be between 0 and 100 with at most 3 decimal places"})
	}
	if r.Currency != "" && !domain.Currency(r.Currency).Valid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be a 3-letter ISO code"})
	}

	return errs
}

type chargeRequest struct {
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	ServiceDate   *time.Time      `json:"service_date"`
	ReferenceID   *string         `json:"reference_id"`
	ReferenceType *string         `json:"reference_type"`
}

func (r chargeRequest) Validate() []FieldError {
	var errs []FieldError

	if strings.TrimSpace(r.Description) == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	if r.Category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "required"})
	} else if !domain.ChargeCategory(r.Category).Valid() {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}
	if r.Quantity.IsZero() {
		errs = append(errs, FieldError{Field: "quantity", Message: "must not be zero"})
	} else if !domain.ValidQuantity(r.Quantity) {
		errs = append(errs, FieldError{Field: "quantity", Message: "must have at most 3 decimal places"})
	}
	if r.UnitPrice.IsNegative() {
		errs = append(errs, FieldError{Field: "unit_price", Message: "must not be negative"})
	} else if !domain.ValidMoney(r.UnitPrice) {
		errs = append(errs, FieldError{Field: "unit_price", Message: "must have at most 2 decimal places"})
	}
	if !domain.ValidTaxRate(r.TaxRate) {
		errs = append(errs, FieldError{Field: "tax_rate", Message: "must be between 0 and 100 with at most 3 decimal places"})
	}

	return errs
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (r voidRequest) Validate() []FieldError {
	if strings.TrimSpace(r.Reason) == "" {
		return []FieldError{{Field: "reason", Message: "required"}}
	}
	return nil
}

type paymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Currency  string          `json:"currency"`
	Reference *string         `json:"reference"`
}

func (r paymentRequest) Validate() []FieldError {
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
	if r.Currency != "" && !domain.Currency(r.Currency).Valid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be a 3-letter ISO code"})
	}

	return errs
}

type checkOutRequest struct {
	AllowUnpaid    bool   `json:"allow_unpaid"`
	OverrideReason string `json:"override_reason"`
}

func (r checkOutRequest) Validate() []FieldError {
	if r.AllowUnpaid && strings.TrimSpace(r.OverrideReason) == "" {
		return []FieldError{{Field: "override_reason", Message: "required when allow_unpaid is set"}}
	}
	return nil
}

// decode reads a JSON body into req and runs its validation. An empty body
// decodes as the zero request. It writes the error response itself and
// reports whether the handler may continue.
func decode[T interface{ Validate() []FieldError }](w http.ResponseWriter, r *http.Request, req *T) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		RespondAppError(w, ErrInvalidRequest, nil)
		return false
	}
	if fields := (*req).Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return false
	}
	return true
}

func (h *FolioHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req checkInRequest
	if !decode(w, r, &req) {
		return
	}

	f, created, err := h.folios.CheckIn(r.Context(), staff.HotelID, billing.BillingInfo{
		BookingID:      req.BookingID,
		GuestID:        req.GuestID,
		CheckIn:        req.CheckIn,
		CheckOut:       req.CheckOut,
		RoomType:       req.RoomType,
		NightlyRate:    req.NightlyRate,
		TaxRate:        req.TaxRate,
		Currency:       domain.Currency(req.Currency),
		BillingName:    req.BillingName,
		BillingEmail:   req.BillingEmail,
		BillingAddress: req.BillingAddress,
		BillingTaxID:   req.BillingTaxID,
		Actor:          staff.Actor(),
	})
	if err != nil {
		log.Warn("check-in failed", "booking_id", req.BookingID, "error", err)
		RespondDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/folios/%s", f.ID))
	RespondSuccess(w, status, toFolioDTO(f))
}

func (h *FolioHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	f, err := h.folios.GetFolio(r.Context(), staff.HotelID, folioID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("folio lookup failed", "folio_id", folioID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toFolioDTO(f))
}

func (h *FolioHandler) GetByBooking(w http.ResponseWriter, r *http.Request) {
	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	bookingID, appErr := pathID(r, "bookingId")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	f, err := h.folios.GetFolioByBooking(r.Context(), staff.HotelID, bookingID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("folio lookup by booking failed", "booking_id", bookingID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toFolioDTO(f))
}

func (h *FolioHandler) ListItems(w http.ResponseWriter, r *http.Request) {
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

	items, err := h.folios.ListItems(r.Context(), staff.HotelID, folioID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, mapSlice(items, toFolioItemDTO))
}

func (h *FolioHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
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

	payments, err := h.folios.ListPayments(r.Context(), staff.HotelID, folioID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, mapSlice(payments, toPaymentDTO))
}

func (h *FolioHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
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

	evts, err := h.folios.ListEvents(r.Context(), staff.HotelID, folioID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, mapSlice(evts, toFolioEventDTO))
}

func (h *FolioHandler) AddCharge(w http.ResponseWriter, r *http.Request) {
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

	var req chargeRequest
	if !decode(w, r, &req) {
		return
	}

	ch := billing.Charge{
		Description:   req.Description,
		Category:      domain.ChargeCategory(req.Category),
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		TaxRate:       req.TaxRate,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Actor:         staff.Actor(),
	}
	if req.ServiceDate != nil {
		ch.ServiceDate = *req.ServiceDate
	}

	p, err := h.folios.AddCharge(r.Context(), staff.HotelID, folioID, ch)
	if err != nil {
		log.Warn("charge posting failed", "folio_id", folioID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, postingDTO{Item: toFolioItemDTO(&p.Item), Folio: toFolioDTO(&p.Folio)})
}

func (h *FolioHandler) VoidCharge(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	itemID, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req voidRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.folios.VoidCharge(r.Context(), staff.HotelID, itemID, req.Reason, staff.Actor())
	if err != nil {
		log.Warn("charge void failed", "item_id", itemID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, postingDTO{Item: toFolioItemDTO(&p.Item), Folio: toFolioDTO(&p.Folio)})
}

func (h *FolioHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
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

	var req paymentRequest
	if !decode(w, r, &req) {
		return
	}

	p, f, err := h.folios.RecordPayment(r.Context(), staff.HotelID, folioID, billing.PaymentInput{
		Amount:    req.Amount,
		Method:    domain.PaymentMethod(req.Method),
		Currency:  domain.Currency(req.Currency),
		Reference: req.Reference,
		Actor:     staff.Actor(),
	})
	if err != nil {
		log.Warn("payment recording failed", "folio_id", folioID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, paymentResultDTO{Payment: toPaymentDTO(p), Folio: toFolioDTO(f)})
}

func (h *FolioHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	staff, appErr := staffFromRequest(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	bookingID, appErr := pathID(r, "bookingId")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req checkOutRequest
	if !decode(w, r, &req) {
		return
	}

	f, err := h.folios.CheckOut(r.Context(), staff.HotelID, bookingID, billing.CloseOptions{
		AllowUnpaid:    req.AllowUnpaid,
		OverrideReason: req.OverrideReason,
		Actor:          staff.Actor(),
	})
	if err != nil {
		log.Warn("check-out failed", "booking_id", bookingID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toFolioDTO(f))
}
