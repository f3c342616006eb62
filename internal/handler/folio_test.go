package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/folio-ledger/internal/auth"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

type mockFolioService struct {
	checkIn       func(hotelID uuid.UUID, info billing.BillingInfo) (*domain.Folio, bool, error)
	addCharge     func(hotelID, folioID uuid.UUID, ch billing.Charge) (*billing.Posting, error)
	recordPayment func(hotelID, folioID uuid.UUID, in billing.PaymentInput) (*domain.Payment, *domain.Folio, error)
	checkOut      func(hotelID, bookingID uuid.UUID, opts billing.CloseOptions) (*domain.Folio, error)
	getFolio      func(hotelID, folioID uuid.UUID) (*domain.Folio, error)
}

func (m *mockFolioService) CheckIn(_ context.Context, hotelID uuid.UUID, info billing.BillingInfo) (*domain.Folio, bool, error) {
	return m.checkIn(hotelID, info)
}

func (m *mockFolioService) AddCharge(_ context.Context, hotelID, folioID uuid.UUID, ch billing.Charge) (*billing.Posting, error) {
	return m.addCharge(hotelID, folioID, ch)
}

func (m *mockFolioService) VoidCharge(context.Context, uuid.UUID, uuid.UUID, string, string) (*billing.Posting, error) {
	return nil, domain.ErrNotFound
}

func (m *mockFolioService) RecordPayment(_ context.Context, hotelID, folioID uuid.UUID, in billing.PaymentInput) (*domain.Payment, *domain.Folio, error) {
	return m.recordPayment(hotelID, folioID, in)
}

func (m *mockFolioService) CheckOut(_ context.Context, hotelID, bookingID uuid.UUID, opts billing.CloseOptions) (*domain.Folio, error) {
	return m.checkOut(hotelID, bookingID, opts)
}

func (m *mockFolioService) GetFolio(_ context.Context, hotelID, folioID uuid.UUID) (*domain.Folio, error) {
	return m.getFolio(hotelID, folioID)
}

func (m *mockFolioService) GetFolioByBooking(context.Context, uuid.UUID, uuid.UUID) (*domain.Folio, error) {
	return nil, domain.ErrNotFound
}

func (m *mockFolioService) ListItems(context.Context, uuid.UUID, uuid.UUID) ([]domain.FolioItem, error) {
	return nil, nil
}

func (m *mockFolioService) ListPayments(context.Context, uuid.UUID, uuid.UUID) ([]domain.Payment, error) {
	return nil, nil
}

func (m *mockFolioService) ListEvents(context.Context, uuid.UUID, uuid.UUID) ([]domain.FolioEvent, error) {
	return nil, nil
}

var testStaff = auth.Staff{ID: uuid.New(), HotelID: uuid.New(), Email: "frontdesk@hotel.test"}

func sampleFolio() *domain.Folio {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	return &domain.Folio{
		ID:            uuid.New(),
		HotelID:       testStaff.HotelID,
		BookingID:     uuid.New(),
		GuestID:       uuid.New(),
		FolioNumber:   "F-2025-000001",
		Status:        domain.FolioStatusOpen,
		Currency:      "USD",
		Subtotal:      decimal.RequireFromString("300"),
		TaxAmount:     decimal.RequireFromString("30"),
		TotalAmount:   decimal.RequireFromString("330"),
		PaidAmount:    decimal.Zero,
		BalanceDue:    decimal.RequireFromString("330"),
		PaymentStatus: domain.PaymentStatusUnpaid,
		CheckInDate:   now,
		CheckOutDate:  now.Add(72 * time.Hour),
		OpenedAt:      now,
		OpenedBy:      testStaff.Actor(),
	}
}

func newFolioMux(svc folioService) http.Handler {
	h := NewFolioHandler(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/folios", h.CheckIn)
	mux.HandleFunc("GET /api/v1/folios/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/folios/{id}/charges", h.AddCharge)
	mux.HandleFunc("POST /api/v1/folios/{id}/payments", h.RecordPayment)
	mux.HandleFunc("POST /api/v1/bookings/{bookingId}/checkout", h.CheckOut)
	return mux
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, staff *auth.Staff) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if staff != nil {
		req = req.WithContext(auth.ContextWithStaff(req.Context(), *staff))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) (APIResponse, map[string]any) {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

func checkInBody(bookingID uuid.UUID) string {
	return fmt.Sprintf(`{
		"booking_id": %q,
		"guest_id": %q,
		"check_in": "2025-03-10T15:00:00Z",
		"check_out": "2025-03-13T11:00:00Z",
		"room_type": "STANDARD",
		"nightly_rate": "100.00",
		"tax_rate": "10",
		"currency": "USD"
	}`, bookingID, uuid.New())
}

func TestFolioHandler_CheckIn(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		staff      *auth.Staff
		created    bool
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "new folio",
			body:       checkInBody(uuid.New()),
			staff:      &testStaff,
			created:    true,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "existing folio for booking",
			body:       checkInBody(uuid.New()),
			staff:      &testStaff,
			created:    false,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing staff",
			body:       checkInBody(uuid.New()),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "MISSING_TOKEN",
		},
		{
			name:       "malformed body",
			body:       `{"booking_id":`,
			staff:      &testStaff,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "check-out before check-in",
			body:       `{"booking_id":"` + uuid.NewString() + `","guest_id":"` + uuid.NewString() + `","check_in":"2025-03-13T00:00:00Z","check_out":"2025-03-10T00:00:00Z","nightly_rate":"100"}`,
			staff:      &testStaff,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "guest from another hotel",
			body:       checkInBody(uuid.New()),
			staff:      &testStaff,
			svcErr:     fmt.Errorf("CheckIn: Open: guest: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotInfo billing.BillingInfo
			svc := &mockFolioService{
				checkIn: func(hotelID uuid.UUID, info billing.BillingInfo) (*domain.Folio, bool, error) {
					assert.Equal(t, testStaff.HotelID, hotelID)
					gotInfo = info
					if tc.svcErr != nil {
						return nil, false, tc.svcErr
					}
					return sampleFolio(), tc.created, nil
				},
			}

			rec := doRequest(t, newFolioMux(svc), http.MethodPost, "/api/v1/folios", tc.body, tc.staff)
			assert.Equal(t, tc.wantStatus, rec.Code)

			resp, data := decodeResponse(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}
			assert.True(t, resp.Success)
			assert.Equal(t, "330.00", data["total_amount"])
			assert.Equal(t, "UNPAID", data["payment_status"])
			assert.Equal(t, testStaff.Actor(), gotInfo.Actor)
			assert.True(t, gotInfo.NightlyRate.Equal(decimal.NewFromInt(100)))
			assert.NotEmpty(t, rec.Header().Get("Location"))
		})
	}
}

func TestFolioHandler_AddCharge(t *testing.T) {
	folio := sampleFolio()

	tests := []struct {
		name        string
		body        string
		svcErr      error
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:       "posted",
			body:       `{"description":"Dinner","category":"FOOD_BEVERAGE","quantity":"1","unit_price":"25","tax_rate":"10"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknown category",
			body:       `{"description":"Dinner","category":"CASINO","quantity":"1","unit_price":"25"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "sub-cent unit price",
			body:       `{"description":"Mints","category":"MINIBAR","quantity":"3","unit_price":"0.125","tax_rate":"10"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "quantity with four places",
			body:       `{"description":"Mints","category":"MINIBAR","quantity":"1.0005","unit_price":"1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:        "closed folio",
			body:        `{"description":"Dinner","category":"FOOD_BEVERAGE","quantity":"1","unit_price":"25"}`,
			svcErr:      fmt.Errorf("AddCharge: Post: post: folio F-2025-000001 is CLOSED: %w", domain.ErrInvalidState),
			wantStatus:  http.StatusConflict,
			wantCode:    "INVALID_STATE",
			wantDetails: "folio F-2025-000001 is CLOSED",
		},
		{
			name:       "lock contention",
			body:       `{"description":"Dinner","category":"FOOD_BEVERAGE","quantity":"1","unit_price":"25"}`,
			svcErr:     fmt.Errorf("AddCharge: Post: %w: %w", domain.ErrConcurrentUpdate, fmt.Errorf("pq: could not obtain lock")),
			wantStatus: http.StatusConflict,
			wantCode:   "CONCURRENT_UPDATE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockFolioService{
				addCharge: func(hotelID, folioID uuid.UUID, ch billing.Charge) (*billing.Posting, error) {
					if tc.svcErr != nil {
						return nil, tc.svcErr
					}
					total, tax := domain.LineAmounts(ch.Quantity, ch.UnitPrice, ch.TaxRate)
					return &billing.Posting{
						Item: domain.FolioItem{
							ID: uuid.New(), FolioID: folioID, Description: ch.Description, Category: ch.Category,
							Quantity: ch.Quantity, UnitPrice: ch.UnitPrice, TotalPrice: total, TaxRate: ch.TaxRate, TaxAmount: tax,
						},
						Folio: *folio,
					}, nil
				},
			}

			rec := doRequest(t, newFolioMux(svc), http.MethodPost, "/api/v1/folios/"+folio.ID.String()+"/charges", tc.body, &testStaff)
			assert.Equal(t, tc.wantStatus, rec.Code)

			resp, data := decodeResponse(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				if tc.wantCode == "CONCURRENT_UPDATE" {
					assert.Equal(t, "1", rec.Header().Get("Retry-After"))
				}
				if tc.wantDetails != "" {
					assert.Equal(t, tc.wantDetails, resp.Error.Details)
				}
				return
			}
			item := data["item"].(map[string]any)
			assert.Equal(t, "25.00", item["total_price"])
			assert.Equal(t, "2.50", item["tax_amount"])
		})
	}
}

func TestFolioHandler_RecordPayment_CurrencyMismatch(t *testing.T) {
	folio := sampleFolio()
	svc := &mockFolioService{
		recordPayment: func(uuid.UUID, uuid.UUID, billing.PaymentInput) (*domain.Payment, *domain.Folio, error) {
			return nil, nil, fmt.Errorf("RecordPayment: %w: %w", domain.ErrValidation, domain.ErrCurrencyMismatch)
		},
	}

	rec := doRequest(t, newFolioMux(svc), http.MethodPost, "/api/v1/folios/"+folio.ID.String()+"/payments",
		`{"amount":"50","method":"CASH","currency":"EUR"}`, &testStaff)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp, _ := decodeResponse(t, rec)
	assert.Equal(t, "CURRENCY_MISMATCH", resp.Error.Code)
}

func TestFolioHandler_CheckOut(t *testing.T) {
	bookingID := uuid.New()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "settled",
			body:       "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "balance outstanding",
			body:       `{}`,
			svcErr:     fmt.Errorf("CheckOut: Close: balance due 74.00 USD: %w", domain.ErrInsufficientPayment),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_PAYMENT",
		},
		{
			name:       "override without reason",
			body:       `{"allow_unpaid":true}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockFolioService{
				checkOut: func(hotelID, gotBooking uuid.UUID, opts billing.CloseOptions) (*domain.Folio, error) {
					assert.Equal(t, bookingID, gotBooking)
					if tc.svcErr != nil {
						return nil, tc.svcErr
					}
					f := sampleFolio()
					f.Status = domain.FolioStatusClosed
					return f, nil
				},
			}

			rec := doRequest(t, newFolioMux(svc), http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/checkout", tc.body, &testStaff)
			assert.Equal(t, tc.wantStatus, rec.Code)

			resp, data := decodeResponse(t, rec)
			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
				return
			}
			assert.Equal(t, "CLOSED", data["status"])
		})
	}
}

func TestFolioHandler_Get_MalformedID(t *testing.T) {
	svc := &mockFolioService{}
	rec := doRequest(t, newFolioMux(svc), http.MethodGet, "/api/v1/folios/not-a-uuid", "", &testStaff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want any
	}{
		{fmt.Errorf("CheckIn: Open: %w: check-out must be after check-in", domain.ErrValidation), "check-out must be after check-in"},
		{fmt.Errorf("CheckOut: Close: balance due 74.00 USD: %w", domain.ErrInsufficientPayment), "balance due 74.00 USD"},
		{fmt.Errorf("Cancel: %w", domain.ErrInvalidState), nil},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, reason(tc.err))
	}
}
