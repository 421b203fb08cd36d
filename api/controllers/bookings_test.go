package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/internal/bookings"
	"github.com/angelmondragon/reelpass-backend/internal/inventory"
	"github.com/angelmondragon/reelpass-backend/internal/payments"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
)

type stubBookingService struct {
	created   bookings.CreateBookingInput
	createErr error
	booking   *models.Booking
	ticket    *models.ETicket
	ticketErr error
	qr        []byte
}

func (s *stubBookingService) CreateBooking(ctx context.Context, input bookings.CreateBookingInput) (*models.Booking, error) {
	s.created = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Booking{ID: uuid.New(), UserID: input.UserID, ShowtimeID: input.ShowtimeID, SelectedSeats: input.Seats}, nil
}

func (s *stubBookingService) CancelBooking(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.Booking, error) {
	return s.booking, nil
}

func (s *stubBookingService) GetBooking(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.Booking, error) {
	if s.booking == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return s.booking, nil
}

func (s *stubBookingService) ListUserBookings(ctx context.Context, params bookings.ListParams) (*bookings.ListResult, error) {
	return &bookings.ListResult{}, nil
}

func (s *stubBookingService) GetTicket(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.ETicket, error) {
	return s.ticket, s.ticketErr
}

func (s *stubBookingService) TicketQR(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) ([]byte, error) {
	return s.qr, nil
}

type stubRecorder struct {
	input payments.RecordPaymentInput
	err   error
}

func (s *stubRecorder) RecordPayment(ctx context.Context, targetID uuid.UUID, input payments.RecordPaymentInput) (*payments.CompletionResult, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &payments.CompletionResult{
		Transaction: &models.PaymentTransaction{ID: uuid.New(), TargetID: targetID, Status: enums.TransactionStatusSuccess},
		Outcome:     payments.OutcomeApplied,
	}, nil
}

const bookingBody = `{"showtimeId":"%s","seats":["A1","A2"],"customer":{"name":"Asha","email":"asha@example.com","phone":"9000000000"},"fees":"20.00"}`

func TestCreateBookingUsesCallerAsOwner(t *testing.T) {
	svc := &stubBookingService{}
	userID := uuid.New()
	showtimeID := uuid.New()
	body := strings.Replace(bookingBody, "%s", showtimeID.String(), 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req = withActor(req, pkgauth.Actor{UserID: userID, Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	CreateBooking(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created.UserID != userID || svc.created.ShowtimeID != showtimeID {
		t.Fatalf("unexpected input %+v", svc.created)
	}
	if !svc.created.Pricing.Fees.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("expected fees 20 got %s", svc.created.Pricing.Fees)
	}
	var envelope struct {
		Data struct {
			Booking bookings.BookingDTO `json:"booking"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Booking.SelectedSeats) != 2 {
		t.Fatalf("unexpected seats %v", envelope.Data.Booking.SelectedSeats)
	}
}

func TestCreateBookingSeatConflictIsBadRequest(t *testing.T) {
	svc := &stubBookingService{createErr: inventory.ErrSeatConflict}
	body := strings.Replace(bookingBody, "%s", uuid.NewString(), 1)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)), pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	CreateBooking(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateBookingRejectsEmptySeats(t *testing.T) {
	svc := &stubBookingService{}
	body := `{"showtimeId":"` + uuid.NewString() + `","seats":[],"customer":{"name":"A","email":"a@example.com","phone":"1"}}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body)), pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	CreateBooking(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateBookingRequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CreateBooking(&stubBookingService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRecordBookingPaymentReturnsTicket(t *testing.T) {
	bookingID := uuid.New()
	svc := &stubBookingService{
		booking: &models.Booking{ID: bookingID, PaymentStatus: enums.PaymentStatusCompleted},
		ticket:  &models.ETicket{ID: uuid.New(), BookingID: bookingID, TicketNumber: "TKT-1"},
	}
	recorder := &stubRecorder{}
	body := `{"gateway":"razorpay","method":"upi","amount":"299.00","currency":"inr","gatewayOrderId":"order_1","gatewayTransactionId":"pay_1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+bookingID.String()+"/payment", strings.NewReader(body))
	req = withParams(req, map[string]string{"bookingId": bookingID.String()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	RecordBookingPayment(svc, recorder, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if recorder.input.TargetType != enums.PayableBooking || recorder.input.Currency != enums.CurrencyINR {
		t.Fatalf("unexpected record input %+v", recorder.input)
	}
	var envelope struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"booking", "transaction", "eTicket"} {
		if raw, ok := envelope.Data[key]; !ok || string(raw) == "null" {
			t.Fatalf("expected %s in response", key)
		}
	}
}

func TestRecordBookingPaymentAlreadyCompleted(t *testing.T) {
	bookingID := uuid.New()
	svc := &stubBookingService{booking: &models.Booking{ID: bookingID}}
	recorder := &stubRecorder{err: payments.ErrAlreadyCompleted}
	body := `{"gateway":"razorpay","amount":"299.00","gatewayOrderId":"order_1","gatewayTransactionId":"pay_1"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = withParams(req, map[string]string{"bookingId": bookingID.String()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	RecordBookingPayment(svc, recorder, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestBookingTicketQRIsJPEG(t *testing.T) {
	bookingID := uuid.New()
	svc := &stubBookingService{qr: []byte{0xff, 0xd8, 0xff}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withParams(req, map[string]string{"bookingId": bookingID.String()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	BookingTicketQR(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("expected image/jpeg got %q", ct)
	}
}

func TestBookingHandlerRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withParams(req, map[string]string{"bookingId": "nope"})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	GetBooking(&stubBookingService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
