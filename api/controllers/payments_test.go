package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/internal/payments"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

type stubPaymentService struct {
	order  payments.CreateOrderInput
	verify payments.VerifyInput
	refund payments.RefundInput
	err    error
}

func (s *stubPaymentService) CreateOrder(ctx context.Context, input payments.CreateOrderInput) (*payments.OrderResult, error) {
	s.order = input
	if s.err != nil {
		return nil, s.err
	}
	return &payments.OrderResult{Gateway: enums.GatewayRazorpay, OrderID: "order_1", AmountMinor: 29900, Currency: enums.CurrencyINR}, nil
}

func (s *stubPaymentService) VerifyAndComplete(ctx context.Context, input payments.VerifyInput) (*payments.CompletionResult, error) {
	s.verify = input
	if s.err != nil {
		return nil, s.err
	}
	return &payments.CompletionResult{Transaction: &models.PaymentTransaction{ID: uuid.New()}, Outcome: payments.OutcomeApplied}, nil
}

func (s *stubPaymentService) Refund(ctx context.Context, input payments.RefundInput) (*payments.RefundResult, error) {
	s.refund = input
	if s.err != nil {
		return nil, s.err
	}
	return &payments.RefundResult{Transaction: &models.PaymentTransaction{ID: uuid.New()}, RefundID: "rfnd_1"}, nil
}

func TestCreatePaymentOrderBookingTarget(t *testing.T) {
	svc := &stubPaymentService{}
	bookingID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"gateway":"razorpay"}`))
	req = withParams(req, map[string]string{"bookingId": bookingID.String()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	CreatePaymentOrder(svc, enums.PayableBooking, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.order.TargetID != bookingID || svc.order.TargetType != enums.PayableBooking || svc.order.Gateway != "razorpay" {
		t.Fatalf("unexpected order input %+v", svc.order)
	}
}

func TestCreatePaymentOrderVideoNeedsPurchase(t *testing.T) {
	svc := &stubPaymentService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"gateway":"stripe"}`))
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	CreatePaymentOrder(svc, enums.PayableVideoPurchase, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyVendorFeeUsesCallerVendor(t *testing.T) {
	svc := &stubPaymentService{}
	vendorID := uuid.New()
	body := `{"gateway":"cashfree","orderId":"order_9","paymentId":"cf_1"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), pkgauth.Actor{UserID: vendorID, VendorID: &vendorID, Role: enums.RoleVendor})
	resp := httptest.NewRecorder()
	VerifyPayment(svc, enums.PayableVendorFee, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.verify.TargetID != vendorID || svc.verify.OrderID != "order_9" {
		t.Fatalf("unexpected verify input %+v", svc.verify)
	}
}

func TestRefundBookingPartialAmount(t *testing.T) {
	svc := &stubPaymentService{}
	bookingID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"100.50","reason":"show moved"}`))
	req = withParams(req, map[string]string{"bookingId": bookingID.String()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	RefundBooking(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.refund.Amount == nil || !svc.refund.Amount.Equal(decimal.RequireFromString("100.5")) {
		t.Fatalf("unexpected refund amount %v", svc.refund.Amount)
	}
}

func TestRefundRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubPaymentService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"0"}`))
	req = withParams(req, map[string]string{"bookingId": uuid.NewString()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleUser})
	resp := httptest.NewRecorder()
	RefundBooking(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminRefundAlreadyRefunded(t *testing.T) {
	svc := &stubPaymentService{err: payments.ErrAlreadyRefunded}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req = withParams(req, map[string]string{"targetType": "video_purchase", "targetId": uuid.NewString()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin})
	resp := httptest.NewRecorder()
	AdminRefund(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.refund.TargetType != enums.PayableVideoPurchase {
		t.Fatalf("unexpected target type %s", svc.refund.TargetType)
	}
}

func TestAdminRefundUnknownTargetType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req = withParams(req, map[string]string{"targetType": "cart", "targetId": uuid.NewString()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin})
	resp := httptest.NewRecorder()
	AdminRefund(&stubPaymentService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
