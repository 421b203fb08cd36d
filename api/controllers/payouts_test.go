package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/internal/earnings"
	"github.com/angelmondragon/reelpass-backend/internal/payouts"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

type stubPayoutService struct {
	requested payouts.RequestInput
	retried   uuid.UUID
}

func (s *stubPayoutService) RequestWithdrawal(ctx context.Context, input payouts.RequestInput) (*models.VendorWithdrawal, error) {
	s.requested = input
	return &models.VendorWithdrawal{ID: uuid.New(), VendorID: input.VendorID, AmountMinor: input.Amount.Shift(2).IntPart(), Status: enums.WithdrawalStatusPending}, nil
}

func (s *stubPayoutService) RetryWithdrawal(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*payouts.Result, error) {
	s.retried = id
	return &payouts.Result{TransferID: "wd_1", Status: enums.PayoutStatusPending}, nil
}

func (s *stubPayoutService) CancelWithdrawal(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.VendorWithdrawal, error) {
	return &models.VendorWithdrawal{ID: id, Status: enums.WithdrawalStatusFailed}, nil
}

func (s *stubPayoutService) GetTransferStatus(ctx context.Context, transferID string) (enums.PayoutStatus, error) {
	return enums.PayoutStatusPending, nil
}

func (s *stubPayoutService) GetWithdrawal(ctx context.Context, id uuid.UUID, actor pkgauth.Actor) (*models.VendorWithdrawal, error) {
	return &models.VendorWithdrawal{ID: id}, nil
}

func (s *stubPayoutService) ListWithdrawals(ctx context.Context, vendorID uuid.UUID, limit int, actor pkgauth.Actor) ([]models.VendorWithdrawal, error) {
	return nil, nil
}

type stubEarnings struct {
	params earnings.ListParams
}

func (s *stubEarnings) List(ctx context.Context, params earnings.ListParams) (*earnings.ListResult, error) {
	s.params = params
	return &earnings.ListResult{BalanceMinor: 12345}, nil
}

func vendorActor() pkgauth.Actor {
	vendorID := uuid.New()
	return pkgauth.Actor{UserID: vendorID, VendorID: &vendorID, Role: enums.RoleVendor}
}

func TestVendorRequestWithdrawal(t *testing.T) {
	svc := &stubPayoutService{}
	actor := vendorActor()
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"200.00"}`)), actor)
	resp := httptest.NewRecorder()
	VendorRequestWithdrawal(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.requested.VendorID != *actor.VendorID || !svc.requested.Amount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected request %+v", svc.requested)
	}
}

func TestVendorRequestWithdrawalRejectsNegative(t *testing.T) {
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"-5"}`)), vendorActor())
	resp := httptest.NewRecorder()
	VendorRequestWithdrawal(&stubPayoutService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVendorEarningsScopedToCaller(t *testing.T) {
	svc := &stubEarnings{}
	actor := vendorActor()
	req := withActor(httptest.NewRequest(http.MethodGet, "/?limit=10", nil), actor)
	resp := httptest.NewRecorder()
	VendorEarnings(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.VendorID != *actor.VendorID || svc.params.Limit != 10 {
		t.Fatalf("unexpected params %+v", svc.params)
	}
	if !strings.Contains(resp.Body.String(), `"balanceMinor":12345`) {
		t.Fatalf("expected balance in body: %s", resp.Body.String())
	}
}

func TestAdminRetryWithdrawal(t *testing.T) {
	svc := &stubPayoutService{}
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withParams(req, map[string]string{"withdrawalId": id.String()})
	req = withActor(req, pkgauth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin})
	resp := httptest.NewRecorder()
	AdminRetryWithdrawal(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.retried != id {
		t.Fatalf("expected retry of %s got %s", id, svc.retried)
	}
}
