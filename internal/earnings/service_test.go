package earnings

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/reelpass-backend/pkg/db/dbtest"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)), 1000)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNewServiceRejectsBadInput(t *testing.T) {
	if _, err := NewService(nil, 1000); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewService(&repository{}, 10001); err == nil {
		t.Fatal("expected error for commission above 100%")
	}
}

func TestCreditIsUniquePerSource(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	vendorID := uuid.New()
	paymentID := uuid.New()

	entry, created, err := svc.Credit(ctx, nil, CreditInput{VendorID: vendorID, SourceID: paymentID, GrossMinor: 29900, Currency: enums.CurrencyINR})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !created {
		t.Fatal("expected first credit to be created")
	}
	if entry.CommissionMinor != 2990 || entry.NetMinor != 26910 {
		t.Fatalf("unexpected split: commission=%d net=%d", entry.CommissionMinor, entry.NetMinor)
	}

	_, created, err = svc.Credit(ctx, nil, CreditInput{VendorID: vendorID, SourceID: paymentID, GrossMinor: 29900, Currency: enums.CurrencyINR})
	if err != nil {
		t.Fatalf("repeat credit: %v", err)
	}
	if created {
		t.Fatal("expected repeat credit to be skipped")
	}

	balance, err := svc.Balance(ctx, nil, vendorID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 26910 {
		t.Fatalf("expected balance 26910, got %d", balance)
	}
}

func TestCommissionRoundsHalfUp(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	// 10% of 2999 is 299.9, which rounds to 300.
	entry, _, err := svc.Credit(ctx, nil, CreditInput{VendorID: uuid.New(), SourceID: uuid.New(), GrossMinor: 2999, Currency: enums.CurrencyINR})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if entry.CommissionMinor != 300 || entry.NetMinor != 2699 {
		t.Fatalf("unexpected split: commission=%d net=%d", entry.CommissionMinor, entry.NetMinor)
	}
}

func TestDebitRefundReversesCreditOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	vendorID := uuid.New()
	paymentID := uuid.New()

	if _, _, err := svc.Credit(ctx, nil, CreditInput{VendorID: vendorID, SourceID: paymentID, GrossMinor: 10000, Currency: enums.CurrencyINR}); err != nil {
		t.Fatalf("credit: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.DebitRefund(ctx, nil, paymentID); err != nil {
			t.Fatalf("debit refund: %v", err)
		}
	}
	balance, err := svc.Balance(ctx, nil, vendorID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance after refund, got %d", balance)
	}

	debited, err := svc.DebitRefund(ctx, nil, uuid.New())
	if err != nil {
		t.Fatalf("debit unknown payment: %v", err)
	}
	if debited {
		t.Fatal("expected no debit for payment without credit")
	}
}

func TestHoldAndReleaseHold(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	vendorID := uuid.New()
	withdrawalID := uuid.New()

	if _, _, err := svc.Credit(ctx, nil, CreditInput{VendorID: vendorID, SourceID: uuid.New(), GrossMinor: 10000, Currency: enums.CurrencyINR}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	err := svc.Hold(ctx, nil, HoldInput{VendorID: vendorID, WithdrawalID: uuid.New(), AmountMinor: 9001, Currency: enums.CurrencyINR})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	hold := HoldInput{VendorID: vendorID, WithdrawalID: withdrawalID, AmountMinor: 5000, Currency: enums.CurrencyINR}
	if err := svc.Hold(ctx, nil, hold); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if balance, _ := svc.Balance(ctx, nil, vendorID); balance != 4000 {
		t.Fatalf("expected 4000 after hold, got %d", balance)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.ReleaseHold(ctx, nil, hold); err != nil {
			t.Fatalf("release hold: %v", err)
		}
	}
	if balance, _ := svc.Balance(ctx, nil, vendorID); balance != 9000 {
		t.Fatalf("expected 9000 after release, got %d", balance)
	}
}

func TestListReturnsBalance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	vendorID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Credit(ctx, nil, CreditInput{VendorID: vendorID, SourceID: uuid.New(), GrossMinor: 1000, Currency: enums.CurrencyINR}); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	page, err := svc.List(ctx, ListParams{VendorID: vendorID, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 3 || page.BalanceMinor != 2700 || page.Cursor != "" {
		t.Fatalf("unexpected page: items=%d balance=%d cursor=%q", len(page.Items), page.BalanceMinor, page.Cursor)
	}

	if _, err := svc.List(ctx, ListParams{VendorID: vendorID, Cursor: "!!"}); err == nil {
		t.Fatal("expected invalid cursor error")
	}
}
