package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

func TestToMinorRoundTrip(t *testing.T) {
	cases := []struct {
		in    string
		minor int64
	}{
		{"299.00", 29900},
		{"29.99", 2999},
		{"0.01", 1},
		{"352.82", 35282},
	}
	for _, tc := range cases {
		amount := decimal.RequireFromString(tc.in)
		minor, err := ToMinor(amount, enums.CurrencyINR)
		if err != nil {
			t.Fatalf("ToMinor(%s): %v", tc.in, err)
		}
		if minor != tc.minor {
			t.Fatalf("ToMinor(%s) = %d, want %d", tc.in, minor, tc.minor)
		}
		back, err := FromMinor(minor, enums.CurrencyINR)
		if err != nil {
			t.Fatalf("FromMinor(%d): %v", minor, err)
		}
		if !back.Equal(amount) {
			t.Fatalf("round trip %s -> %d -> %s", tc.in, minor, back)
		}
	}
}

func TestToMinorRoundsHalfUp(t *testing.T) {
	minor, err := ToMinor(decimal.RequireFromString("10.005"), enums.CurrencyINR)
	if err != nil {
		t.Fatalf("ToMinor: %v", err)
	}
	if minor != 1001 {
		t.Fatalf("expected half-up to 1001, got %d", minor)
	}
	minor, _ = ToMinor(decimal.RequireFromString("10.004"), enums.CurrencyINR)
	if minor != 1000 {
		t.Fatalf("expected 1000, got %d", minor)
	}
}

func TestToMinorRejectsBadInput(t *testing.T) {
	if _, err := ToMinor(decimal.RequireFromString("-1"), enums.CurrencyINR); err == nil {
		t.Fatal("expected negative amount to fail")
	}
	if _, err := ToMinor(decimal.RequireFromString("1"), enums.Currency("JPY")); err == nil {
		t.Fatal("expected unsupported currency to fail")
	}
}

func TestBasisPoints(t *testing.T) {
	if got := BasisPoints(29900, 1000); got != 2990 {
		t.Fatalf("10%% of 29900 = %d", got)
	}
	if got := BasisPoints(5, 1000); got != 1 {
		t.Fatalf("0.5 should round half-up to 1, got %d", got)
	}
	if got := BasisPoints(29900, 0); got != 0 {
		t.Fatalf("zero bps should be zero, got %d", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(decimal.NewFromInt(299), enums.CurrencyINR); got != "299.00 INR" {
		t.Fatalf("unexpected format %q", got)
	}
}
