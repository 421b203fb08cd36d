package enums

import "testing"

func TestParseRoundTrips(t *testing.T) {
	if got, err := ParseBookingStatus("expired"); err != nil || got != BookingStatusExpired {
		t.Fatalf("ParseBookingStatus: got %q err=%v", got, err)
	}
	if _, err := ParseBookingStatus("pending"); err == nil {
		t.Fatal("pending is a payment status, not a booking status")
	}
	if got, err := ParseGateway("ccavenue"); err != nil || got != GatewayCCAvenue {
		t.Fatalf("ParseGateway: got %q err=%v", got, err)
	}
	if _, err := ParseGateway("paypal"); err == nil {
		t.Fatal("expected unknown gateway to fail")
	}
	if !EventWithdrawalRequested.IsValid() || OutboxEventType("order_paid").IsValid() {
		t.Fatal("unexpected outbox event validity")
	}
}

func TestShowtimeBookable(t *testing.T) {
	if !ShowtimeStatusActive.Bookable() {
		t.Fatal("active showtime must be bookable")
	}
	if ShowtimeStatusSoldOut.Bookable() || ShowtimeStatusCancelled.Bookable() {
		t.Fatal("sold out and cancelled showtimes must not be bookable")
	}
}

func TestPayoutStatusTerminal(t *testing.T) {
	if PayoutStatusPending.Terminal() {
		t.Fatal("pending is not terminal")
	}
	if !PayoutStatusSuccess.Terminal() || !PayoutStatusFailed.Terminal() {
		t.Fatal("success and failed are terminal")
	}
}
