package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

var testTopics = config.PubSubConfig{
	BookingsTopic: "t-bookings",
	PaymentsTopic: "t-payments",
	PayoutsTopic:  "t-payouts",
}

func row(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, data any) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(envelopeBody(t, 1, uuid.NewString(), data)),
		CreatedAt:     time.Now().UTC(),
	}
}

func mustRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(testTopics)
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}
	return reg
}

func TestEveryEventTypeIsRouted(t *testing.T) {
	reg := mustRegistry(t)
	for _, eventType := range []enums.OutboxEventType{
		enums.EventBookingCreated, enums.EventBookingCancelled, enums.EventBookingExpired,
		enums.EventTicketIssued, enums.EventPaymentCompleted, enums.EventPaymentFailed,
		enums.EventPaymentRefunded, enums.EventPaymentNeedsReview, enums.EventVideoPurchaseCompleted,
		enums.EventVendorRegistered, enums.EventWithdrawalRequested, enums.EventWithdrawalCompleted,
		enums.EventWithdrawalFailed,
	} {
		if _, ok := reg.routes[eventType]; !ok {
			t.Errorf("%s has no route", eventType)
		}
		if !reg.decoders.Handles(eventType) {
			t.Errorf("%s has no decoder", eventType)
		}
	}
}

func TestResolveRoutesByEventFamily(t *testing.T) {
	reg := mustRegistry(t)
	cases := []struct {
		event models.OutboxEvent
		topic string
	}{
		{row(t, enums.EventBookingExpired, enums.AggregateBooking, payloads.BookingEvent{BookingID: uuid.New()}), "t-bookings"},
		{row(t, enums.EventPaymentNeedsReview, enums.AggregatePaymentTransaction, payloads.PaymentEvent{TransactionID: uuid.New(), Reason: "late_success_after_hold_lapsed"}), "t-payments"},
		{row(t, enums.EventWithdrawalFailed, enums.AggregateVendorWithdrawal, payloads.WithdrawalOutcomeEvent{WithdrawalID: uuid.New()}), "t-payouts"},
	}
	for _, tc := range cases {
		resolved, err := reg.Resolve(tc.event)
		if err != nil {
			t.Fatalf("%s: %v", tc.event.EventType, err)
		}
		if resolved.Descriptor.Topic != tc.topic || resolved.Descriptor.EventType != tc.event.EventType {
			t.Fatalf("%s routed to %+v", tc.event.EventType, resolved.Descriptor)
		}
	}
}

func TestResolveDecodesWithdrawalPayload(t *testing.T) {
	reg := mustRegistry(t)
	withdrawalID := uuid.New()
	event := row(t, enums.EventWithdrawalRequested, enums.AggregateVendorWithdrawal, payloads.WithdrawalRequestedEvent{
		WithdrawalID: withdrawalID,
		VendorID:     uuid.New(),
		AmountMinor:  150000,
		Currency:     enums.CurrencyINR,
		TransferID:   "wd_123",
	})

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	payload, ok := resolved.Payload.(*payloads.WithdrawalRequestedEvent)
	if !ok {
		t.Fatalf("payload type %T", resolved.Payload)
	}
	if payload.WithdrawalID != withdrawalID || payload.AmountMinor != 150000 || payload.TransferID != "wd_123" {
		t.Fatalf("payload = %+v", payload)
	}
	if resolved.Envelope.Version != 1 || resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope = %+v", resolved.Envelope)
	}
}

func TestResolveRejectsBadRows(t *testing.T) {
	reg := mustRegistry(t)

	unknown := row(t, "order_paid", enums.AggregateBooking, map[string]string{})
	mismatch := row(t, enums.EventPaymentCompleted, enums.AggregateBooking, payloads.PaymentEvent{})
	noAggregate := row(t, enums.EventBookingCreated, enums.AggregateBooking, payloads.BookingEvent{})
	noAggregate.AggregateID = uuid.Nil
	nullData := row(t, enums.EventBookingCreated, enums.AggregateBooking, nil)
	futureVersion := row(t, enums.EventBookingCreated, enums.AggregateBooking, payloads.BookingEvent{})
	futureVersion.Payload = envelopeBody(t, 2, uuid.NewString(), payloads.BookingEvent{})
	notJSON := row(t, enums.EventBookingCreated, enums.AggregateBooking, payloads.BookingEvent{})
	notJSON.Payload = json.RawMessage(`{"version":`)

	for name, event := range map[string]models.OutboxEvent{
		"unknown type":    unknown,
		"wrong aggregate": mismatch,
		"nil aggregate":   noAggregate,
		"null data":       nullData,
		"future version":  futureVersion,
		"truncated":       notJSON,
	} {
		_, err := reg.Resolve(event)
		var nonRetry NonRetryableError
		if !errors.As(err, &nonRetry) {
			t.Errorf("%s: expected NonRetryableError, got %v", name, err)
		}
	}
}

func TestNewEventRegistryRequiresEveryTopic(t *testing.T) {
	for _, cfg := range []config.PubSubConfig{
		{BookingsTopic: "b", PaymentsTopic: "p"},
		{BookingsTopic: "b", PayoutsTopic: "o"},
		{PaymentsTopic: "p", PayoutsTopic: "o"},
	} {
		if _, err := NewEventRegistry(cfg); err == nil {
			t.Fatalf("expected %+v to fail", cfg)
		}
	}
}
