package registry

import (
	"bytes"
	"fmt"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// EventDescriptor is where an event type is published and which aggregate
// it must belong to.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row that passed validation, ready to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError marks a failure that no amount of redelivery fixes.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// EventRegistry is the publisher side of the registry. Rows are decoded with
// the same Decoders a subscriber uses, so anything published is decodable.
type EventRegistry struct {
	routes   map[enums.OutboxEventType]EventDescriptor
	decoders *Decoders
}

func route[T any](r *EventRegistry, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) {
	r.routes[eventType] = EventDescriptor{EventType: eventType, AggregateType: aggregate, Topic: topic}
	Register[T](r.decoders, eventType, 1)
}

// NewEventRegistry routes every known event type onto one of the three
// configured topics.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	for name, topic := range map[string]string{
		"bookings": cfg.BookingsTopic,
		"payments": cfg.PaymentsTopic,
		"payouts":  cfg.PayoutsTopic,
	} {
		if topic == "" {
			return nil, fmt.Errorf("%s topic is required", name)
		}
	}
	r := &EventRegistry{
		routes:   map[enums.OutboxEventType]EventDescriptor{},
		decoders: NewDecoders(),
	}

	route[payloads.BookingEvent](r, enums.EventBookingCreated, enums.AggregateBooking, cfg.BookingsTopic)
	route[payloads.BookingEvent](r, enums.EventBookingCancelled, enums.AggregateBooking, cfg.BookingsTopic)
	route[payloads.BookingEvent](r, enums.EventBookingExpired, enums.AggregateBooking, cfg.BookingsTopic)
	route[payloads.TicketIssuedEvent](r, enums.EventTicketIssued, enums.AggregateTicket, cfg.BookingsTopic)

	route[payloads.PaymentEvent](r, enums.EventPaymentCompleted, enums.AggregatePaymentTransaction, cfg.PaymentsTopic)
	route[payloads.PaymentEvent](r, enums.EventPaymentFailed, enums.AggregatePaymentTransaction, cfg.PaymentsTopic)
	route[payloads.PaymentEvent](r, enums.EventPaymentRefunded, enums.AggregatePaymentTransaction, cfg.PaymentsTopic)
	route[payloads.PaymentEvent](r, enums.EventPaymentNeedsReview, enums.AggregatePaymentTransaction, cfg.PaymentsTopic)
	route[payloads.VideoPurchaseCompletedEvent](r, enums.EventVideoPurchaseCompleted, enums.AggregateVideoPurchase, cfg.PaymentsTopic)

	route[payloads.VendorRegisteredEvent](r, enums.EventVendorRegistered, enums.AggregateVendor, cfg.PayoutsTopic)
	route[payloads.WithdrawalRequestedEvent](r, enums.EventWithdrawalRequested, enums.AggregateVendorWithdrawal, cfg.PayoutsTopic)
	route[payloads.WithdrawalOutcomeEvent](r, enums.EventWithdrawalCompleted, enums.AggregateVendorWithdrawal, cfg.PayoutsTopic)
	route[payloads.WithdrawalOutcomeEvent](r, enums.EventWithdrawalFailed, enums.AggregateVendorWithdrawal, cfg.PayoutsTopic)

	return r, nil
}

// Resolve checks a row against its route and decodes the payload. Every
// error is a NonRetryableError.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	case desc.AggregateType != event.AggregateType:
		return nil, NewNonRetryableError(fmt.Errorf("%s belongs to %s, row says %s", event.EventType, desc.AggregateType, event.AggregateType))
	case event.AggregateID == uuid.Nil:
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	decoded, err := r.decoders.Decode(event.EventType, event.Payload)
	if err != nil {
		return nil, err
	}
	if data := bytes.TrimSpace(decoded.Envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: decoded.Envelope, Payload: decoded.Payload}, nil
}
