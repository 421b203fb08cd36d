package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func envelopeBody(t *testing.T, version int, eventID string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(outbox.PayloadEnvelope{Version: version, EventID: eventID, OccurredAt: time.Now(), Data: raw})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestDecodersReturnTypedPayload(t *testing.T) {
	d := NewDecoders()
	Register[payloads.WithdrawalRequestedEvent](d, enums.EventWithdrawalRequested, 1)
	eventID, withdrawalID := uuid.New(), uuid.New()

	decoded, err := d.Decode(enums.EventWithdrawalRequested, envelopeBody(t, 1, eventID.String(), payloads.WithdrawalRequestedEvent{WithdrawalID: withdrawalID}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	payload, ok := decoded.Payload.(*payloads.WithdrawalRequestedEvent)
	if !ok || payload.WithdrawalID != withdrawalID || decoded.EventID != eventID {
		t.Fatalf("unexpected decode %+v", decoded)
	}
	if !d.Handles(enums.EventWithdrawalRequested) || d.Handles(enums.EventBookingCreated) {
		t.Fatal("Handles disagrees with registrations")
	}
}

func TestDecodersFailuresAreNonRetryable(t *testing.T) {
	d := NewDecoders()
	Register[payloads.WithdrawalRequestedEvent](d, enums.EventWithdrawalRequested, 1)

	cases := map[string][]byte{
		"garbage":         []byte("not json"),
		"bad event id":    envelopeBody(t, 1, "evt-1", map[string]string{}),
		"unknown version": envelopeBody(t, 2, uuid.NewString(), map[string]string{}),
		"bad payload":     envelopeBody(t, 1, uuid.NewString(), []int{1, 2}),
	}
	for name, body := range cases {
		_, err := d.Decode(enums.EventWithdrawalRequested, body)
		var nonRetry NonRetryableError
		if !errors.As(err, &nonRetry) {
			t.Errorf("%s: expected NonRetryableError, got %v", name, err)
		}
	}
}
