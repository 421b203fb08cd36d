package registry

import (
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/google/uuid"
)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// Decoders is the consumer side of the registry: it maps an event type and
// envelope version to the payload struct a subscriber understands. Register
// everything before the first Decode; lookups are not locked.
type Decoders struct {
	byKey map[decoderKey]func(json.RawMessage) (any, error)
}

func NewDecoders() *Decoders {
	return &Decoders{byKey: map[decoderKey]func(json.RawMessage) (any, error){}}
}

// Register binds eventType@version to payload type T.
func Register[T any](d *Decoders, eventType enums.OutboxEventType, version int) {
	d.byKey[decoderKey{eventType, version}] = func(raw json.RawMessage) (any, error) {
		payload := new(T)
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

// Decoded is one message body split into its envelope and typed payload.
type Decoded struct {
	EventID  uuid.UUID
	Envelope outbox.PayloadEnvelope
	Payload  any
}

// Decode parses a Pub/Sub message body. Every failure is a NonRetryableError:
// redelivering the same bytes cannot succeed.
func (d *Decoders) Decode(eventType enums.OutboxEventType, body []byte) (*Decoded, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("invalid event id %q: %w", envelope.EventID, err))
	}
	decode, ok := d.byKey[decoderKey{eventType, envelope.Version}]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("no decoder for %s@v%d", eventType, envelope.Version))
	}
	payload, err := decode(envelope.Data)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", eventType, err))
	}
	return &Decoded{EventID: eventID, Envelope: envelope, Payload: payload}, nil
}

// Handles reports whether any version of eventType is registered.
func (d *Decoders) Handles(eventType enums.OutboxEventType) bool {
	for key := range d.byKey {
		if key.eventType == eventType {
			return true
		}
	}
	return false
}
