package payouts

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/registry"
	"github.com/google/uuid"
)

const withdrawalConsumerName = "payout-withdrawals"

type withdrawalProcessor interface {
	ProcessRequested(ctx context.Context, withdrawalID uuid.UUID) (*Result, error)
}

type deliveryClaims interface {
	Claim(ctx context.Context, scope, id string) (idempotency.State, error)
	Complete(ctx context.Context, scope, id string) error
	Release(ctx context.Context, scope, id string) error
}

// Consumer processes withdrawal_requested events from the payouts
// subscription.
type Consumer struct {
	decoders     *registry.Decoders
	processor    withdrawalProcessor
	subscription *pubsub.Subscriber
	claims       deliveryClaims
	logg         *logger.Logger
}

func NewConsumer(processor withdrawalProcessor, subscription *pubsub.Subscriber, claims deliveryClaims, logg *logger.Logger) (*Consumer, error) {
	if processor == nil {
		return nil, fmt.Errorf("payout service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("payouts subscription required")
	}
	if claims == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		decoders:     consumerDecoders(),
		processor:    processor,
		subscription: subscription,
		claims:       claims,
		logg:         logg,
	}, nil
}

func consumerDecoders() *registry.Decoders {
	d := registry.NewDecoders()
	registry.Register[payloads.WithdrawalRequestedEvent](d, enums.EventWithdrawalRequested, 1)
	return d
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process handles one delivery and reports whether it should be redelivered.
// Provider failures are acked: the withdrawal is already failed and waits for
// an operator.
func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) bool {
	eventType := attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})
	if !c.decoders.Handles(enums.OutboxEventType(eventType)) {
		return false
	}

	decoded, err := c.decoders.Decode(enums.OutboxEventType(eventType), data)
	if err != nil {
		c.logg.Error(logCtx, "dropping undecodable message", err)
		return false
	}
	eventID := decoded.EventID.String()
	payload := decoded.Payload.(*payloads.WithdrawalRequestedEvent)
	if payload.WithdrawalID == uuid.Nil {
		c.logg.Warn(logCtx, "withdrawal id missing")
		return false
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":      eventID,
		"withdrawal_id": payload.WithdrawalID.String(),
		"transfer_id":   payload.TransferID,
	})

	state, err := c.claims.Claim(ctx, withdrawalConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency claim failed", err)
		return true
	}
	switch state {
	case idempotency.Done:
		c.logg.Info(logCtx, "event already processed")
		return false
	case idempotency.InFlight:
		c.logg.Debug(logCtx, "event held by another worker")
		return true
	}

	result, err := c.processor.ProcessRequested(logCtx, payload.WithdrawalID)
	switch {
	case err == nil:
		c.logg.Info(c.logg.WithField(logCtx, "status", result.Status), "withdrawal processed")
	case errors.Is(err, ErrWithdrawalFailed), errors.Is(err, ErrNotProcessable), errors.Is(err, ErrWithdrawalNotFound):
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "withdrawal not paid out")
	default:
		c.logg.Error(logCtx, "withdrawal processing failed", err)
		if relErr := c.claims.Release(ctx, withdrawalConsumerName, eventID); relErr != nil {
			c.logg.Error(logCtx, "idempotency release failed", relErr)
		}
		return true
	}
	if err := c.claims.Complete(ctx, withdrawalConsumerName, eventID); err != nil {
		// The withdrawal row guards against a second payout; only the marker is lost.
		c.logg.Error(logCtx, "idempotency complete failed", err)
	}
	return false
}
