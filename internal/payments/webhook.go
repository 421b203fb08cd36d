package payments

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/idempotency"
	"gorm.io/gorm"
)

const webhookScope = "payment-webhook"

// DeliveryGuard dedupes webhook deliveries; idempotency.Manager satisfies it.
type DeliveryGuard interface {
	Claim(ctx context.Context, scope, id string) (idempotency.State, error)
	Complete(ctx context.Context, scope, id string) error
	Release(ctx context.Context, scope, id string) error
}

// HandleWebhook verifies and applies one gateway notification. Deliveries
// are deduped by provider event id; the claim is dropped again when
// processing fails so the provider's retry runs the event once more.
func (s *Service) HandleWebhook(ctx context.Context, gatewayName string, rawBody []byte, headers http.Header) error {
	gw, err := s.gateways.Get(gatewayName)
	if err != nil {
		s.metrics.IncWebhook(gatewayName, "unknown_gateway")
		return err
	}
	name := gw.Name().String()
	if !gw.VerifyWebhookSignature(rawBody, headers) {
		s.logg.SecurityWarn(s.logg.WithField(ctx, "gateway", name), "webhook signature rejected")
		s.metrics.IncWebhook(name, "bad_signature")
		return ErrSignatureInvalid
	}
	event, err := gw.ParseWebhook(rawBody)
	if err != nil {
		s.metrics.IncWebhook(name, "malformed")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse webhook")
	}
	if event.Type == gateways.WebhookIgnored {
		s.metrics.IncWebhook(name, "ignored")
		return nil
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"gateway":    name,
		"event_id":   event.EventID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
	})
	guardKey := ""
	if s.guard != nil && event.EventID != "" {
		guardKey = name + ":" + event.EventID
		state, err := s.guard.Claim(ctx, webhookScope, guardKey)
		if err != nil {
			s.metrics.IncWebhook(name, "error")
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency")
		}
		switch state {
		case idempotency.Done:
			s.metrics.IncWebhook(name, "duplicate")
			s.logg.Info(logCtx, "duplicate webhook delivery skipped")
			return nil
		case idempotency.InFlight:
			// The gateway redelivers on non-2xx, by which time the first copy has settled.
			s.metrics.IncWebhook(name, "duplicate")
			return pkgerrors.New(pkgerrors.CodeConflict, "webhook delivery already in progress")
		}
	}

	if err := s.routeWebhook(logCtx, gw, event); err != nil {
		if guardKey != "" {
			if relErr := s.guard.Release(ctx, webhookScope, guardKey); relErr != nil {
				s.logg.Warn(s.logg.WithField(logCtx, "guard_error", relErr.Error()), "failed to release webhook guard")
			}
		}
		s.metrics.IncWebhook(name, "error")
		s.logg.Error(logCtx, "webhook processing failed", err)
		return err
	}
	if guardKey != "" {
		if err := s.guard.Complete(ctx, webhookScope, guardKey); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "guard_error", err.Error()), "failed to complete webhook guard")
		}
	}
	s.metrics.IncWebhook(name, "processed")
	return nil
}

func (s *Service) routeWebhook(ctx context.Context, gw gateways.Gateway, event *gateways.WebhookEvent) error {
	switch event.Type {
	case gateways.WebhookPaymentCaptured:
		return s.webhookCaptured(ctx, gw, event)
	case gateways.WebhookPaymentFailed:
		return s.webhookFailed(ctx, gw, event)
	case gateways.WebhookRefundProcessed:
		return s.webhookRefunded(ctx, gw, event)
	}
	return nil
}

func (s *Service) webhookCaptured(ctx context.Context, gw gateways.Gateway, event *gateways.WebhookEvent) error {
	txn, err := s.transactionForEvent(ctx, gw.Name(), event)
	if err != nil {
		return err
	}
	if txn == nil {
		s.logg.Warn(ctx, "capture for unknown order ignored")
		return nil
	}
	if txn.Status == enums.TransactionStatusSuccess || txn.Status == enums.TransactionStatusRefunded {
		s.metrics.IncCompletion(gw.Name().String(), "webhook", string(OutcomeAlreadyDone))
		return nil
	}
	// Some providers (CCAvenue) do not sign the amount, so it is always
	// compared against what the order was created for.
	if event.AmountMinor != txn.AmountMinor {
		s.metrics.IncCompletion(gw.Name().String(), "webhook", "amount_mismatch")
		return s.flagMismatch(ctx, txn, event.AmountMinor)
	}
	_, err = s.complete(ctx, txn, capture{
		PaymentID:   event.PaymentID,
		AmountMinor: event.AmountMinor,
		Raw:         event.Raw,
	}, "webhook")
	return err
}

// webhookFailed fails a pending transaction and its pending target. A
// failure arriving after a success is dropped by the conditional updates,
// and a parked capture keeps its review state.
func (s *Service) webhookFailed(ctx context.Context, gw gateways.Gateway, event *gateways.WebhookEvent) error {
	txn, err := s.transactionForEvent(ctx, gw.Name(), event)
	if err != nil {
		return err
	}
	if txn == nil {
		s.logg.Warn(ctx, "failure for unknown order ignored")
		return nil
	}
	if _, parked := parkedOutcome(txn); parked {
		s.logg.Warn(s.logg.WithField(ctx, "transaction_id", txn.ID.String()), "failure for a capture under review ignored")
		return nil
	}
	fulfiller, err := s.fulfiller(txn.TargetType)
	if err != nil {
		return err
	}
	reason := event.Reason
	if reason == "" {
		reason = "payment failed at gateway"
	}
	now := s.now().UTC()
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).MarkFailed(ctx, txn.ID, event.PaymentID, reason, event.Raw, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction failed")
		}
		if affected == 0 {
			return nil
		}
		if _, err := fulfiller.Fail(ctx, tx, txn.TargetID, reason); err != nil {
			return err
		}
		return s.emit(ctx, tx, enums.EventPaymentFailed, txn, reason, now)
	})
}

// webhookRefunded settles a refund this service started but did not finish
// recording. Refunds issued elsewhere are flagged instead.
func (s *Service) webhookRefunded(ctx context.Context, gw gateways.Gateway, event *gateways.WebhookEvent) error {
	txn, err := s.transactionForEvent(ctx, gw.Name(), event)
	if err != nil {
		return err
	}
	if txn == nil || txn.Status == enums.TransactionStatusRefunded {
		return nil
	}
	if txn.RefundID == nil {
		s.logg.SecurityWarn(s.logg.WithField(ctx, "transaction_id", txn.ID.String()), "refund not initiated by the platform")
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			return s.flagReview(ctx, tx, txn, ReviewUnexpectedRefund)
		})
	}
	_, err = s.finishRefund(ctx, txn, event.RefundID)
	if errors.Is(err, ErrAlreadyRefunded) {
		return nil
	}
	return err
}

// transactionForEvent resolves the event's transaction by order id, then
// receipt, then payment id. A nil result means the order is not ours.
func (s *Service) transactionForEvent(ctx context.Context, gateway enums.Gateway, event *gateways.WebhookEvent) (*models.PaymentTransaction, error) {
	lookups := []struct {
		value string
		find  func(context.Context, enums.Gateway, string) (*models.PaymentTransaction, error)
	}{
		{event.OrderID, s.repo.FindByOrder},
		{event.Receipt, s.repo.FindByReceipt},
		{event.PaymentID, s.repo.FindByPaymentID},
	}
	for _, lookup := range lookups {
		if lookup.value == "" {
			continue
		}
		txn, err := lookup.find(ctx, gateway, lookup.value)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, ErrTransactionNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment transaction")
		}
	}
	return nil, nil
}
