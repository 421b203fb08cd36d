package stripe

import (
	"encoding/json"
	"net/http"

	"github.com/stripe/stripe-go/v84/webhook"
	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
)

// VerifyWebhookSignature validates the Stripe-Signature header
// (t=<ts>,v1=<hmac of "ts.body">) with the default tolerance.
func (c *Client) VerifyWebhookSignature(rawBody []byte, headers http.Header) bool {
	if c.signingSecret == "" {
		return false
	}
	_, err := webhook.ConstructEventWithOptions(rawBody, headers.Get(SignatureHeader), c.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	return err == nil
}

func (c *Client) ParseWebhook(rawBody []byte) (*gateways.WebhookEvent, error) {
	if !gjson.ValidBytes(rawBody) {
		return nil, gateways.NewError(string(enums.GatewayStripe), gateways.CodeBadResponse, "webhook body is not json")
	}
	body := gjson.ParseBytes(rawBody)
	object := body.Get("data.object")

	event := &gateways.WebhookEvent{
		EventID:  body.Get("id").String(),
		Type:     gateways.WebhookIgnored,
		Currency: currencyOf(object.Get("currency").String()),
		Raw:      json.RawMessage(rawBody),
	}

	switch body.Get("type").String() {
	case "payment_intent.succeeded":
		event.Type = gateways.WebhookPaymentCaptured
		event.OrderID = object.Get("id").String()
		event.PaymentID = event.OrderID
		event.Receipt = object.Get("metadata." + receiptKey).String()
		event.AmountMinor = object.Get("amount_received").Int()
	case "payment_intent.payment_failed", "payment_intent.canceled":
		event.Type = gateways.WebhookPaymentFailed
		event.OrderID = object.Get("id").String()
		event.PaymentID = event.OrderID
		event.Receipt = object.Get("metadata." + receiptKey).String()
		event.Reason = object.Get("last_payment_error.message").String()
	case "charge.refunded":
		event.Type = gateways.WebhookRefundProcessed
		event.OrderID = object.Get("payment_intent").String()
		event.PaymentID = event.OrderID
		event.RefundID = object.Get("refunds.data.0.id").String()
		event.AmountMinor = object.Get("amount_refunded").Int()
	}
	return event, nil
}
