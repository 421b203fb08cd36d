package razorpay

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
)

// VerifyWebhookSignature checks hex(HMAC-SHA256(rawBody, webhook_secret)).
func (c *Client) VerifyWebhookSignature(rawBody []byte, headers http.Header) bool {
	if c.webhookSecret == "" {
		return false
	}
	expected := gateways.HMACHex(c.webhookSecret, rawBody)
	return gateways.SignatureEqual(expected, strings.TrimSpace(headers.Get(SignatureHeader)))
}

// ParseWebhook maps a Razorpay event. The body carries no event id, so the
// id is derived from the event name and the entity it concerns.
func (c *Client) ParseWebhook(rawBody []byte) (*gateways.WebhookEvent, error) {
	if !gjson.ValidBytes(rawBody) {
		return nil, gateways.NewError(string(enums.GatewayRazorpay), gateways.CodeBadResponse, "webhook body is not json")
	}
	body := gjson.ParseBytes(rawBody)
	name := body.Get("event").String()
	payment := body.Get("payload.payment.entity")
	order := body.Get("payload.order.entity")
	refund := body.Get("payload.refund.entity")

	event := &gateways.WebhookEvent{
		Type:        gateways.WebhookIgnored,
		OrderID:     payment.Get("order_id").String(),
		PaymentID:   payment.Get("id").String(),
		AmountMinor: payment.Get("amount").Int(),
		Currency:    enums.Currency(payment.Get("currency").String()),
		Receipt:     order.Get("receipt").String(),
		Raw:         json.RawMessage(rawBody),
	}
	if event.OrderID == "" {
		event.OrderID = order.Get("id").String()
	}

	switch name {
	case "payment.captured", "order.paid":
		event.Type = gateways.WebhookPaymentCaptured
	case "payment.failed":
		event.Type = gateways.WebhookPaymentFailed
		event.Reason = payment.Get("error_description").String()
	case "refund.processed":
		event.Type = gateways.WebhookRefundProcessed
		event.RefundID = refund.Get("id").String()
		event.PaymentID = refund.Get("payment_id").String()
		event.AmountMinor = refund.Get("amount").Int()
	}

	entity := event.PaymentID
	if event.RefundID != "" {
		entity = event.RefundID
	}
	if entity == "" {
		entity = event.OrderID
	}
	event.EventID = name + ":" + entity
	return event, nil
}
