package cashfree

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
)

// VerifyWebhookSignature checks base64(HMAC-SHA256(timestamp + rawBody,
// client_secret)). Cashfree signs the timestamp header together with the
// body, not the body alone.
func (c *Client) VerifyWebhookSignature(rawBody []byte, headers http.Header) bool {
	timestamp := strings.TrimSpace(headers.Get(TimestampHeader))
	if timestamp == "" {
		return false
	}
	expected := gateways.HMACBase64(c.clientSecret, []byte(timestamp), rawBody)
	return gateways.SignatureEqual(expected, strings.TrimSpace(headers.Get(SignatureHeader)))
}

func (c *Client) ParseWebhook(rawBody []byte) (*gateways.WebhookEvent, error) {
	if !gjson.ValidBytes(rawBody) {
		return nil, gateways.NewError(string(enums.GatewayCashfree), gateways.CodeBadResponse, "webhook body is not json")
	}
	body := gjson.ParseBytes(rawBody)
	kind := body.Get("type").String()
	order := body.Get("data.order")
	payment := body.Get("data.payment")

	currency := enums.Currency(order.Get("order_currency").String())
	event := &gateways.WebhookEvent{
		Type:      gateways.WebhookIgnored,
		OrderID:   order.Get("order_id").String(),
		Receipt:   order.Get("order_id").String(),
		PaymentID: payment.Get("cf_payment_id").String(),
		Currency:  currency,
		Raw:       json.RawMessage(rawBody),
	}
	if minor, err := minorOf(payment.Get("payment_amount"), currency); err == nil {
		event.AmountMinor = minor
	}

	switch kind {
	case "PAYMENT_SUCCESS_WEBHOOK":
		event.Type = gateways.WebhookPaymentCaptured
	case "PAYMENT_FAILED_WEBHOOK", "PAYMENT_USER_DROPPED_WEBHOOK":
		event.Type = gateways.WebhookPaymentFailed
		event.Reason = payment.Get("payment_message").String()
	case "REFUND_STATUS_WEBHOOK":
		refund := body.Get("data.refund")
		if refund.Get("refund_status").String() == "SUCCESS" {
			event.Type = gateways.WebhookRefundProcessed
		}
		event.OrderID = refund.Get("order_id").String()
		event.PaymentID = refund.Get("cf_payment_id").String()
		event.RefundID = refund.Get("cf_refund_id").String()
		if minor, err := minorOf(refund.Get("refund_amount"), currency); err == nil {
			event.AmountMinor = minor
		}
	}

	entity := event.PaymentID
	if event.RefundID != "" {
		entity = event.RefundID
	}
	if entity == "" {
		entity = event.OrderID
	}
	event.EventID = kind + ":" + entity
	return event, nil
}
