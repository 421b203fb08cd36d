package ccavenue

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
)

// VerifyWebhookSignature accepts a notification only when its encResp
// decrypts with the working key.
func (c *Client) VerifyWebhookSignature(rawBody []byte, _ http.Header) bool {
	form, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return false
	}
	_, err = c.DecryptResponse(form.Get("encResp"))
	return err == nil
}

func (c *Client) ParseWebhook(rawBody []byte) (*gateways.WebhookEvent, error) {
	form, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeBadResponse, "webhook body is not form encoded")
	}
	values, err := c.DecryptResponse(form.Get("encResp"))
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeBadResponse, err.Error())
	}

	currency := enums.Currency(values.Get("currency"))
	if currency == "" {
		currency = enums.CurrencyINR
	}
	raw, _ := json.Marshal(flatten(values))
	event := &gateways.WebhookEvent{
		Type:      gateways.WebhookIgnored,
		OrderID:   values.Get("order_id"),
		Receipt:   values.Get("order_id"),
		PaymentID: values.Get("tracking_id"),
		Currency:  currency,
		Reason:    values.Get("failure_message"),
		Raw:       json.RawMessage(raw),
	}
	if amount := values.Get("amount"); amount != "" {
		if minor, err := minorOfString(amount, currency); err == nil {
			event.AmountMinor = minor
		}
	}
	switch orderStatus(values.Get("order_status")) {
	case gateways.PaymentCaptured:
		event.Type = gateways.WebhookPaymentCaptured
	case gateways.PaymentFailed:
		event.Type = gateways.WebhookPaymentFailed
		if event.Reason == "" {
			event.Reason = values.Get("status_message")
		}
	}
	event.EventID = "ccavenue:" + event.PaymentID + ":" + strings.ToLower(values.Get("order_status"))
	return event, nil
}

func flatten(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	return out
}
