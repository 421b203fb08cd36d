// Package razorpay implements the Razorpay Orders/Payments gateway.
package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
)

const SignatureHeader = "X-Razorpay-Signature"

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
)

type Client struct {
	keyID         string
	keySecret     string
	webhookSecret string
	http          *gateways.Transport
}

func New(cfg config.RazorpayConfig, httpClient *http.Client) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	return &Client{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		http: gateways.NewTransport(gateways.TransportParams{
			Provider: string(enums.GatewayRazorpay),
			Client:   httpClient,
			BaseURL:  cfg.BaseURL,
			Decorate: func(req *http.Request) {
				req.SetBasicAuth(keyID, keySecret)
			},
			ErrorPaths: gateways.ErrorPaths{Code: "error.code", Message: "error.description"},
		}),
	}, nil
}

func (c *Client) Name() enums.Gateway {
	return enums.GatewayRazorpay
}

type orderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

func (c *Client) CreateOrder(ctx context.Context, req gateways.OrderRequest) (*gateways.OrderRef, error) {
	minor, err := money.ToMinor(req.Amount, req.Currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayRazorpay), gateways.CodeInvalidRequest, err.Error())
	}
	raw, err := c.http.JSON(ctx, http.MethodPost, "/v1/orders", orderBody{
		Amount:   minor,
		Currency: req.Currency.String(),
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}, nil)
	if err != nil {
		return nil, err
	}

	order := gjson.ParseBytes(raw)
	orderID := order.Get("id").String()
	if orderID == "" {
		return nil, c.http.BadResponse(raw, "order id missing")
	}
	return &gateways.OrderRef{
		OrderID:     orderID,
		Receipt:     order.Get("receipt").String(),
		AmountMinor: order.Get("amount").Int(),
		Currency:    enums.Currency(order.Get("currency").String()),
		ClientPayload: map[string]any{
			"keyId":    c.keyID,
			"orderId":  orderID,
			"amount":   order.Get("amount").Int(),
			"currency": order.Get("currency").String(),
			"name":     req.Customer.Name,
			"email":    req.Customer.Email,
			"contact":  req.Customer.Phone,
		},
		Raw: json.RawMessage(raw),
	}, nil
}

// VerifySignature checks the checkout signature
// hex(HMAC-SHA256(order_id + "|" + payment_id, key_secret)).
func (c *Client) VerifySignature(orderRef, paymentRef, signature string) bool {
	if orderRef == "" || paymentRef == "" {
		return false
	}
	expected := gateways.HMACHex(c.keySecret, []byte(orderRef+"|"+paymentRef))
	return gateways.SignatureEqual(expected, strings.TrimSpace(signature))
}

func (c *Client) FetchPayment(ctx context.Context, ref gateways.PaymentRef) (*gateways.PaymentRecord, error) {
	if ref.PaymentID == "" {
		return nil, gateways.NewError(string(enums.GatewayRazorpay), gateways.CodeInvalidRequest, "payment id is required")
	}
	raw, err := c.http.JSON(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(ref.PaymentID), nil, nil)
	if err != nil {
		return nil, err
	}
	payment := gjson.ParseBytes(raw)
	if payment.Get("id").String() == "" {
		return nil, c.http.BadResponse(raw, "payment id missing")
	}
	return &gateways.PaymentRecord{
		PaymentID:   payment.Get("id").String(),
		OrderID:     payment.Get("order_id").String(),
		Status:      paymentStatus(payment.Get("status").String()),
		AmountMinor: payment.Get("amount").Int(),
		Currency:    enums.Currency(payment.Get("currency").String()),
		Method:      payment.Get("method").String(),
		Raw:         json.RawMessage(raw),
	}, nil
}

func paymentStatus(status string) gateways.PaymentStatus {
	switch status {
	case "captured":
		return gateways.PaymentCaptured
	case "authorized":
		return gateways.PaymentAuthorized
	case "failed":
		return gateways.PaymentFailed
	case "refunded":
		return gateways.PaymentRefunded
	default:
		return gateways.PaymentPending
	}
}

type refundBody struct {
	Amount  int64             `json:"amount,omitempty"`
	Receipt string            `json:"receipt,omitempty"`
	Notes   map[string]string `json:"notes,omitempty"`
}

func (c *Client) Refund(ctx context.Context, req gateways.RefundRequest) (*gateways.RefundRecord, error) {
	if req.Payment.PaymentID == "" {
		return nil, gateways.NewError(string(enums.GatewayRazorpay), gateways.CodeInvalidRequest, "payment id is required")
	}
	body := refundBody{Receipt: req.RefundID}
	if req.Reason != "" {
		body.Notes = map[string]string{"reason": req.Reason}
	}
	if req.Amount != nil {
		minor, err := money.ToMinor(*req.Amount, req.Currency)
		if err != nil {
			return nil, gateways.NewError(string(enums.GatewayRazorpay), gateways.CodeInvalidRequest, err.Error())
		}
		body.Amount = minor
	}

	path := "/v1/payments/" + url.PathEscape(req.Payment.PaymentID) + "/refund"
	raw, err := c.http.JSON(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}
	refund := gjson.ParseBytes(raw)
	if refund.Get("id").String() == "" {
		return nil, c.http.BadResponse(raw, "refund id missing")
	}
	return &gateways.RefundRecord{
		RefundID:    refund.Get("id").String(),
		PaymentID:   refund.Get("payment_id").String(),
		AmountMinor: refund.Get("amount").Int(),
		Status:      refundStatus(refund.Get("status").String()),
		Raw:         json.RawMessage(raw),
	}, nil
}

func refundStatus(status string) gateways.RefundStatus {
	switch status {
	case "processed":
		return gateways.RefundProcessed
	case "failed":
		return gateways.RefundFailed
	default:
		return gateways.RefundPending
	}
}
