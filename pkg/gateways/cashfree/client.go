// Package cashfree implements the Cashfree PG orders gateway.
package cashfree

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
)

const (
	SignatureHeader = "x-webhook-signature"
	TimestampHeader = "x-webhook-timestamp"

	defaultAPIVersion = "2023-08-01"
)

var (
	errClientIDRequired     = errors.New("cashfree client id is required")
	errClientSecretRequired = errors.New("cashfree client secret is required")
)

type Client struct {
	clientSecret string
	returnURL    string
	http         *gateways.Transport
}

func New(cfg config.CashfreeConfig, httpClient *http.Client) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientSecret == "" {
		return nil, errClientSecretRequired
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	return &Client{
		clientSecret: clientSecret,
		returnURL:    strings.TrimSpace(cfg.ReturnURL),
		http: gateways.NewTransport(gateways.TransportParams{
			Provider: string(enums.GatewayCashfree),
			Client:   httpClient,
			BaseURL:  cfg.BaseURL,
			Decorate: func(req *http.Request) {
				req.Header.Set("x-client-id", clientID)
				req.Header.Set("x-client-secret", clientSecret)
				req.Header.Set("x-api-version", version)
			},
			ErrorPaths: gateways.ErrorPaths{Code: "code", Message: "message"},
		}),
	}, nil
}

func (c *Client) Name() enums.Gateway {
	return enums.GatewayCashfree
}

type customerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone"`
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type orderBody struct {
	OrderID         string            `json:"order_id"`
	OrderAmount     json.Number       `json:"order_amount"`
	OrderCurrency   string            `json:"order_currency"`
	CustomerDetails customerDetails   `json:"customer_details"`
	OrderMeta       *orderMeta        `json:"order_meta,omitempty"`
	OrderTags       map[string]string `json:"order_tags,omitempty"`
}

// CreateOrder uses the receipt as the Cashfree order id.
func (c *Client) CreateOrder(ctx context.Context, req gateways.OrderRequest) (*gateways.OrderRef, error) {
	amount, err := amountString(req.Amount, req.Currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCashfree), gateways.CodeInvalidRequest, err.Error())
	}
	customerID := req.Customer.ID
	if customerID == "" {
		customerID = "guest"
	}
	body := orderBody{
		OrderID:       req.Receipt,
		OrderAmount:   json.Number(amount),
		OrderCurrency: req.Currency.String(),
		CustomerDetails: customerDetails{
			CustomerID:    customerID,
			CustomerName:  req.Customer.Name,
			CustomerEmail: req.Customer.Email,
			CustomerPhone: req.Customer.Phone,
		},
		OrderTags: req.Notes,
	}
	if c.returnURL != "" {
		body.OrderMeta = &orderMeta{ReturnURL: c.returnURL}
	}

	raw, err := c.http.JSON(ctx, http.MethodPost, "/pg/orders", body, nil)
	if err != nil {
		return nil, err
	}
	order := gjson.ParseBytes(raw)
	orderID := order.Get("order_id").String()
	session := order.Get("payment_session_id").String()
	if orderID == "" || session == "" {
		return nil, c.http.BadResponse(raw, "order id or payment session missing")
	}
	currency := enums.Currency(order.Get("order_currency").String())
	minor, err := minorOf(order.Get("order_amount"), currency)
	if err != nil {
		return nil, c.http.BadResponse(raw, err.Error())
	}
	return &gateways.OrderRef{
		OrderID:     orderID,
		Receipt:     orderID,
		AmountMinor: minor,
		Currency:    currency,
		ClientPayload: map[string]any{
			"orderId":          orderID,
			"cfOrderId":        order.Get("cf_order_id").String(),
			"paymentSessionId": session,
		},
		Raw: json.RawMessage(raw),
	}, nil
}

// VerifySignature checks base64(HMAC-SHA256(order_id + payment_id, client_secret)).
func (c *Client) VerifySignature(orderRef, paymentRef, signature string) bool {
	if orderRef == "" || paymentRef == "" {
		return false
	}
	expected := gateways.HMACBase64(c.clientSecret, []byte(orderRef+paymentRef))
	return gateways.SignatureEqual(expected, strings.TrimSpace(signature))
}

// FetchPayment lists the order's payment attempts and picks the requested
// one, or the successful one when no payment id is given.
func (c *Client) FetchPayment(ctx context.Context, ref gateways.PaymentRef) (*gateways.PaymentRecord, error) {
	if ref.OrderID == "" {
		return nil, gateways.NewError(string(enums.GatewayCashfree), gateways.CodeInvalidRequest, "order id is required")
	}
	raw, err := c.http.JSON(ctx, http.MethodGet, "/pg/orders/"+url.PathEscape(ref.OrderID)+"/payments", nil, nil)
	if err != nil {
		return nil, err
	}
	attempts := gjson.ParseBytes(raw)
	if !attempts.IsArray() {
		return nil, c.http.BadResponse(raw, "payments list expected")
	}

	var picked gjson.Result
	for _, attempt := range attempts.Array() {
		id := attempt.Get("cf_payment_id").String()
		if ref.PaymentID != "" {
			if id == ref.PaymentID {
				picked = attempt
				break
			}
			continue
		}
		if !picked.Exists() || attempt.Get("payment_status").String() == "SUCCESS" {
			picked = attempt
		}
	}
	if !picked.Exists() {
		return nil, &gateways.GatewayError{
			Gateway:    string(enums.GatewayCashfree),
			Code:       "payment_not_found",
			Message:    "no matching payment for order",
			StatusCode: http.StatusNotFound,
			Raw:        json.RawMessage(raw),
		}
	}

	currency := enums.Currency(picked.Get("payment_currency").String())
	minor, err := minorOf(picked.Get("payment_amount"), currency)
	if err != nil {
		return nil, c.http.BadResponse(raw, err.Error())
	}
	return &gateways.PaymentRecord{
		PaymentID:   picked.Get("cf_payment_id").String(),
		OrderID:     ref.OrderID,
		Status:      paymentStatus(picked.Get("payment_status").String()),
		AmountMinor: minor,
		Currency:    currency,
		Method:      picked.Get("payment_group").String(),
		Raw:         json.RawMessage(picked.Raw),
	}, nil
}

func paymentStatus(status string) gateways.PaymentStatus {
	switch status {
	case "SUCCESS":
		return gateways.PaymentCaptured
	case "FAILED", "USER_DROPPED", "CANCELLED", "VOID":
		return gateways.PaymentFailed
	default:
		return gateways.PaymentPending
	}
}

type refundBody struct {
	RefundAmount json.Number `json:"refund_amount"`
	RefundID     string      `json:"refund_id"`
	RefundNote   string      `json:"refund_note,omitempty"`
}

// Refund requires an amount on the Cashfree side, so a full refund reads
// the order amount first.
func (c *Client) Refund(ctx context.Context, req gateways.RefundRequest) (*gateways.RefundRecord, error) {
	orderID := req.Payment.OrderID
	if orderID == "" {
		return nil, gateways.NewError(string(enums.GatewayCashfree), gateways.CodeInvalidRequest, "order id is required")
	}

	var amount string
	if req.Amount != nil {
		formatted, err := amountString(*req.Amount, req.Currency)
		if err != nil {
			return nil, gateways.NewError(string(enums.GatewayCashfree), gateways.CodeInvalidRequest, err.Error())
		}
		amount = formatted
	} else {
		raw, err := c.http.JSON(ctx, http.MethodGet, "/pg/orders/"+url.PathEscape(orderID), nil, nil)
		if err != nil {
			return nil, err
		}
		amount = gjson.GetBytes(raw, "order_amount").Raw
		if amount == "" {
			return nil, c.http.BadResponse(raw, "order amount missing")
		}
	}

	raw, err := c.http.JSON(ctx, http.MethodPost, "/pg/orders/"+url.PathEscape(orderID)+"/refunds", refundBody{
		RefundAmount: json.Number(amount),
		RefundID:     req.RefundID,
		RefundNote:   req.Reason,
	}, nil)
	if err != nil {
		return nil, err
	}
	refund := gjson.ParseBytes(raw)
	minor, err := minorOf(refund.Get("refund_amount"), req.Currency)
	if err != nil {
		return nil, c.http.BadResponse(raw, err.Error())
	}
	return &gateways.RefundRecord{
		RefundID:    refund.Get("cf_refund_id").String(),
		PaymentID:   refund.Get("cf_payment_id").String(),
		AmountMinor: minor,
		Status:      refundStatus(refund.Get("refund_status").String()),
		Raw:         json.RawMessage(raw),
	}, nil
}

func refundStatus(status string) gateways.RefundStatus {
	switch status {
	case "SUCCESS":
		return gateways.RefundProcessed
	case "CANCELLED", "FAILED":
		return gateways.RefundFailed
	default:
		return gateways.RefundPending
	}
}

// amountString rounds half-up to the currency's minor unit and renders the
// major amount Cashfree expects, e.g. "299.00".
func amountString(amount decimal.Decimal, currency enums.Currency) (string, error) {
	minor, err := money.ToMinor(amount, currency)
	if err != nil {
		return "", err
	}
	major, err := money.FromMinor(minor, currency)
	if err != nil {
		return "", err
	}
	return major.StringFixed(2), nil
}

func minorOf(value gjson.Result, currency enums.Currency) (int64, error) {
	if !value.Exists() {
		return 0, nil
	}
	raw := value.Raw
	if value.Type == gjson.String {
		raw = value.Str
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	if currency == "" {
		currency = enums.CurrencyINR
	}
	return money.ToMinor(amount, currency)
}
