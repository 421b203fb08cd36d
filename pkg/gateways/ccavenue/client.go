// Package ccavenue implements CCAvenue's non-seamless encrypted redirect
// gateway. Checkout responses carry no HMAC; a callback is trusted only when
// it decrypts with the working key.
package ccavenue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
)

const (
	apiVersion = "1.2"

	commandStatus = "orderStatusTracker"
	commandRefund = "refundOrder"
)

var (
	errMerchantIDRequired = errors.New("ccavenue merchant id is required")
	errWorkingKeyRequired = errors.New("ccavenue working key is required")
	errAccessCodeRequired = errors.New("ccavenue access code is required")
)

type Client struct {
	merchantID     string
	accessCode     string
	workingKey     string
	redirectURL    string
	cancelURL      string
	transactionURL string
	apiURL         string
	http           *gateways.Transport
}

func New(cfg config.CCAvenueConfig, httpClient *http.Client) (*Client, error) {
	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}
	workingKey := strings.TrimSpace(cfg.WorkingKey)
	if workingKey == "" {
		return nil, errWorkingKeyRequired
	}
	accessCode := strings.TrimSpace(cfg.AccessCode)
	if accessCode == "" {
		return nil, errAccessCodeRequired
	}
	return &Client{
		merchantID:     merchantID,
		accessCode:     accessCode,
		workingKey:     workingKey,
		redirectURL:    cfg.RedirectURL,
		cancelURL:      cfg.CancelURL,
		transactionURL: cfg.TransactionURL,
		apiURL:         cfg.APIURL,
		http: gateways.NewTransport(gateways.TransportParams{
			Provider: string(enums.GatewayCCAvenue),
			Client:   httpClient,
		}),
	}, nil
}

func (c *Client) Name() enums.Gateway {
	return enums.GatewayCCAvenue
}

// CreateOrder encrypts the redirect request locally; the browser posts it
// to CCAvenue, so no network call happens here.
func (c *Client) CreateOrder(_ context.Context, req gateways.OrderRequest) (*gateways.OrderRef, error) {
	minor, err := money.ToMinor(req.Amount, req.Currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, err.Error())
	}
	amount, _ := money.FromMinor(minor, req.Currency)

	form := url.Values{}
	form.Set("merchant_id", c.merchantID)
	form.Set("order_id", req.Receipt)
	form.Set("amount", amount.StringFixed(2))
	form.Set("currency", req.Currency.String())
	form.Set("redirect_url", c.redirectURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("language", "EN")
	if req.Customer.Name != "" {
		form.Set("billing_name", req.Customer.Name)
	}
	if req.Customer.Email != "" {
		form.Set("billing_email", req.Customer.Email)
	}
	if req.Customer.Phone != "" {
		form.Set("billing_tel", req.Customer.Phone)
	}
	if notes := encodeNotes(req.Notes); notes != "" {
		form.Set("merchant_param1", notes)
	}

	encRequest, err := Encrypt(c.workingKey, []byte(form.Encode()))
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, err.Error())
	}
	return &gateways.OrderRef{
		OrderID:     req.Receipt,
		Receipt:     req.Receipt,
		AmountMinor: minor,
		Currency:    req.Currency,
		ClientPayload: map[string]any{
			"encRequest":     encRequest,
			"accessCode":     c.accessCode,
			"transactionUrl": c.transactionURL,
		},
	}, nil
}

// VerifySignature treats successful decryption of encResp as the signature
// check and requires the decrypted order id to match. The amount is not
// covered here; reconciliation compares it with the stored transaction.
func (c *Client) VerifySignature(orderRef, _ string, encResp string) bool {
	values, err := c.DecryptResponse(encResp)
	if err != nil {
		return false
	}
	return orderRef != "" && values.Get("order_id") == orderRef
}

// DecryptResponse decrypts a redirect or webhook encResp into its fields.
func (c *Client) DecryptResponse(encResp string) (url.Values, error) {
	plain, err := Decrypt(c.workingKey, encResp)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(plain))
	if err != nil {
		return nil, err
	}
	if values.Get("order_id") == "" {
		return nil, errors.New("ccavenue: decrypted response has no order id")
	}
	return values, nil
}

// FetchPayment queries the order status API. The payment ref is CCAvenue's
// tracking id; the order id alone also works.
func (c *Client) FetchPayment(ctx context.Context, ref gateways.PaymentRef) (*gateways.PaymentRecord, error) {
	if ref.OrderID == "" && ref.PaymentID == "" {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, "order or tracking id is required")
	}
	payload := map[string]string{}
	if ref.OrderID != "" {
		payload["order_no"] = ref.OrderID
	}
	if ref.PaymentID != "" {
		payload["reference_no"] = ref.PaymentID
	}
	raw, err := c.call(ctx, commandStatus, payload)
	if err != nil {
		return nil, err
	}
	status := gjson.ParseBytes(raw)
	if status.Get("Order_Status_Result").Exists() {
		status = status.Get("Order_Status_Result")
	}
	currency := enums.Currency(status.Get("order_currncy").String())
	if currency == "" {
		currency = enums.CurrencyINR
	}
	minor, err := minorOf(status.Get("order_amt"), currency)
	if err != nil {
		return nil, c.http.BadResponse(raw, err.Error())
	}
	return &gateways.PaymentRecord{
		PaymentID:   status.Get("reference_no").String(),
		OrderID:     status.Get("order_no").String(),
		Status:      orderStatus(status.Get("order_status").String()),
		AmountMinor: minor,
		Currency:    currency,
		Method:      status.Get("order_option_type").String(),
		Raw:         json.RawMessage(raw),
	}, nil
}

func orderStatus(status string) gateways.PaymentStatus {
	switch strings.ToLower(status) {
	case "shipped", "successful", "success":
		return gateways.PaymentCaptured
	case "aborted", "unsuccessful", "failure", "invalid", "cancelled", "auto-cancelled", "system refund", "timeout":
		return gateways.PaymentFailed
	case "refunded", "chargeback":
		return gateways.PaymentRefunded
	default:
		return gateways.PaymentPending
	}
}

// Refund needs the tracking id. A full refund reads the captured amount
// from the status API first.
func (c *Client) Refund(ctx context.Context, req gateways.RefundRequest) (*gateways.RefundRecord, error) {
	if req.Payment.PaymentID == "" {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, "tracking id is required")
	}
	var minor int64
	if req.Amount != nil {
		converted, err := money.ToMinor(*req.Amount, req.Currency)
		if err != nil {
			return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, err.Error())
		}
		minor = converted
	} else {
		payment, err := c.FetchPayment(ctx, req.Payment)
		if err != nil {
			return nil, err
		}
		minor = payment.AmountMinor
	}
	currency := req.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	amount, err := money.FromMinor(minor, currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, err.Error())
	}

	raw, err := c.call(ctx, commandRefund, map[string]string{
		"reference_no":  req.Payment.PaymentID,
		"refund_amount": amount.StringFixed(2),
		"refund_ref_no": req.RefundID,
	})
	if err != nil {
		return nil, err
	}
	result := gjson.ParseBytes(raw)
	if result.Get("Refund_Order_Result").Exists() {
		result = result.Get("Refund_Order_Result")
	}
	if result.Get("refund_status").Int() != 0 {
		return nil, &gateways.GatewayError{
			Gateway: string(enums.GatewayCCAvenue),
			Code:    "refund_rejected",
			Message: result.Get("reason").String(),
			Raw:     json.RawMessage(raw),
		}
	}
	return &gateways.RefundRecord{
		RefundID:    req.RefundID,
		PaymentID:   req.Payment.PaymentID,
		AmountMinor: minor,
		Status:      gateways.RefundProcessed,
		Raw:         json.RawMessage(raw),
	}, nil
}

// call runs one encrypted API command. Status 0 responses carry an
// encrypted JSON body; anything else carries a plain error message.
func (c *Client) call(ctx context.Context, command string, payload map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, err.Error())
	}
	encRequest, err := Encrypt(c.workingKey, body)
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayCCAvenue), gateways.CodeInvalidRequest, err.Error())
	}

	form := url.Values{}
	form.Set("enc_request", encRequest)
	form.Set("access_code", c.accessCode)
	form.Set("command", command)
	form.Set("request_type", "JSON")
	form.Set("response_type", "JSON")
	form.Set("version", apiVersion)

	raw, err := c.http.Form(ctx, c.apiURL, form)
	if err != nil {
		return nil, err
	}
	reply, err := url.ParseQuery(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, c.http.BadResponse(nil, "status response is not form encoded")
	}
	if reply.Get("status") != "0" {
		return nil, &gateways.GatewayError{
			Gateway: string(enums.GatewayCCAvenue),
			Code:    "api_error",
			Message: strings.TrimSpace(reply.Get("enc_response")),
		}
	}
	plain, err := Decrypt(c.workingKey, reply.Get("enc_response"))
	if err != nil {
		return nil, c.http.BadResponse(nil, "decrypt api response: "+err.Error())
	}
	if !gjson.ValidBytes(plain) {
		return nil, c.http.BadResponse(nil, "api response is not json")
	}
	return plain, nil
}

// encodeNotes packs notes into merchant_param1 as sorted key=value pairs.
func encodeNotes(notes map[string]string) string {
	if len(notes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(notes))
	for k := range notes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+notes[k])
	}
	return strings.Join(parts, ";")
}

// DecodeNotes reverses encodeNotes.
func DecodeNotes(param string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(param, ";") {
		k, v, ok := strings.Cut(part, "=")
		if ok && k != "" {
			out[k] = v
		}
	}
	return out
}

func minorOf(value gjson.Result, currency enums.Currency) (int64, error) {
	if !value.Exists() {
		return 0, nil
	}
	if value.Type == gjson.String {
		return minorOfString(value.Str, currency)
	}
	return minorOfString(value.Raw, currency)
}

func minorOfString(raw string, currency enums.Currency) (int64, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return money.ToMinor(amount, currency)
}
