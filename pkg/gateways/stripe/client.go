// Package stripe implements the Stripe PaymentIntents gateway.
package stripe

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
)

const (
	testEnv = "test"
	liveEnv = "live"

	SignatureHeader = "Stripe-Signature"
	receiptKey      = "receipt"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// New builds a client from injected config. Network retries are disabled;
// callers own the retry policy.
func New(cfg config.StripeConfig, httpClient *http.Client) (*Client, error) {
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
	})
	return newClient(cfg, backends)
}

func newClient(cfg config.StripeConfig, backends *stripe.Backends) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}
	return &Client{
		api:           stripe.NewClient(apiKey, stripe.WithBackends(backends)),
		environment:   env,
		signingSecret: strings.TrimSpace(cfg.Secret),
	}, nil
}

func (c *Client) Name() enums.Gateway {
	return enums.GatewayStripe
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	return c.environment
}

func (c *Client) CreateOrder(ctx context.Context, req gateways.OrderRequest) (*gateways.OrderRef, error) {
	minor, err := money.ToMinor(req.Amount, req.Currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.GatewayStripe), gateways.CodeInvalidRequest, err.Error())
	}
	metadata := map[string]string{receiptKey: req.Receipt}
	for k, v := range req.Notes {
		metadata[k] = v
	}
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(strings.ToLower(req.Currency.String())),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Customer.Email != "" {
		params.ReceiptEmail = stripe.String(req.Customer.Email)
	}

	intent, err := c.api.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, toGatewayError(err)
	}
	return &gateways.OrderRef{
		OrderID:     intent.ID,
		Receipt:     intent.Metadata[receiptKey],
		AmountMinor: intent.Amount,
		Currency:    currencyOf(string(intent.Currency)),
		ClientPayload: map[string]any{
			"paymentIntentId": intent.ID,
			"clientSecret":    intent.ClientSecret,
		},
		Raw: rawOf(intent),
	}, nil
}

// VerifySignature checks that the client secret returned by checkout
// belongs to the intent. Stripe has no checkout HMAC; the authoritative
// status still comes from FetchPayment.
func (c *Client) VerifySignature(orderRef, paymentRef, clientSecret string) bool {
	if orderRef == "" {
		return false
	}
	if paymentRef != "" && paymentRef != orderRef {
		return false
	}
	prefix := orderRef + "_secret_"
	if len(clientSecret) <= len(prefix) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(clientSecret[:len(prefix)]), []byte(prefix)) == 1
}

func (c *Client) FetchPayment(ctx context.Context, ref gateways.PaymentRef) (*gateways.PaymentRecord, error) {
	id := ref.PaymentID
	if id == "" {
		id = ref.OrderID
	}
	if id == "" {
		return nil, gateways.NewError(string(enums.GatewayStripe), gateways.CodeInvalidRequest, "payment intent id is required")
	}
	intent, err := c.api.V1PaymentIntents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		return nil, toGatewayError(err)
	}
	amount := intent.AmountReceived
	if amount == 0 {
		amount = intent.Amount
	}
	method := ""
	if len(intent.PaymentMethodTypes) > 0 {
		method = intent.PaymentMethodTypes[0]
	}
	return &gateways.PaymentRecord{
		PaymentID:   intent.ID,
		OrderID:     intent.ID,
		Status:      intentStatus(intent),
		AmountMinor: amount,
		Currency:    currencyOf(string(intent.Currency)),
		Method:      method,
		Raw:         rawOf(intent),
	}, nil
}

func intentStatus(intent *stripe.PaymentIntent) gateways.PaymentStatus {
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return gateways.PaymentCaptured
	case stripe.PaymentIntentStatusRequiresCapture:
		return gateways.PaymentAuthorized
	case stripe.PaymentIntentStatusCanceled:
		return gateways.PaymentFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if intent.LastPaymentError != nil {
			return gateways.PaymentFailed
		}
		return gateways.PaymentPending
	default:
		return gateways.PaymentPending
	}
}

func (c *Client) Refund(ctx context.Context, req gateways.RefundRequest) (*gateways.RefundRecord, error) {
	id := req.Payment.PaymentID
	if id == "" {
		id = req.Payment.OrderID
	}
	if id == "" {
		return nil, gateways.NewError(string(enums.GatewayStripe), gateways.CodeInvalidRequest, "payment intent id is required")
	}
	params := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(id),
		Metadata:      map[string]string{"refund_ref": req.RefundID},
	}
	if req.Reason != "" {
		params.Metadata["reason"] = req.Reason
	}
	if req.Amount != nil {
		minor, err := money.ToMinor(*req.Amount, req.Currency)
		if err != nil {
			return nil, gateways.NewError(string(enums.GatewayStripe), gateways.CodeInvalidRequest, err.Error())
		}
		params.Amount = stripe.Int64(minor)
	}

	refund, err := c.api.V1Refunds.Create(ctx, params)
	if err != nil {
		return nil, toGatewayError(err)
	}
	return &gateways.RefundRecord{
		RefundID:    refund.ID,
		PaymentID:   id,
		AmountMinor: refund.Amount,
		Status:      refundStatus(refund.Status),
		Raw:         rawOf(refund),
	}, nil
}

func refundStatus(status stripe.RefundStatus) gateways.RefundStatus {
	switch status {
	case stripe.RefundStatusSucceeded:
		return gateways.RefundProcessed
	case stripe.RefundStatusFailed, stripe.RefundStatusCanceled:
		return gateways.RefundFailed
	default:
		return gateways.RefundPending
	}
}

func toGatewayError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		gwErr := &gateways.GatewayError{
			Gateway:    string(enums.GatewayStripe),
			Code:       string(stripeErr.Code),
			Message:    stripeErr.Msg,
			StatusCode: stripeErr.HTTPStatusCode,
		}
		if gwErr.Code == "" {
			gwErr.Code = string(stripeErr.Type)
		}
		if raw, mErr := json.Marshal(stripeErr); mErr == nil {
			gwErr.Raw = raw
		}
		return gwErr
	}
	return gateways.NewError(string(enums.GatewayStripe), gateways.CodeNetwork, err.Error())
}

func currencyOf(code string) enums.Currency {
	return enums.Currency(strings.ToUpper(code))
}

func rawOf(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
