// Package gateways defines the provider-neutral contract every payment
// gateway variant implements, plus the helpers they share.
package gateways

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// Gateway is one payment provider. Implementations make no retries; every
// network or provider failure is returned as a *GatewayError.
type Gateway interface {
	Name() enums.Gateway
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderRef, error)
	// VerifySignature is a local cryptographic check and never touches the
	// network.
	VerifySignature(orderRef, paymentRef, signature string) bool
	FetchPayment(ctx context.Context, paymentRef PaymentRef) (*PaymentRecord, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundRecord, error)
	// VerifyWebhookSignature checks the provider signature over the exact raw
	// body, using whatever framing the provider signs.
	VerifyWebhookSignature(rawBody []byte, headers http.Header) bool
	ParseWebhook(rawBody []byte) (*WebhookEvent, error)
}

// Customer is the payer contact some providers require on order creation.
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// OrderRequest carries the amount in major units; variants convert to
// minor units at the boundary.
type OrderRequest struct {
	Amount   decimal.Decimal
	Currency enums.Currency
	Receipt  string
	Notes    map[string]string
	Customer Customer
}

// OrderRef is the provider order plus whatever the client SDK needs to
// continue checkout.
type OrderRef struct {
	OrderID       string
	Receipt       string
	AmountMinor   int64
	Currency      enums.Currency
	ClientPayload map[string]any
	Raw           json.RawMessage
}

// PaymentRef identifies a payment. Some providers address payments through
// their order, so both ids travel together.
type PaymentRef struct {
	OrderID   string
	PaymentID string
}

type PaymentStatus string

const (
	PaymentCaptured   PaymentStatus = "captured"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentFailed     PaymentStatus = "failed"
	PaymentPending    PaymentStatus = "pending"
	PaymentRefunded   PaymentStatus = "refunded"
)

// PaymentRecord is the provider's authoritative view of a payment.
type PaymentRecord struct {
	PaymentID   string
	OrderID     string
	Status      PaymentStatus
	AmountMinor int64
	Currency    enums.Currency
	Method      string
	Raw         json.RawMessage
}

// RefundRequest refunds a payment. A nil Amount means a full refund.
type RefundRequest struct {
	Payment  PaymentRef
	Amount   *decimal.Decimal
	Currency enums.Currency
	// RefundID is our idempotency reference for the refund.
	RefundID string
	Reason   string
}

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

type RefundRecord struct {
	RefundID    string
	PaymentID   string
	AmountMinor int64
	Status      RefundStatus
	Raw         json.RawMessage
}

type WebhookEventType string

const (
	WebhookPaymentCaptured WebhookEventType = "payment_captured"
	WebhookPaymentFailed   WebhookEventType = "payment_failed"
	WebhookRefundProcessed WebhookEventType = "refund_processed"
	WebhookIgnored         WebhookEventType = "ignored"
)

// WebhookEvent is a verified provider notification reduced to what
// reconciliation needs.
type WebhookEvent struct {
	EventID     string
	Type        WebhookEventType
	OrderID     string
	PaymentID   string
	RefundID    string
	Receipt     string
	AmountMinor int64
	Currency    enums.Currency
	Reason      string
	Raw         json.RawMessage
}
