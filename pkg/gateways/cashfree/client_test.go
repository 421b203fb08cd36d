package cashfree

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(config.CashfreeConfig{
		ClientID:     "cf_id",
		ClientSecret: "cf_secret",
		BaseURL:      srv.URL,
		ReturnURL:    "https://app.example.com/return",
	}, srv.Client())
	require.NoError(t, err)
	return client
}

func TestCreateOrder(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pg/orders", r.URL.Path)
		assert.Equal(t, "cf_id", r.Header.Get("x-client-id"))
		assert.Equal(t, "cf_secret", r.Header.Get("x-client-secret"))
		assert.Equal(t, defaultAPIVersion, r.Header.Get("x-api-version"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(`{"cf_order_id":"2149","order_id":"RP-1","order_amount":29.99,"order_currency":"INR","payment_session_id":"session_abc","order_status":"ACTIVE"}`))
	})

	ref, err := client.CreateOrder(context.Background(), gateways.OrderRequest{
		Amount:   decimal.RequireFromString("29.99"),
		Currency: enums.CurrencyINR,
		Receipt:  "RP-1",
		Customer: gateways.Customer{ID: "u1", Phone: "9999999999"},
	})
	require.NoError(t, err)
	assert.Equal(t, "RP-1", ref.OrderID)
	assert.Equal(t, int64(2999), ref.AmountMinor)
	assert.Equal(t, "session_abc", ref.ClientPayload["paymentSessionId"])
	assert.Equal(t, "RP-1", body["order_id"])
	assert.Equal(t, 29.99, body["order_amount"])
	meta := body["order_meta"].(map[string]any)
	assert.Equal(t, "https://app.example.com/return", meta["return_url"])
}

func TestVerifySignature(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	sig := gateways.HMACBase64("cf_secret", []byte("RP-1"+"5114"))
	assert.True(t, client.VerifySignature("RP-1", "5114", sig))
	assert.False(t, client.VerifySignature("RP-1", "5115", sig))
	assert.False(t, client.VerifySignature("", "5114", sig))
}

func TestFetchPaymentPicksSuccessfulAttempt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pg/orders/RP-1/payments", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"cf_payment_id":"1","payment_status":"FAILED","payment_amount":29.99,"payment_currency":"INR","payment_group":"upi"},
			{"cf_payment_id":"2","payment_status":"SUCCESS","payment_amount":29.99,"payment_currency":"INR","payment_group":"credit_card"}
		]`))
	})

	payment, err := client.FetchPayment(context.Background(), gateways.PaymentRef{OrderID: "RP-1"})
	require.NoError(t, err)
	assert.Equal(t, "2", payment.PaymentID)
	assert.Equal(t, gateways.PaymentCaptured, payment.Status)
	assert.Equal(t, int64(2999), payment.AmountMinor)

	failed, err := client.FetchPayment(context.Background(), gateways.PaymentRef{OrderID: "RP-1", PaymentID: "1"})
	require.NoError(t, err)
	assert.Equal(t, gateways.PaymentFailed, failed.Status)

	_, err = client.FetchPayment(context.Background(), gateways.PaymentRef{OrderID: "RP-1", PaymentID: "9"})
	gwErr, ok := gateways.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "payment_not_found", gwErr.Code)
}

func TestFullRefundReadsOrderAmount(t *testing.T) {
	var refundBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/pg/orders/RP-1":
			_, _ = w.Write([]byte(`{"order_id":"RP-1","order_amount":299.00,"order_currency":"INR"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/pg/orders/RP-1/refunds":
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &refundBody))
			_, _ = w.Write([]byte(`{"cf_refund_id":"cf_rf_1","cf_payment_id":"2","refund_id":"rf_1","refund_amount":299.00,"refund_status":"PENDING"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	refund, err := client.Refund(context.Background(), gateways.RefundRequest{
		Payment:  gateways.PaymentRef{OrderID: "RP-1", PaymentID: "2"},
		Currency: enums.CurrencyINR,
		RefundID: "rf_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cf_rf_1", refund.RefundID)
	assert.Equal(t, gateways.RefundPending, refund.Status)
	assert.Equal(t, int64(29900), refund.AmountMinor)
	assert.Equal(t, float64(299), refundBody["refund_amount"])
	assert.Equal(t, "rf_1", refundBody["refund_id"])
}

func TestProviderErrorKeepsRaw(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"order with same id is already present","code":"order_already_exists","type":"invalid_request_error"}`))
	})
	_, err := client.CreateOrder(context.Background(), gateways.OrderRequest{
		Amount:   decimal.RequireFromString("10"),
		Currency: enums.CurrencyINR,
		Receipt:  "RP-1",
	})
	gwErr, ok := gateways.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "order_already_exists", gwErr.Code)
	assert.Equal(t, http.StatusConflict, gwErr.StatusCode)
	assert.NotEmpty(t, gwErr.Raw)
}

func TestWebhookSignsTimestampAndBody(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	body := []byte(`{"data":{"order":{"order_id":"RP-1","order_amount":29.99,"order_currency":"INR"},"payment":{"cf_payment_id":"2","payment_status":"SUCCESS","payment_amount":29.99}},"type":"PAYMENT_SUCCESS_WEBHOOK"}`)

	headers := http.Header{}
	headers.Set(TimestampHeader, "1760000000")
	headers.Set(SignatureHeader, gateways.HMACBase64("cf_secret", []byte("1760000000"), body))
	assert.True(t, client.VerifyWebhookSignature(body, headers))

	bodyOnly := http.Header{}
	bodyOnly.Set(TimestampHeader, "1760000000")
	bodyOnly.Set(SignatureHeader, gateways.HMACBase64("cf_secret", body))
	assert.False(t, client.VerifyWebhookSignature(body, bodyOnly), "body-only framing must not verify")

	missingTS := http.Header{}
	missingTS.Set(SignatureHeader, headers.Get(SignatureHeader))
	assert.False(t, client.VerifyWebhookSignature(body, missingTS))

	event, err := client.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, gateways.WebhookPaymentCaptured, event.Type)
	assert.Equal(t, "RP-1", event.OrderID)
	assert.Equal(t, "RP-1", event.Receipt)
	assert.Equal(t, int64(2999), event.AmountMinor)
	assert.Equal(t, "PAYMENT_SUCCESS_WEBHOOK:2", event.EventID)
}

func TestWebhookUserDroppedIsFailure(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	event, err := client.ParseWebhook([]byte(`{"data":{"order":{"order_id":"RP-2"},"payment":{"cf_payment_id":"3","payment_message":"user dropped"}},"type":"PAYMENT_USER_DROPPED_WEBHOOK"}`))
	require.NoError(t, err)
	assert.Equal(t, gateways.WebhookPaymentFailed, event.Type)
	assert.Equal(t, "user dropped", event.Reason)
}
