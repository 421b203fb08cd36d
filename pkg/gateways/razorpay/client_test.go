package razorpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "key_secret",
		WebhookSecret: "hook_secret",
		BaseURL:       srv.URL,
	}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(config.RazorpayConfig{KeySecret: "s"}, nil); err == nil {
		t.Fatal("expected error without key id")
	}
	if _, err := New(config.RazorpayConfig{KeyID: "k"}, nil); err == nil {
		t.Fatal("expected error without key secret")
	}
}

func TestCreateOrderSendsMinorUnits(t *testing.T) {
	cases := map[string]int64{"299.00": 29900, "29.99": 2999, "0.01": 1}
	for amount, want := range cases {
		var got map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/orders" || r.Method != http.MethodPost {
				t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "rzp_test_key" || pass != "key_secret" {
				t.Fatalf("missing basic auth")
			}
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"order_1","amount":` + jsonNumber(got["amount"]) + `,"currency":"INR","receipt":"RP-1","status":"created"}`))
		})

		ref, err := client.CreateOrder(context.Background(), gateways.OrderRequest{
			Amount:   decimal.RequireFromString(amount),
			Currency: enums.CurrencyINR,
			Receipt:  "RP-1",
			Notes:    map[string]string{"target_type": "booking"},
		})
		if err != nil {
			t.Fatalf("create order %s: %v", amount, err)
		}
		if int64(got["amount"].(float64)) != want {
			t.Fatalf("amount %s sent as %v, want %d", amount, got["amount"], want)
		}
		if ref.OrderID != "order_1" || ref.Receipt != "RP-1" || ref.AmountMinor != want {
			t.Fatalf("unexpected order ref %+v", ref)
		}
		notes := got["notes"].(map[string]any)
		if notes["target_type"] != "booking" {
			t.Fatalf("notes not forwarded: %v", notes)
		}
	}
}

func jsonNumber(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestCreateOrderMapsProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too low"}}`))
	})
	_, err := client.CreateOrder(context.Background(), gateways.OrderRequest{
		Amount:   decimal.RequireFromString("0.10"),
		Currency: enums.CurrencyINR,
		Receipt:  "RP-2",
	})
	gwErr, ok := gateways.AsGatewayError(err)
	if !ok {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if gwErr.Code != "BAD_REQUEST_ERROR" || gwErr.Message != "amount too low" || gwErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected error %+v", gwErr)
	}
	if len(gwErr.Raw) == 0 {
		t.Fatal("expected raw payload kept")
	}
}

func TestVerifySignature(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	sig := gateways.HMACHex("key_secret", []byte("order_1|pay_1"))

	if !client.VerifySignature("order_1", "pay_1", sig) {
		t.Fatal("expected valid signature")
	}
	if client.VerifySignature("order_1", "pay_2", sig) {
		t.Fatal("signature for another payment accepted")
	}
	if client.VerifySignature("order_1", "pay_1", sig[:len(sig)-1]+"0") {
		t.Fatal("tampered signature accepted")
	}
	if client.VerifySignature("order_1", "pay_1", "") {
		t.Fatal("empty signature accepted")
	}
}

func TestFetchPaymentAndRefund(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payments/pay_1":
			_, _ = w.Write([]byte(`{"id":"pay_1","order_id":"order_1","status":"captured","amount":29900,"currency":"INR","method":"upi"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/payments/pay_1/refund":
			body, _ := io.ReadAll(r.Body)
			var req map[string]any
			_ = json.Unmarshal(body, &req)
			if _, ok := req["amount"]; ok {
				t.Fatalf("full refund must omit amount, got %v", req)
			}
			_, _ = w.Write([]byte(`{"id":"rfnd_1","payment_id":"pay_1","amount":29900,"status":"processed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	payment, err := client.FetchPayment(context.Background(), gateways.PaymentRef{PaymentID: "pay_1"})
	if err != nil {
		t.Fatalf("fetch payment: %v", err)
	}
	if payment.Status != gateways.PaymentCaptured || payment.AmountMinor != 29900 || payment.OrderID != "order_1" {
		t.Fatalf("unexpected payment %+v", payment)
	}

	refund, err := client.Refund(context.Background(), gateways.RefundRequest{
		Payment:  gateways.PaymentRef{PaymentID: "pay_1"},
		Currency: enums.CurrencyINR,
		RefundID: "rf_1",
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.RefundID != "rfnd_1" || refund.Status != gateways.RefundProcessed {
		t.Fatalf("unexpected refund %+v", refund)
	}
}

func TestWebhook(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","amount":2999,"currency":"INR"}}}}`)

	headers := http.Header{}
	headers.Set(SignatureHeader, gateways.HMACHex("hook_secret", body))
	if !client.VerifyWebhookSignature(body, headers) {
		t.Fatal("expected webhook signature to verify")
	}

	reserialized := []byte(`{"event": "payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","amount":2999,"currency":"INR"}}}}`)
	if client.VerifyWebhookSignature(reserialized, headers) {
		t.Fatal("signature must cover the exact raw bytes")
	}

	event, err := client.ParseWebhook(body)
	if err != nil {
		t.Fatalf("parse webhook: %v", err)
	}
	if event.Type != gateways.WebhookPaymentCaptured || event.OrderID != "order_9" || event.PaymentID != "pay_9" || event.AmountMinor != 2999 {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.EventID != "payment.captured:pay_9" {
		t.Fatalf("unexpected event id %q", event.EventID)
	}
}

func TestWebhookFailedAndUnknown(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})

	failed, err := client.ParseWebhook([]byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_3","order_id":"order_3","error_description":"card declined"}}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if failed.Type != gateways.WebhookPaymentFailed || failed.Reason != "card declined" {
		t.Fatalf("unexpected event %+v", failed)
	}

	other, err := client.ParseWebhook([]byte(`{"event":"invoice.paid","payload":{}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if other.Type != gateways.WebhookIgnored {
		t.Fatalf("expected ignored, got %s", other.Type)
	}

	if _, err := client.ParseWebhook([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid body")
	}
}
