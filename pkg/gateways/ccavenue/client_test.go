package ccavenue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
)

const workingKey = "0123456789ABCDEF0123456789ABCDEF"

func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()
	client, err := New(config.CCAvenueConfig{
		MerchantID:     "m_1",
		AccessCode:     "AVCODE",
		WorkingKey:     workingKey,
		RedirectURL:    "https://api.example.com/cb",
		CancelURL:      "https://api.example.com/cancel",
		TransactionURL: "https://test.ccavenue.com/transaction",
		APIURL:         apiURL,
	}, nil)
	require.NoError(t, err)
	return client
}

func encryptedResponse(t *testing.T, fields url.Values) string {
	t.Helper()
	enc, err := Encrypt(workingKey, []byte(fields.Encode()))
	require.NoError(t, err)
	return enc
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, plain := range []string{"", "a", "order_id=RP-1&amount=299.00", "exactly16bytes!!"} {
		enc, err := Encrypt(workingKey, []byte(plain))
		require.NoError(t, err)
		got, err := Decrypt(workingKey, enc)
		require.NoError(t, err)
		assert.Equal(t, plain, string(got))
	}
}

func TestDecryptRejectsMalformedCiphertext(t *testing.T) {
	enc, err := Encrypt(workingKey, []byte("order_id=RP-1&order_status=Success"))
	require.NoError(t, err)

	_, err = Decrypt(workingKey, enc[:len(enc)-1])
	assert.Error(t, err, "odd hex length")

	_, err = Decrypt(workingKey, enc[:len(enc)-2])
	assert.Error(t, err, "partial block")

	_, err = Decrypt(workingKey, "zz"+enc[2:])
	assert.Error(t, err, "non-hex")

	other, err := New(config.CCAvenueConfig{MerchantID: "m_1", AccessCode: "AVCODE", WorkingKey: "another-working-key"}, nil)
	require.NoError(t, err)
	_, err = other.DecryptResponse(enc)
	assert.Error(t, err, "wrong key")
}

func TestCreateOrderEncryptsRequest(t *testing.T) {
	client := newTestClient(t, "")
	ref, err := client.CreateOrder(context.Background(), gateways.OrderRequest{
		Amount:   decimal.RequireFromString("29.99"),
		Currency: enums.CurrencyUSD,
		Receipt:  "RP-20261016-7KQ2M9",
		Notes:    map[string]string{"target_type": "booking", "target_id": "b1"},
		Customer: gateways.Customer{Name: "Asha", Email: "asha@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "RP-20261016-7KQ2M9", ref.OrderID)
	assert.Equal(t, int64(2999), ref.AmountMinor)
	assert.Equal(t, "AVCODE", ref.ClientPayload["accessCode"])

	plain, err := Decrypt(workingKey, ref.ClientPayload["encRequest"].(string))
	require.NoError(t, err)
	form, err := url.ParseQuery(string(plain))
	require.NoError(t, err)
	assert.Equal(t, "m_1", form.Get("merchant_id"))
	assert.Equal(t, "29.99", form.Get("amount"))
	assert.Equal(t, "USD", form.Get("currency"))
	assert.Equal(t, map[string]string{"target_type": "booking", "target_id": "b1"}, DecodeNotes(form.Get("merchant_param1")))
}

func TestVerifySignatureDecryptsCallback(t *testing.T) {
	client := newTestClient(t, "")
	encResp := encryptedResponse(t, url.Values{
		"order_id":     {"RP-1"},
		"tracking_id":  {"310001"},
		"order_status": {"Success"},
		"amount":       {"299.00"},
	})

	assert.True(t, client.VerifySignature("RP-1", "", encResp))
	assert.False(t, client.VerifySignature("RP-2", "", encResp), "order id mismatch")

	corrupted := encResp[:len(encResp)-4] + flipHex(encResp[len(encResp)-4:])
	assert.False(t, client.VerifySignature("RP-1", "", corrupted), "corrupted ciphertext")
	assert.False(t, client.VerifySignature("RP-1", "", "not-hex"))
}

func flipHex(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c == '0' {
			out[i] = 'f'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}

func TestWebhook(t *testing.T) {
	client := newTestClient(t, "")
	body := []byte(url.Values{"encResp": {encryptedResponse(t, url.Values{
		"order_id":     {"RP-1"},
		"tracking_id":  {"310001"},
		"order_status": {"Success"},
		"amount":       {"0.01"},
		"currency":     {"INR"},
	})}}.Encode())

	assert.True(t, client.VerifyWebhookSignature(body, nil))
	assert.False(t, client.VerifyWebhookSignature([]byte("encResp=deadbeef"), nil))

	event, err := client.ParseWebhook(body)
	require.NoError(t, err)
	assert.Equal(t, gateways.WebhookPaymentCaptured, event.Type)
	assert.Equal(t, "RP-1", event.OrderID)
	assert.Equal(t, "310001", event.PaymentID)
	assert.Equal(t, int64(1), event.AmountMinor)
	assert.Equal(t, "ccavenue:310001:success", event.EventID)

	aborted := []byte(url.Values{"encResp": {encryptedResponse(t, url.Values{
		"order_id":       {"RP-1"},
		"tracking_id":    {"310002"},
		"order_status":   {"Aborted"},
		"status_message": {"user cancelled"},
	})}}.Encode())
	event, err = client.ParseWebhook(aborted)
	require.NoError(t, err)
	assert.Equal(t, gateways.WebhookPaymentFailed, event.Type)
	assert.Equal(t, "user cancelled", event.Reason)
}

func fakeAPI(t *testing.T, respond func(command string, request gjson.Result) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "AVCODE", r.PostForm.Get("access_code"))
		plain, err := Decrypt(workingKey, r.PostForm.Get("enc_request"))
		require.NoError(t, err)
		body := respond(r.PostForm.Get("command"), gjson.ParseBytes(plain))
		enc, err := Encrypt(workingKey, []byte(body))
		require.NoError(t, err)
		_, _ = w.Write([]byte(url.Values{"status": {"0"}, "enc_response": {enc}}.Encode()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPaymentAndFullRefund(t *testing.T) {
	var refundAmount string
	srv := fakeAPI(t, func(command string, request gjson.Result) string {
		switch command {
		case commandStatus:
			return `{"order_no":"RP-1","reference_no":"310001","order_status":"Shipped","order_amt":299.0,"order_currncy":"INR","order_option_type":"OPTCRDC"}`
		case commandRefund:
			refundAmount = request.Get("refund_amount").String()
			return `{"Refund_Order_Result":{"refund_status":0,"reason":""}}`
		}
		return `{}`
	})
	client := newTestClient(t, srv.URL)

	payment, err := client.FetchPayment(context.Background(), gateways.PaymentRef{OrderID: "RP-1", PaymentID: "310001"})
	require.NoError(t, err)
	assert.Equal(t, gateways.PaymentCaptured, payment.Status)
	assert.Equal(t, int64(29900), payment.AmountMinor)

	refund, err := client.Refund(context.Background(), gateways.RefundRequest{
		Payment:  gateways.PaymentRef{OrderID: "RP-1", PaymentID: "310001"},
		Currency: enums.CurrencyINR,
		RefundID: "rf_1",
	})
	require.NoError(t, err)
	assert.Equal(t, gateways.RefundProcessed, refund.Status)
	assert.Equal(t, "299.00", refundAmount)
}

func TestRefundRejected(t *testing.T) {
	srv := fakeAPI(t, func(string, gjson.Result) string {
		return `{"Refund_Order_Result":{"refund_status":1,"reason":"Refund amount exceeds"}}`
	})
	client := newTestClient(t, srv.URL)
	amount := decimal.RequireFromString("500")
	_, err := client.Refund(context.Background(), gateways.RefundRequest{
		Payment:  gateways.PaymentRef{PaymentID: "310001"},
		Amount:   &amount,
		Currency: enums.CurrencyINR,
		RefundID: "rf_2",
	})
	gwErr, ok := gateways.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "refund_rejected", gwErr.Code)
	assert.Equal(t, "Refund amount exceeds", gwErr.Message)
}

func TestAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("status=1&enc_response=Access_code: Invalid Parameter"))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)
	_, err := client.FetchPayment(context.Background(), gateways.PaymentRef{OrderID: "RP-1"})
	gwErr, ok := gateways.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "api_error", gwErr.Code)
}
