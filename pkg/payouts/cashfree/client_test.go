package cashfree

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/payouts"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(config.CashfreePayoutsConfig{ClientID: "id", ClientSecret: "secret", BaseURL: srv.URL}, srv.Client())
	require.NoError(t, err)
	return client
}

var payee = payouts.PayeeRequest{
	PayeeRef: "vnd_abc",
	Bank:     payouts.BankDetails{AccountHolder: "Reel Cinemas", AccountNumber: "0011223344", IFSC: "HDFC0000001"},
	Contact:  payouts.Contact{Email: "ops@reel.example", Phone: "9999999999"},
}

func TestEnsurePayeeCreatesWhenMissing(t *testing.T) {
	var created atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "vnd_abc", r.URL.Query().Get("beneficiary_id"))
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":"beneficiary_not_found","message":"Beneficiary does not exist"}`))
		case http.MethodPost:
			created.Add(1)
			var body map[string]any
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, "vnd_abc", body["beneficiary_id"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"beneficiary_id":"vnd_abc","beneficiary_status":"VERIFIED"}`))
		}
	})

	result := client.EnsurePayee(context.Background(), payee)
	assert.Equal(t, payouts.PayeeCreated, result.Outcome)
	assert.Equal(t, "vnd_abc", result.PayeeID)
	assert.True(t, result.Ready())
	assert.Equal(t, int32(1), created.Load())
}

func TestEnsurePayeeExisting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "existing payee must not be re-created")
		_, _ = w.Write([]byte(`{"beneficiary_id":"vnd_abc"}`))
	})
	result := client.EnsurePayee(context.Background(), payee)
	assert.Equal(t, payouts.PayeeAlreadyExists, result.Outcome)
	assert.NoError(t, result.Err)
}

func TestEnsurePayeeConflictOnCreateIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"beneficiary_id_already_exists","message":"Beneficiary Id already exists"}`))
	})
	result := client.EnsurePayee(context.Background(), payee)
	assert.Equal(t, payouts.PayeeAlreadyExists, result.Outcome)
}

func TestEnsurePayeeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"bank_ifsc_invalid","message":"IFSC is invalid"}`))
	})
	result := client.EnsurePayee(context.Background(), payee)
	assert.Equal(t, payouts.PayeeFailed, result.Outcome)
	assert.False(t, result.Ready())
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "bank_ifsc_invalid")
}

func TestTransferAndStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]any
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, "wd_1", body["transfer_id"])
			assert.Equal(t, 1500.5, body["transfer_amount"])
			_, _ = w.Write([]byte(`{"transfer_id":"wd_1","cf_transfer_id":"cf_77","status":"RECEIVED"}`))
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"transfer_id":"wd_1","cf_transfer_id":"cf_77","status":"REVERSED","status_description":"Account closed"}`))
		}
	})

	transfer, err := client.Transfer(context.Background(), payouts.TransferRequest{
		TransferID: "wd_1",
		PayeeID:    "vnd_abc",
		Amount:     decimal.RequireFromString("1500.50"),
		Currency:   enums.CurrencyINR,
		Mode:       "IMPS",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusPending, transfer.Status)
	assert.Equal(t, "cf_77", transfer.ProviderRef)

	status, err := client.TransferStatus(context.Background(), "wd_1")
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusFailed, status.Status)
	assert.Equal(t, "Account closed", status.FailureReason)
}

func TestDuplicateTransferReturnsExisting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"code":"transfer_id_already_exists","message":"Transfer Id already exists"}`))
			return
		}
		_, _ = w.Write([]byte(`{"transfer_id":"wd_1","cf_transfer_id":"cf_77","status":"SUCCESS"}`))
	})
	transfer, err := client.Transfer(context.Background(), payouts.TransferRequest{
		TransferID: "wd_1",
		PayeeID:    "vnd_abc",
		Amount:     decimal.NewFromInt(100),
		Currency:   enums.CurrencyINR,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PayoutStatusSuccess, transfer.Status)
}

func TestNormalize(t *testing.T) {
	cases := map[string]enums.PayoutStatus{
		"SUCCESS":  enums.PayoutStatusSuccess,
		"FAILED":   enums.PayoutStatusFailed,
		"REVERSED": enums.PayoutStatusFailed,
		"REJECTED": enums.PayoutStatusFailed,
		"PENDING":  enums.PayoutStatusPending,
		"RECEIVED": enums.PayoutStatusPending,
		"":         enums.PayoutStatusPending,
	}
	for raw, want := range cases {
		assert.Equal(t, want, normalize(raw), raw)
	}
}
