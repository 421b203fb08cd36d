package gateways

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
)

type namedGateway struct {
	Gateway
	name enums.Gateway
}

func (g namedGateway) Name() enums.Gateway { return g.name }

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry(enums.GatewayRazorpay,
		namedGateway{name: enums.GatewayRazorpay},
		namedGateway{name: enums.GatewayCashfree},
		nil,
	)

	gw, err := reg.Get("")
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayRazorpay, gw.Name())

	gw, err = reg.Get(" Cashfree ")
	require.NoError(t, err)
	assert.Equal(t, enums.GatewayCashfree, gw.Name())

	_, err = reg.Get("ccavenue")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Equal(t, []enums.Gateway{enums.GatewayCashfree, enums.GatewayRazorpay}, reg.Names())
}

func TestMinorUnitRoundTrip(t *testing.T) {
	for _, amount := range []string{"299.00", "29.99", "0.01", "1000000.10"} {
		major := decimal.RequireFromString(amount)
		minor, err := money.ToMinor(major, enums.CurrencyINR)
		require.NoError(t, err)
		back, err := money.FromMinor(minor, enums.CurrencyINR)
		require.NoError(t, err)
		assert.True(t, back.Equal(major), "%s -> %d -> %s", amount, minor, back)
	}
}

func TestSignatureEqual(t *testing.T) {
	sig := HMACHex("secret", []byte("a"), []byte("b"))
	assert.Equal(t, HMACHex("secret", []byte("ab")), sig)
	assert.True(t, SignatureEqual(sig, sig))
	assert.False(t, SignatureEqual(sig, ""))
	assert.False(t, SignatureEqual("", ""))
	assert.NotEqual(t, HMACBase64("secret", []byte("ab")), HMACBase64("other", []byte("ab")))
}

func TestTransportMapsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "yes", r.Header.Get("X-Decorated"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"id":"1"}`))
		case "/json-error":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"err":{"code":"E1","msg":"bad amount"}}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()

	tr := NewTransport(TransportParams{
		Provider: "test",
		Client:   srv.Client(),
		BaseURL:  srv.URL + "/",
		Decorate: func(r *http.Request) { r.Header.Set("X-Decorated", "yes") },
		ErrorPaths: ErrorPaths{
			Code:    "err.code",
			Message: "err.msg",
		},
	})

	raw, err := tr.JSON(context.Background(), http.MethodGet, "/ok", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(raw))

	_, err = tr.JSON(context.Background(), http.MethodPost, "/json-error", map[string]int{"amount": 1}, nil)
	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "E1", gwErr.Code)
	assert.Equal(t, "bad amount", gwErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)

	_, err = tr.JSON(context.Background(), http.MethodGet, "/plain", nil, nil)
	gwErr, ok = AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, CodeProviderUnknown, gwErr.Code)
	assert.Empty(t, gwErr.Raw)

	srv.Close()
	_, err = tr.JSON(context.Background(), http.MethodGet, "/ok", nil, nil)
	gwErr, ok = AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNetwork, gwErr.Code)
}
