package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seatRequest struct {
	Seats    []string        `json:"seats" validate:"required,min=1,dive,seat"`
	Amount   decimal.Decimal `json:"amount" validate:"money"`
	Currency string          `json:"currency" validate:"omitempty,currency"`
	Customer struct {
		Email string `json:"email" validate:"required,email"`
	} `json:"customer"`
}

type bankRequest struct {
	IFSC string `json:"ifsc" validate:"required,ifsc"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	var req seatRequest
	err := DecodeJSONBody(post(`{"seats":["A1","b12"],"amount":"299.50","currency":"inr","customer":{"email":"asha@example.com"}}`), &req)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("299.5").Equal(req.Amount))
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	var req seatRequest
	err := DecodeJSONBody(post(`{"seats":["A1","row-9"],"amount":"10.005","currency":"XYZ","customer":{"email":"nope"}}`), &req)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "seats[1]")
	assert.Contains(t, details, "amount")
	assert.Contains(t, details, "currency")
	assert.Contains(t, details, "customer.email")
}

func TestDecodeJSONBodyRejectsNonPositiveMoney(t *testing.T) {
	for _, amount := range []string{`"0"`, `"-5"`, `0`} {
		var req seatRequest
		err := DecodeJSONBody(post(`{"seats":["A1"],"amount":`+amount+`,"customer":{"email":"a@b.example"}}`), &req)
		assert.Error(t, err, amount)
	}
}

func TestDecodeJSONBodyRejectsTrailingAndUnknown(t *testing.T) {
	var bank bankRequest
	assert.Error(t, DecodeJSONBody(post(`{"ifsc":"HDFC0001234"}{"ifsc":"HDFC0001234"}`), &bank))
	assert.Error(t, DecodeJSONBody(post(`{"ifsc":"HDFC0001234","extra":1}`), &bank))
	assert.Error(t, DecodeJSONBody(post(`{"ifsc":"HDFC1001234"}`), &bank))
	assert.NoError(t, DecodeJSONBody(post(`{"ifsc":"hdfc0001234"}`), &bank))
}

func TestDecodeJSONBodyCapsSize(t *testing.T) {
	big := `{"ifsc":"` + strings.Repeat("A", MaxBodyBytes) + `"}`
	var bank bankRequest
	err := DecodeJSONBody(post(big), &bank)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestSanitizeStringIsRuneSafe(t *testing.T) {
	assert.Equal(t, "दिलवाले", SanitizeString("  दिलवाले दुल्हनिया  ", 7))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 10))
	assert.Equal(t, "keep", SanitizeString(" keep ", 0))
}
