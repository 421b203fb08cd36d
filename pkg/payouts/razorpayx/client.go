// Package razorpayx implements vendor payouts over RazorpayX contacts, fund
// accounts and payouts.
package razorpayx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
	"github.com/angelmondragon/reelpass-backend/pkg/payouts"
)

const idempotencyHeader = "X-Payout-Idempotency"

var (
	errKeyIDRequired         = errors.New("razorpayx key id is required")
	errKeySecretRequired     = errors.New("razorpayx key secret is required")
	errAccountNumberRequired = errors.New("razorpayx account number is required")
)

type Client struct {
	accountNumber string
	http          *gateways.Transport
}

func New(cfg config.RazorpayXConfig, httpClient *http.Client) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	account := strings.TrimSpace(cfg.AccountNumber)
	if account == "" {
		return nil, errAccountNumberRequired
	}
	return &Client{
		accountNumber: account,
		http: gateways.NewTransport(gateways.TransportParams{
			Provider: string(enums.PayoutProviderRazorpayX),
			Client:   httpClient,
			BaseURL:  cfg.BaseURL,
			Decorate: func(req *http.Request) {
				req.SetBasicAuth(keyID, keySecret)
			},
			ErrorPaths: gateways.ErrorPaths{Code: "error.code", Message: "error.description"},
		}),
	}, nil
}

func (c *Client) Name() enums.PayoutProvider {
	return enums.PayoutProviderRazorpayX
}

type contactBody struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Type        string `json:"type"`
	ReferenceID string `json:"reference_id"`
}

type fundAccountBody struct {
	ContactID   string      `json:"contact_id"`
	AccountType string      `json:"account_type"`
	BankAccount bankAccount `json:"bank_account"`
}

type bankAccount struct {
	Name          string `json:"name"`
	IFSC          string `json:"ifsc"`
	AccountNumber string `json:"account_number"`
}

// EnsurePayee creates (or resolves) the contact keyed by reference_id and
// its bank fund account. RazorpayX answers 200 with the existing entity for
// a duplicate and 201 for a new one; the fund account status decides the
// outcome since it is the payee id.
func (c *Client) EnsurePayee(ctx context.Context, req payouts.PayeeRequest) payouts.PayeeResult {
	if req.PayeeRef == "" {
		return payouts.Failed(gateways.NewError(string(enums.PayoutProviderRazorpayX), gateways.CodeInvalidRequest, "payee ref is required"))
	}
	name := req.Contact.Name
	if name == "" {
		name = req.Bank.AccountHolder
	}
	raw, err := c.http.JSON(ctx, http.MethodPost, "/v1/contacts", contactBody{
		Name:        name,
		Email:       req.Contact.Email,
		Contact:     req.Contact.Phone,
		Type:        "vendor",
		ReferenceID: req.PayeeRef,
	}, nil)
	if err != nil {
		return payouts.Failed(err)
	}
	contactID := gjson.GetBytes(raw, "id").String()
	if contactID == "" {
		return payouts.Failed(c.http.BadResponse(raw, "contact id missing"))
	}

	raw, status, err := c.http.JSONStatus(ctx, http.MethodPost, "/v1/fund_accounts", fundAccountBody{
		ContactID:   contactID,
		AccountType: "bank_account",
		BankAccount: bankAccount{
			Name:          req.Bank.AccountHolder,
			IFSC:          req.Bank.IFSC,
			AccountNumber: req.Bank.AccountNumber,
		},
	}, nil)
	if err != nil {
		return payouts.Failed(err)
	}
	fundAccountID := gjson.GetBytes(raw, "id").String()
	if fundAccountID == "" {
		return payouts.Failed(c.http.BadResponse(raw, "fund account id missing"))
	}
	if status == http.StatusCreated {
		return payouts.Created(fundAccountID)
	}
	return payouts.AlreadyExists(fundAccountID)
}

type payoutBody struct {
	AccountNumber     string `json:"account_number"`
	FundAccountID     string `json:"fund_account_id"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Mode              string `json:"mode"`
	Purpose           string `json:"purpose"`
	QueueIfLowBalance bool   `json:"queue_if_low_balance"`
	ReferenceID       string `json:"reference_id"`
	Narration         string `json:"narration,omitempty"`
}

// Transfer sends the payout with the transfer id as idempotency key, so a
// retried withdrawal returns the original payout.
func (c *Client) Transfer(ctx context.Context, req payouts.TransferRequest) (*payouts.Transfer, error) {
	minor, err := money.ToMinor(req.Amount, req.Currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.PayoutProviderRazorpayX), gateways.CodeInvalidRequest, err.Error())
	}
	mode := strings.ToUpper(req.Mode)
	if mode == "" {
		mode = "IMPS"
	}
	header := http.Header{}
	header.Set(idempotencyHeader, req.TransferID)

	raw, err := c.http.JSON(ctx, http.MethodPost, "/v1/payouts", payoutBody{
		AccountNumber:     c.accountNumber,
		FundAccountID:     req.PayeeID,
		Amount:            minor,
		Currency:          req.Currency.String(),
		Mode:              mode,
		Purpose:           "payout",
		QueueIfLowBalance: true,
		ReferenceID:       req.TransferID,
		Narration:         narration(req.Remarks),
	}, header)
	if err != nil {
		return nil, err
	}
	return parsePayout(gjson.ParseBytes(raw), req.TransferID), nil
}

func (c *Client) TransferStatus(ctx context.Context, transferID string) (*payouts.Transfer, error) {
	query := url.Values{}
	query.Set("account_number", c.accountNumber)
	query.Set("reference_id", transferID)
	raw, err := c.http.JSON(ctx, http.MethodGet, "/v1/payouts?"+query.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	items := gjson.GetBytes(raw, "items")
	if !items.IsArray() || len(items.Array()) == 0 {
		return nil, &gateways.GatewayError{
			Gateway:    string(enums.PayoutProviderRazorpayX),
			Code:       "payout_not_found",
			Message:    "no payout for reference",
			StatusCode: http.StatusNotFound,
			Raw:        json.RawMessage(raw),
		}
	}
	return parsePayout(items.Array()[0], transferID), nil
}

func parsePayout(payout gjson.Result, transferID string) *payouts.Transfer {
	status := payout.Get("status").String()
	transfer := &payouts.Transfer{
		TransferID:  transferID,
		ProviderRef: payout.Get("id").String(),
		Status:      normalize(status),
		RawStatus:   status,
		Raw:         json.RawMessage(payout.Raw),
	}
	if transfer.Status == enums.PayoutStatusFailed {
		transfer.FailureReason = payout.Get("status_details.description").String()
		if transfer.FailureReason == "" {
			transfer.FailureReason = payout.Get("failure_reason").String()
		}
	}
	return transfer
}

func normalize(status string) enums.PayoutStatus {
	switch strings.ToLower(status) {
	case "processed":
		return enums.PayoutStatusSuccess
	case "reversed", "failed", "rejected", "cancelled":
		return enums.PayoutStatusFailed
	default:
		return enums.PayoutStatusPending
	}
}

// narration is limited to 30 alphanumeric characters and spaces.
func narration(remarks string) string {
	var b strings.Builder
	for _, r := range remarks {
		if b.Len() >= 30 {
			break
		}
		if r == ' ' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
