// Package cashfree implements vendor payouts over Cashfree Payouts v2.
package cashfree

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

const defaultAPIVersion = "2024-01-01"

var (
	errClientIDRequired     = errors.New("cashfree payouts client id is required")
	errClientSecretRequired = errors.New("cashfree payouts client secret is required")
)

type Client struct {
	http *gateways.Transport
}

func New(cfg config.CashfreePayoutsConfig, httpClient *http.Client) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientSecret == "" {
		return nil, errClientSecretRequired
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAPIVersion
	}
	return &Client{
		http: gateways.NewTransport(gateways.TransportParams{
			Provider: string(enums.PayoutProviderCashfree),
			Client:   httpClient,
			BaseURL:  cfg.BaseURL,
			Decorate: func(req *http.Request) {
				req.Header.Set("x-client-id", clientID)
				req.Header.Set("x-client-secret", clientSecret)
				req.Header.Set("x-api-version", version)
			},
			ErrorPaths: gateways.ErrorPaths{Code: "code", Message: "message"},
		}),
	}, nil
}

func (c *Client) Name() enums.PayoutProvider {
	return enums.PayoutProviderCashfree
}

type beneficiaryBody struct {
	BeneficiaryID      string             `json:"beneficiary_id"`
	BeneficiaryName    string             `json:"beneficiary_name"`
	InstrumentDetails  instrumentDetails  `json:"beneficiary_instrument_details"`
	BeneficiaryContact beneficiaryContact `json:"beneficiary_contact_details"`
}

type instrumentDetails struct {
	BankAccountNumber string `json:"bank_account_number"`
	BankIFSC          string `json:"bank_ifsc"`
}

type beneficiaryContact struct {
	Email string `json:"beneficiary_email,omitempty"`
	Phone string `json:"beneficiary_phone,omitempty"`
}

// EnsurePayee looks the beneficiary up by its deterministic id and creates
// it when absent. A 409 on create means a concurrent caller won.
func (c *Client) EnsurePayee(ctx context.Context, req payouts.PayeeRequest) payouts.PayeeResult {
	if req.PayeeRef == "" {
		return payouts.Failed(gateways.NewError(string(enums.PayoutProviderCashfree), gateways.CodeInvalidRequest, "payee ref is required"))
	}
	_, err := c.http.JSON(ctx, http.MethodGet, "/beneficiary?beneficiary_id="+url.QueryEscape(req.PayeeRef), nil, nil)
	if err == nil {
		return payouts.AlreadyExists(req.PayeeRef)
	}
	if gwErr, ok := gateways.AsGatewayError(err); !ok || gwErr.StatusCode != http.StatusNotFound {
		return payouts.Failed(err)
	}

	_, err = c.http.JSON(ctx, http.MethodPost, "/beneficiary", beneficiaryBody{
		BeneficiaryID:   req.PayeeRef,
		BeneficiaryName: req.Bank.AccountHolder,
		InstrumentDetails: instrumentDetails{
			BankAccountNumber: req.Bank.AccountNumber,
			BankIFSC:          req.Bank.IFSC,
		},
		BeneficiaryContact: beneficiaryContact{
			Email: req.Contact.Email,
			Phone: req.Contact.Phone,
		},
	}, nil)
	if err == nil {
		return payouts.Created(req.PayeeRef)
	}
	if gwErr, ok := gateways.AsGatewayError(err); ok && gwErr.StatusCode == http.StatusConflict {
		return payouts.AlreadyExists(req.PayeeRef)
	}
	return payouts.Failed(err)
}

type transferBody struct {
	TransferID       string             `json:"transfer_id"`
	TransferAmount   json.Number        `json:"transfer_amount"`
	TransferCurrency string             `json:"transfer_currency"`
	TransferMode     string             `json:"transfer_mode,omitempty"`
	Beneficiary      beneficiaryDetails `json:"beneficiary_details"`
	TransferRemarks  string             `json:"transfer_remarks,omitempty"`
}

type beneficiaryDetails struct {
	BeneficiaryID string `json:"beneficiary_id"`
}

// Transfer is idempotent on TransferID: a duplicate id returns the existing
// transfer's status.
func (c *Client) Transfer(ctx context.Context, req payouts.TransferRequest) (*payouts.Transfer, error) {
	minor, err := money.ToMinor(req.Amount, req.Currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.PayoutProviderCashfree), gateways.CodeInvalidRequest, err.Error())
	}
	major, err := money.FromMinor(minor, req.Currency)
	if err != nil {
		return nil, gateways.NewError(string(enums.PayoutProviderCashfree), gateways.CodeInvalidRequest, err.Error())
	}

	raw, err := c.http.JSON(ctx, http.MethodPost, "/transfers", transferBody{
		TransferID:       req.TransferID,
		TransferAmount:   json.Number(major.StringFixed(2)),
		TransferCurrency: req.Currency.String(),
		TransferMode:     strings.ToLower(req.Mode),
		Beneficiary:      beneficiaryDetails{BeneficiaryID: req.PayeeID},
		TransferRemarks:  req.Remarks,
	}, nil)
	if err != nil {
		if gwErr, ok := gateways.AsGatewayError(err); ok && gwErr.StatusCode == http.StatusConflict {
			return c.TransferStatus(ctx, req.TransferID)
		}
		return nil, err
	}
	return parseTransfer(raw, req.TransferID), nil
}

func (c *Client) TransferStatus(ctx context.Context, transferID string) (*payouts.Transfer, error) {
	raw, err := c.http.JSON(ctx, http.MethodGet, "/transfers?transfer_id="+url.QueryEscape(transferID), nil, nil)
	if err != nil {
		return nil, err
	}
	return parseTransfer(raw, transferID), nil
}

func parseTransfer(raw []byte, transferID string) *payouts.Transfer {
	body := gjson.ParseBytes(raw)
	status := body.Get("status").String()
	transfer := &payouts.Transfer{
		TransferID:  transferID,
		ProviderRef: body.Get("cf_transfer_id").String(),
		Status:      normalize(status),
		RawStatus:   status,
		Raw:         json.RawMessage(raw),
	}
	if transfer.Status == enums.PayoutStatusFailed {
		transfer.FailureReason = body.Get("status_description").String()
	}
	return transfer
}

func normalize(status string) enums.PayoutStatus {
	switch strings.ToUpper(status) {
	case "SUCCESS":
		return enums.PayoutStatusSuccess
	case "FAILED", "REVERSED", "REJECTED":
		return enums.PayoutStatusFailed
	default:
		return enums.PayoutStatusPending
	}
}
