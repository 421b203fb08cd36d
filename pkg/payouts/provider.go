// Package payouts defines the bank-transfer provider contract used to pay
// vendors out, plus its Cashfree Payouts and RazorpayX variants.
package payouts

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// Provider moves money to a vendor's bank account in two steps: make sure a
// payee exists, then transfer to it.
type Provider interface {
	Name() enums.PayoutProvider
	EnsurePayee(ctx context.Context, req PayeeRequest) PayeeResult
	Transfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	TransferStatus(ctx context.Context, transferID string) (*Transfer, error)
}

type BankDetails struct {
	AccountHolder string
	AccountNumber string
	IFSC          string
	BankName      string
}

type Contact struct {
	Name  string
	Email string
	Phone string
}

type PayeeRequest struct {
	// PayeeRef is deterministic per vendor so repeated calls resolve to the
	// same provider record.
	PayeeRef string
	Bank     BankDetails
	Contact  Contact
}

type PayeeOutcome int

const (
	PayeeFailed PayeeOutcome = iota
	PayeeCreated
	PayeeAlreadyExists
)

func (o PayeeOutcome) String() string {
	switch o {
	case PayeeCreated:
		return "created"
	case PayeeAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}

// PayeeResult is the tagged outcome of EnsurePayee. Err is set only for
// PayeeFailed.
type PayeeResult struct {
	Outcome PayeeOutcome
	PayeeID string
	Err     error
}

func Created(payeeID string) PayeeResult {
	return PayeeResult{Outcome: PayeeCreated, PayeeID: payeeID}
}

func AlreadyExists(payeeID string) PayeeResult {
	return PayeeResult{Outcome: PayeeAlreadyExists, PayeeID: payeeID}
}

func Failed(err error) PayeeResult {
	return PayeeResult{Outcome: PayeeFailed, Err: err}
}

// Ready reports whether a payee id is usable for a transfer.
func (r PayeeResult) Ready() bool {
	return r.Outcome != PayeeFailed && r.PayeeID != ""
}

// TransferRequest carries the amount in major units; providers convert to
// their own convention at the call.
type TransferRequest struct {
	TransferID string
	PayeeID    string
	Amount     decimal.Decimal
	Currency   enums.Currency
	Mode       string
	Remarks    string
}

type Transfer struct {
	TransferID    string
	ProviderRef   string
	Status        enums.PayoutStatus
	RawStatus     string
	FailureReason string
	Raw           json.RawMessage
}

func compact(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// PayeeRef derives the provider beneficiary reference for a vendor.
func PayeeRef(vendorID uuid.UUID) string {
	return "vnd_" + compact(vendorID)
}

// TransferID derives the idempotent transfer reference for a withdrawal.
func TransferID(withdrawalID uuid.UUID) string {
	return "wd_" + compact(withdrawalID)
}
