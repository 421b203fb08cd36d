package vendors

import (
	"strings"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorDTO never carries the password hash; the account number is masked.
type VendorDTO struct {
	ID               uuid.UUID           `json:"id"`
	Email            string              `json:"email"`
	BusinessName     string              `json:"businessName"`
	Phone            string              `json:"phone,omitempty"`
	Status           enums.VendorStatus  `json:"status"`
	RejectionReason  *string             `json:"rejectionReason,omitempty"`
	FeeReference     string              `json:"feeReference"`
	FeeBaseAmount    decimal.Decimal     `json:"feeBaseAmount"`
	FeeTaxAmount     decimal.Decimal     `json:"feeTaxAmount"`
	FeeFinalAmount   decimal.Decimal     `json:"feeFinalAmount"`
	Currency         enums.Currency      `json:"currency"`
	FeePaymentStatus enums.PaymentStatus `json:"feePaymentStatus"`
	FeePaidAt        *time.Time          `json:"feePaidAt,omitempty"`
	Bank             *BankDTO            `json:"bank,omitempty"`
	ApprovedAt       *time.Time          `json:"approvedAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
}

type BankDTO struct {
	AccountHolder string `json:"accountHolder"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bankName,omitempty"`
}

type LoginDTO struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Vendor      VendorDTO `json:"vendor"`
}

func ToDTO(v *models.Vendor) VendorDTO {
	out := VendorDTO{
		ID:               v.ID,
		Email:            v.Email,
		BusinessName:     v.BusinessName,
		Phone:            v.Phone,
		Status:           v.Status,
		RejectionReason:  v.RejectionReason,
		FeeReference:     v.FeeReference,
		FeeBaseAmount:    v.FeeBaseAmount,
		FeeTaxAmount:     v.FeeTaxAmount,
		FeeFinalAmount:   v.FeeFinalAmount,
		Currency:         v.Currency,
		FeePaymentStatus: v.FeePaymentStatus,
		FeePaidAt:        v.FeePaidAt,
		ApprovedAt:       v.ApprovedAt,
		CreatedAt:        v.CreatedAt,
	}
	if v.HasBankDetails() {
		out.Bank = &BankDTO{
			AccountHolder: v.BankAccountHolder,
			AccountNumber: MaskAccountNumber(v.BankAccountNumber),
			IFSC:          v.BankIFSC,
			BankName:      v.BankName,
		}
	}
	return out
}

func ToLoginDTO(r *LoginResult) LoginDTO {
	return LoginDTO{AccessToken: r.AccessToken, ExpiresAt: r.ExpiresAt, Vendor: ToDTO(r.Vendor)}
}

// MaskAccountNumber keeps the last four digits.
func MaskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("X", len(number)-4) + number[len(number)-4:]
}
