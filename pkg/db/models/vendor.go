package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// Vendor is a content or venue partner that earns from sales and withdraws
// through the payout providers. The application fee is itself a payable.
type Vendor struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Email             string              `gorm:"column:email;not null;uniqueIndex:idx_vendors_email"`
	PasswordHash      string              `gorm:"column:password_hash;not null"`
	BusinessName      string              `gorm:"column:business_name;not null"`
	Phone             string              `gorm:"column:phone"`
	Status            enums.VendorStatus  `gorm:"column:status;type:text;not null"`
	RejectionReason   *string             `gorm:"column:rejection_reason"`
	FeeReference      string              `gorm:"column:fee_reference;not null;uniqueIndex:idx_vendors_fee_reference"`
	FeeBaseAmount     decimal.Decimal     `gorm:"column:fee_base_amount;type:numeric(12,2);not null"`
	FeeTaxAmount      decimal.Decimal     `gorm:"column:fee_tax_amount;type:numeric(12,2);not null"`
	FeeFinalAmount    decimal.Decimal     `gorm:"column:fee_final_amount;type:numeric(12,2);not null"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null"`
	FeePaymentStatus  enums.PaymentStatus `gorm:"column:fee_payment_status;type:text;not null"`
	FeeTransactionID  *uuid.UUID          `gorm:"column:fee_transaction_id;type:uuid"`
	FeePaidAt         *time.Time          `gorm:"column:fee_paid_at"`
	FeeRefundedAt     *time.Time          `gorm:"column:fee_refunded_at"`
	FeeReviewReason   *string             `gorm:"column:fee_review_reason"`
	BankAccountHolder string              `gorm:"column:bank_account_holder"`
	BankAccountNumber string              `gorm:"column:bank_account_number"`
	BankIFSC          string              `gorm:"column:bank_ifsc"`
	BankName          string              `gorm:"column:bank_name"`
	ApprovedAt        *time.Time          `gorm:"column:approved_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// HasBankDetails reports whether a payout destination is on file.
func (v Vendor) HasBankDetails() bool {
	return v.BankAccountNumber != "" && v.BankIFSC != "" && v.BankAccountHolder != ""
}
