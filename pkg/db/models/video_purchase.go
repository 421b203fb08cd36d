package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

type VideoPurchase struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Reference       string              `gorm:"column:reference;not null;uniqueIndex:idx_video_purchases_reference"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index:idx_video_purchases_user_video"`
	VideoID         uuid.UUID           `gorm:"column:video_id;type:uuid;not null;index:idx_video_purchases_user_video"`
	VendorID        *uuid.UUID          `gorm:"column:vendor_id;type:uuid"`
	PurchaseType    enums.PurchaseType  `gorm:"column:purchase_type;type:text;not null"`
	BaseAmount      decimal.Decimal     `gorm:"column:base_amount;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	FinalAmount     decimal.Decimal     `gorm:"column:final_amount;type:numeric(12,2);not null"`
	Currency        enums.Currency      `gorm:"column:currency;type:text;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	TransactionID   *string             `gorm:"column:transaction_id"`
	ReviewReason    *string             `gorm:"column:review_reason"`
	ExpiresAt       time.Time           `gorm:"column:expires_at;not null"`
	AccessExpiresAt *time.Time          `gorm:"column:access_expires_at"`
	CompletedAt     *time.Time          `gorm:"column:completed_at"`
	RefundedAt      *time.Time          `gorm:"column:refunded_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
