package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/reelpass-backend/pkg/db/types"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// PaymentTransaction is one gateway payment attempt for a payable target.
// Amounts are stored in minor units, exactly as sent to the provider.
type PaymentTransaction struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	TargetType       enums.PayableType       `gorm:"column:target_type;type:text;not null;index:idx_payment_transactions_target"`
	TargetID         uuid.UUID               `gorm:"column:target_id;type:uuid;not null;index:idx_payment_transactions_target"`
	UserID           *uuid.UUID              `gorm:"column:user_id;type:uuid"`
	Gateway          enums.Gateway           `gorm:"column:gateway;type:text;not null;uniqueIndex:idx_payment_transactions_order"`
	GatewayOrderID   string                  `gorm:"column:gateway_order_id;not null;uniqueIndex:idx_payment_transactions_order"`
	GatewayPaymentID *string                 `gorm:"column:gateway_payment_id"`
	Receipt          string                  `gorm:"column:receipt;not null"`
	Attempt          int                     `gorm:"column:attempt;not null;default:1"`
	AmountMinor      int64                   `gorm:"column:amount_minor;not null"`
	Currency         enums.Currency          `gorm:"column:currency;type:text;not null"`
	Method           string                  `gorm:"column:method"`
	Status           enums.TransactionStatus `gorm:"column:status;type:text;not null"`
	FailureReason    *string                 `gorm:"column:failure_reason"`
	ReviewReason     *string                 `gorm:"column:review_reason"`
	GatewayResponse  dbtypes.RawJSON         `gorm:"column:gateway_response;type:jsonb"`
	RefundID         *string                 `gorm:"column:refund_id"`
	ProcessedAt      *time.Time              `gorm:"column:processed_at"`
	RefundedAt       *time.Time              `gorm:"column:refunded_at"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
