package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/reelpass-backend/pkg/db/types"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

type VendorWithdrawal struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	VendorID         uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	AmountMinor      int64                  `gorm:"column:amount_minor;not null"`
	Currency         enums.Currency         `gorm:"column:currency;type:text;not null"`
	Status           enums.WithdrawalStatus `gorm:"column:status;type:text;not null;index"`
	Provider         enums.PayoutProvider   `gorm:"column:provider;type:text;not null"`
	TransferID       string                 `gorm:"column:transfer_id;not null;uniqueIndex:idx_vendor_withdrawals_transfer"`
	PayeeID          *string                `gorm:"column:payee_id"`
	PayeeStage       enums.PayeeStage       `gorm:"column:payee_stage;type:text;not null"`
	ProviderRef      *string                `gorm:"column:provider_ref"`
	FailureReason    *string                `gorm:"column:failure_reason"`
	HoldReleased     bool                   `gorm:"column:hold_released;not null;default:false"`
	ProviderResponse dbtypes.RawJSON        `gorm:"column:provider_response;type:jsonb"`
	RequestedAt      time.Time              `gorm:"column:requested_at;not null"`
	ProcessedAt      *time.Time             `gorm:"column:processed_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
