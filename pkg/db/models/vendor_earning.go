package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// VendorEarning is an immutable vendor balance movement. NetMinor is signed:
// sale credits and reversals are positive, withdrawal holds negative.
type VendorEarning struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	VendorID        uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	EntryType       enums.EarningEntryType `gorm:"column:entry_type;type:text;not null;uniqueIndex:idx_vendor_earnings_source"`
	SourceType      string                 `gorm:"column:source_type;not null;uniqueIndex:idx_vendor_earnings_source"`
	SourceID        uuid.UUID              `gorm:"column:source_id;type:uuid;not null;uniqueIndex:idx_vendor_earnings_source"`
	GrossMinor      int64                  `gorm:"column:gross_minor;not null"`
	CommissionMinor int64                  `gorm:"column:commission_minor;not null"`
	NetMinor        int64                  `gorm:"column:net_minor;not null"`
	Currency        enums.Currency         `gorm:"column:currency;type:text;not null"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
}
