package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// VendorPayee caches the provider-side beneficiary created for a vendor.
type VendorPayee struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	VendorID  uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_vendor_payees_vendor_provider"`
	Provider  enums.PayoutProvider `gorm:"column:provider;type:text;not null;uniqueIndex:idx_vendor_payees_vendor_provider"`
	PayeeRef  string               `gorm:"column:payee_ref;not null"`
	PayeeID   string               `gorm:"column:payee_id;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
