package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/reelpass-backend/pkg/db/types"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// Booking is a seat reservation for one showtime. BookingStatus and
// PaymentStatus move independently.
type Booking struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Reference      string              `gorm:"column:reference;not null;uniqueIndex:idx_bookings_reference"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ShowtimeID     uuid.UUID           `gorm:"column:showtime_id;type:uuid;not null;index"`
	VendorID       *uuid.UUID          `gorm:"column:vendor_id;type:uuid"`
	SelectedSeats  dbtypes.StringList  `gorm:"column:selected_seats;type:jsonb;not null"`
	CustomerName   string              `gorm:"column:customer_name"`
	CustomerEmail  string              `gorm:"column:customer_email"`
	CustomerPhone  string              `gorm:"column:customer_phone"`
	BaseAmount     decimal.Decimal     `gorm:"column:base_amount;type:numeric(12,2);not null"`
	FeesAmount     decimal.Decimal     `gorm:"column:fees_amount;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	FinalAmount    decimal.Decimal     `gorm:"column:final_amount;type:numeric(12,2);not null"`
	Currency       enums.Currency      `gorm:"column:currency;type:text;not null"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;index"`
	BookingStatus  enums.BookingStatus `gorm:"column:booking_status;type:text;not null;index"`
	TransactionID  *string             `gorm:"column:transaction_id"`
	ReviewReason   *string             `gorm:"column:review_reason"`
	ExpiresAt      time.Time           `gorm:"column:expires_at;not null;index"`
	CompletedAt    *time.Time          `gorm:"column:completed_at"`
	CancelledAt    *time.Time          `gorm:"column:cancelled_at"`
	RefundedAt     *time.Time          `gorm:"column:refunded_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
