package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// Video is streamable content sold by rental or outright purchase. It is only
// visible inside [AvailableFrom, AvailableUntil) when those bounds are set.
type Video struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	VendorID       *uuid.UUID      `gorm:"column:vendor_id;type:uuid"`
	Title          string          `gorm:"column:title;not null"`
	Slug           string          `gorm:"column:slug;not null;uniqueIndex:idx_videos_slug"`
	Description    string          `gorm:"column:description"`
	RentPrice      decimal.Decimal `gorm:"column:rent_price;type:numeric(12,2);not null"`
	BuyPrice       decimal.Decimal `gorm:"column:buy_price;type:numeric(12,2);not null"`
	Currency       enums.Currency  `gorm:"column:currency;type:text;not null"`
	RentalHours    int             `gorm:"column:rental_hours;not null;default:48"`
	AvailableFrom  *time.Time      `gorm:"column:available_from"`
	AvailableUntil *time.Time      `gorm:"column:available_until"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
