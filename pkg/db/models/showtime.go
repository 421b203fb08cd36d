package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
)

// Showtime is one screening with a fixed seat capacity. AvailableCount is
// always TotalCapacity minus the number of ShowtimeSeat rows it owns.
type Showtime struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	MovieID        uuid.UUID            `gorm:"column:movie_id;type:uuid;not null;index"`
	VendorID       *uuid.UUID           `gorm:"column:vendor_id;type:uuid"`
	ScreenName     string               `gorm:"column:screen_name;not null"`
	StartsAt       time.Time            `gorm:"column:starts_at;not null"`
	SeatRows       int                  `gorm:"column:seat_rows;not null;default:0"`
	SeatCols       int                  `gorm:"column:seat_cols;not null;default:0"`
	TotalCapacity  int                  `gorm:"column:total_capacity;not null"`
	AvailableCount int                  `gorm:"column:available_count;not null"`
	BasePrice      decimal.Decimal      `gorm:"column:base_price;type:numeric(12,2);not null"`
	Currency       enums.Currency       `gorm:"column:currency;type:text;not null"`
	Status         enums.ShowtimeStatus `gorm:"column:status;type:text;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
