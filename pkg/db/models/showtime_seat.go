package models

import (
	"time"

	"github.com/google/uuid"
)

// ShowtimeSeat is a seat held by a booking. The unique (showtime_id, seat_id)
// index makes a double hold impossible at the storage layer.
type ShowtimeSeat struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ShowtimeID uuid.UUID `gorm:"column:showtime_id;type:uuid;not null;uniqueIndex:idx_showtime_seats_unique"`
	SeatID     string    `gorm:"column:seat_id;not null;uniqueIndex:idx_showtime_seats_unique"`
	BookingID  uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index"`
	HeldAt     time.Time `gorm:"column:held_at;not null"`
}
