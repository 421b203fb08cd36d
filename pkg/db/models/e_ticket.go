package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/reelpass-backend/pkg/db/types"
)

// ETicket is minted exactly once per paid booking.
type ETicket struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BookingID    uuid.UUID          `gorm:"column:booking_id;type:uuid;not null;uniqueIndex:idx_e_tickets_booking"`
	ShowtimeID   uuid.UUID          `gorm:"column:showtime_id;type:uuid;not null"`
	TicketNumber string             `gorm:"column:ticket_number;not null;uniqueIndex:idx_e_tickets_number"`
	Seats        dbtypes.StringList `gorm:"column:seats;type:jsonb;not null"`
	QRPayload    string             `gorm:"column:qr_payload;type:text;not null"`
	IsUsed       bool               `gorm:"column:is_used;not null;default:false"`
	UsedAt       *time.Time         `gorm:"column:used_at"`
	IssuedAt     time.Time          `gorm:"column:issued_at;not null"`
}

func (ETicket) TableName() string { return "e_tickets" }
