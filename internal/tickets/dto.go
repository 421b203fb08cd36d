package tickets

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ETicketDTO is the API shape of an e-ticket. The QR payload is included so
// clients can render the code themselves.
type ETicketDTO struct {
	ID           uuid.UUID  `json:"id"`
	BookingID    uuid.UUID  `json:"bookingId"`
	ShowtimeID   uuid.UUID  `json:"showtimeId"`
	TicketNumber string     `json:"ticketNumber"`
	Seats        []string   `json:"seats"`
	QRPayload    string     `json:"qrPayload"`
	IsUsed       bool       `json:"isUsed"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	IssuedAt     time.Time  `json:"issuedAt"`
}

func ToDTO(t *models.ETicket) *ETicketDTO {
	if t == nil {
		return nil
	}
	return &ETicketDTO{
		ID:           t.ID,
		BookingID:    t.BookingID,
		ShowtimeID:   t.ShowtimeID,
		TicketNumber: t.TicketNumber,
		Seats:        []string(t.Seats),
		QRPayload:    t.QRPayload,
		IsUsed:       t.IsUsed,
		UsedAt:       t.UsedAt,
		IssuedAt:     t.IssuedAt,
	}
}
