package tickets

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payload is the JSON encoded into the ticket QR code.
type Payload struct {
	BookingID    uuid.UUID `json:"bookingId"`
	TicketNumber string    `json:"ticketNumber"`
	Seats        []string  `json:"seats"`
	ShowtimeID   uuid.UUID `json:"showtimeId"`
	StartsAt     time.Time `json:"startsAt"`
	Sig          string    `json:"sig"`
}

func (p Payload) canonical() string {
	return strings.Join([]string{
		p.BookingID.String(),
		p.TicketNumber,
		strings.Join(p.Seats, ","),
		p.ShowtimeID.String(),
		p.StartsAt.UTC().Format(time.RFC3339),
	}, "|")
}

// Signer signs QR payloads with a shared secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) Signer {
	return Signer{secret: []byte(secret)}
}

// Sign returns the hex HMAC-SHA256 of the canonical payload.
func (s Signer) Sign(p Payload) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(p.canonical()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares sig against the payload signature in constant time.
func (s Signer) Verify(p Payload, sig string) bool {
	expected := s.Sign(p)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(sig))))
}
