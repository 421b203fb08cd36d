package tickets

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ticketPrefix = "TKT-"

var ticketEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Service mints, renders and redeems e-tickets.
type Service struct {
	db         *gorm.DB
	emitter    outbox.Emitter
	signer     Signer
	blockWidth int
	now        func() time.Time
}

// NewService builds the ticket service from its config.
func NewService(db *gorm.DB, emitter outbox.Emitter, cfg config.TicketsConfig) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if strings.TrimSpace(cfg.QRSecret) == "" {
		return nil, fmt.Errorf("ticket qr secret required")
	}
	return &Service{
		db:         db,
		emitter:    emitter,
		signer:     NewSigner(cfg.QRSecret),
		blockWidth: cfg.QRSize,
		now:        time.Now,
	}, nil
}

// Mint issues the booking's ticket inside tx. A booking has at most one
// ticket; a repeat call returns the existing one without a new event.
func (s *Service) Mint(ctx context.Context, tx *gorm.DB, booking *models.Booking, showtime *models.Showtime) (*models.ETicket, error) {
	if tx == nil {
		return nil, fmt.Errorf("mint requires a transaction")
	}
	if booking == nil || showtime == nil {
		return nil, fmt.Errorf("booking and showtime required")
	}

	number, err := newTicketNumber()
	if err != nil {
		return nil, err
	}
	payload := Payload{
		BookingID:    booking.ID,
		TicketNumber: number,
		Seats:        []string(booking.SelectedSeats),
		ShowtimeID:   showtime.ID,
		StartsAt:     showtime.StartsAt.UTC().Truncate(time.Second),
	}
	payload.Sig = s.signer.Sign(payload)
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	ticket := &models.ETicket{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		ShowtimeID:   showtime.ID,
		TicketNumber: number,
		Seats:        booking.SelectedSeats,
		QRPayload:    string(encoded),
		IssuedAt:     s.now().UTC(),
	}
	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "booking_id"}}, DoNothing: true}).
		Create(ticket)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "insert e-ticket")
	}
	if res.RowsAffected == 0 {
		return s.byBooking(ctx, tx, booking.ID)
	}

	err = s.emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventTicketIssued,
		AggregateType: enums.AggregateTicket,
		AggregateID:   ticket.ID,
		Actor:         &outbox.ActorRef{UserID: booking.UserID, Role: enums.RoleUser.String()},
		Data: payloads.TicketIssuedEvent{
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			BookingID:    booking.ID,
			UserID:       booking.UserID,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit ticket issued")
	}
	return ticket, nil
}

// GetByBooking loads the ticket of a booking.
func (s *Service) GetByBooking(ctx context.Context, bookingID uuid.UUID) (*models.ETicket, error) {
	return s.byBooking(ctx, s.db, bookingID)
}

// FindByBookingTx loads the ticket through the caller's transaction, or nil
// when none was minted.
func (s *Service) FindByBookingTx(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*models.ETicket, error) {
	ticket, err := s.byBooking(ctx, tx, bookingID)
	if errors.Is(err, ErrTicketNotFound) {
		return nil, nil
	}
	return ticket, err
}

// RenderQR returns the QR image for the ticket's signed payload.
func (s *Service) RenderQR(ticket *models.ETicket) ([]byte, error) {
	if ticket == nil || ticket.QRPayload == "" {
		return nil, ErrTicketNotFound
	}
	img, err := renderQR(ticket.QRPayload, s.blockWidth)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render ticket qr")
	}
	return img, nil
}

// Redeem marks a ticket used after checking the scanned signature. A ticket
// can be redeemed once.
func (s *Service) Redeem(ctx context.Context, ticketNumber, sig string) (*models.ETicket, error) {
	ticketNumber = strings.ToUpper(strings.TrimSpace(ticketNumber))
	if ticketNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket number is required")
	}

	var ticket models.ETicket
	if err := s.db.WithContext(ctx).First(&ticket, "ticket_number = ?", ticketNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}

	var payload Payload
	if err := json.Unmarshal([]byte(ticket.QRPayload), &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode ticket payload")
	}
	if !s.signer.Verify(payload, sig) {
		return nil, ErrInvalidSignature
	}

	now := s.now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.ETicket{}).
		Where("id = ? AND is_used = ?", ticket.ID, false).
		Updates(map[string]any{"is_used": true, "used_at": now})
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "redeem ticket")
	}
	if res.RowsAffected == 0 {
		return nil, ErrTicketAlreadyUsed
	}
	ticket.IsUsed = true
	ticket.UsedAt = &now
	return &ticket, nil
}

func (s *Service) byBooking(ctx context.Context, conn *gorm.DB, bookingID uuid.UUID) (*models.ETicket, error) {
	var ticket models.ETicket
	if err := conn.WithContext(ctx).First(&ticket, "booking_id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
	}
	return &ticket, nil
}

func newTicketNumber() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ticket number entropy: %w", err)
	}
	return ticketPrefix + ticketEncoding.EncodeToString(buf), nil
}
