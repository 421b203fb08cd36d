package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db/dbtest"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/reelpass-backend/pkg/db/types"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingEmitter) {
	t.Helper()
	conn := dbtest.Open(t)
	emitter := &recordingEmitter{}
	svc, err := NewService(conn, emitter, config.TicketsConfig{QRSecret: "qr-secret", QRSize: 4})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn, emitter
}

func testBooking() (*models.Booking, *models.Showtime) {
	showtime := &models.Showtime{ID: uuid.New(), StartsAt: time.Date(2026, 11, 1, 18, 30, 0, 0, time.UTC)}
	booking := &models.Booking{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		ShowtimeID:    showtime.ID,
		SelectedSeats: dbtypes.StringList{"A1", "A2"},
	}
	return booking, showtime
}

func mint(t *testing.T, svc *Service, conn *gorm.DB, booking *models.Booking, showtime *models.Showtime) *models.ETicket {
	t.Helper()
	var ticket *models.ETicket
	err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		ticket, err = svc.Mint(context.Background(), tx, booking, showtime)
		return err
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return ticket
}

func TestMintOncePerBooking(t *testing.T) {
	svc, conn, emitter := newTestService(t)
	booking, showtime := testBooking()

	first := mint(t, svc, conn, booking, showtime)
	if !strings.HasPrefix(first.TicketNumber, "TKT-") || len(first.TicketNumber) != 20 {
		t.Fatalf("unexpected ticket number %q", first.TicketNumber)
	}
	second := mint(t, svc, conn, booking, showtime)
	if second.ID != first.ID || second.TicketNumber != first.TicketNumber {
		t.Fatalf("expected existing ticket on repeat mint")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventTicketIssued {
		t.Fatalf("expected one ticket_issued event, got %+v", emitter.events)
	}

	var count int64
	conn.Model(&models.ETicket{}).Where("booking_id = ?", booking.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one ticket row, got %d", count)
	}
}

func TestPayloadIsSigned(t *testing.T) {
	svc, conn, _ := newTestService(t)
	booking, showtime := testBooking()
	ticket := mint(t, svc, conn, booking, showtime)

	var payload Payload
	if err := json.Unmarshal([]byte(ticket.QRPayload), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.BookingID != booking.ID || payload.TicketNumber != ticket.TicketNumber {
		t.Fatalf("payload does not describe the ticket: %+v", payload)
	}
	if !svc.signer.Verify(payload, payload.Sig) {
		t.Fatal("expected payload signature to verify")
	}

	tampered := payload
	tampered.Seats = []string{"A1", "A2", "A3"}
	if svc.signer.Verify(tampered, payload.Sig) {
		t.Fatal("expected tampered payload to fail verification")
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	ctx := context.Background()
	svc, conn, _ := newTestService(t)
	booking, showtime := testBooking()
	ticket := mint(t, svc, conn, booking, showtime)

	var payload Payload
	if err := json.Unmarshal([]byte(ticket.QRPayload), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	if _, err := svc.Redeem(ctx, ticket.TicketNumber, "deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	redeemed, err := svc.Redeem(ctx, strings.ToLower(ticket.TicketNumber), payload.Sig)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !redeemed.IsUsed || redeemed.UsedAt == nil {
		t.Fatalf("expected ticket marked used: %+v", redeemed)
	}

	if _, err := svc.Redeem(ctx, ticket.TicketNumber, payload.Sig); !errors.Is(err, ErrTicketAlreadyUsed) {
		t.Fatalf("expected already used, got %v", err)
	}
	if _, err := svc.Redeem(ctx, "TKT-MISSING", payload.Sig); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetByBookingNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.GetByBooking(context.Background(), uuid.New()); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRenderQRProducesImage(t *testing.T) {
	svc, conn, _ := newTestService(t)
	booking, showtime := testBooking()
	ticket := mint(t, svc, conn, booking, showtime)

	img, err := svc.RenderQR(ticket)
	if err != nil {
		t.Fatalf("render qr: %v", err)
	}
	if len(img) < 2 || img[0] != 0xFF || img[1] != 0xD8 {
		t.Fatalf("expected jpeg bytes, got %d bytes", len(img))
	}
}
