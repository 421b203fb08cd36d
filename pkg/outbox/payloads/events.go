package payloads

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
)

// BookingEvent covers booking_created, booking_cancelled and booking_expired.
type BookingEvent struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	Reference     string              `json:"reference"`
	UserID        uuid.UUID           `json:"user_id"`
	ShowtimeID    uuid.UUID           `json:"showtime_id"`
	Seats         []string            `json:"seats"`
	BookingStatus enums.BookingStatus `json:"booking_status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// TicketIssuedEvent is emitted once per booking when its e-ticket is minted.
type TicketIssuedEvent struct {
	TicketID     uuid.UUID `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	BookingID    uuid.UUID `json:"booking_id"`
	UserID       uuid.UUID `json:"user_id"`
}

// PaymentEvent covers payment completion, failure, refund and review flags.
type PaymentEvent struct {
	TransactionID    uuid.UUID         `json:"transaction_id"`
	TargetType       enums.PayableType `json:"target_type"`
	TargetID         uuid.UUID         `json:"target_id"`
	Gateway          enums.Gateway     `json:"gateway"`
	GatewayOrderID   string            `json:"gateway_order_id"`
	GatewayPaymentID string            `json:"gateway_payment_id,omitempty"`
	AmountMinor      int64             `json:"amount_minor"`
	Currency         enums.Currency    `json:"currency"`
	Reason           string            `json:"reason,omitempty"`
}

// VideoPurchaseCompletedEvent unlocks playback downstream.
type VideoPurchaseCompletedEvent struct {
	PurchaseID      uuid.UUID          `json:"purchase_id"`
	VideoID         uuid.UUID          `json:"video_id"`
	UserID          uuid.UUID          `json:"user_id"`
	PurchaseType    enums.PurchaseType `json:"purchase_type"`
	AccessExpiresAt *time.Time         `json:"access_expires_at,omitempty"`
}

// VendorRegisteredEvent announces a new vendor application.
type VendorRegisteredEvent struct {
	VendorID     uuid.UUID `json:"vendor_id"`
	Email        string    `json:"email"`
	BusinessName string    `json:"business_name"`
}

// WithdrawalRequestedEvent drives the payout worker.
type WithdrawalRequestedEvent struct {
	WithdrawalID uuid.UUID      `json:"withdrawal_id"`
	VendorID     uuid.UUID      `json:"vendor_id"`
	AmountMinor  int64          `json:"amount_minor"`
	Currency     enums.Currency `json:"currency"`
	TransferID   string         `json:"transfer_id"`
}

// WithdrawalOutcomeEvent reports terminal payout results.
type WithdrawalOutcomeEvent struct {
	WithdrawalID uuid.UUID              `json:"withdrawal_id"`
	VendorID     uuid.UUID              `json:"vendor_id"`
	TransferID   string                 `json:"transfer_id"`
	Status       enums.WithdrawalStatus `json:"status"`
	Reason       string                 `json:"reason,omitempty"`
}
