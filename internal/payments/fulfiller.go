package payments

import (
	"context"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrHoldLapsed is returned by Fulfiller.Complete when the target expired or
// was cancelled before the capture landed.
var ErrHoldLapsed = pkgerrors.New(pkgerrors.CodeBusinessRule, "payment hold has lapsed")

// Completion reports what Fulfiller.Complete did.
type Completion int

const (
	CompletionApplied Completion = iota + 1
	CompletionAlreadyDone
)

func (c Completion) String() string {
	switch c {
	case CompletionApplied:
		return "applied"
	case CompletionAlreadyDone:
		return "already_done"
	default:
		return "unknown"
	}
}

// Customer is the payer contact forwarded to gateways.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Payable is the target-agnostic view of something that can be paid for.
type Payable struct {
	TargetType enums.PayableType
	TargetID   uuid.UUID
	Reference  string
	// UserID is the paying user; PayerVendorID is set instead when a vendor
	// pays the platform.
	UserID        *uuid.UUID
	PayerVendorID *uuid.UUID
	// VendorID is credited with the sale, if any.
	VendorID   *uuid.UUID
	Amount     decimal.Decimal
	Currency   enums.Currency
	Status     enums.PaymentStatus
	// Open is false once the target expired or was cancelled.
	Open      bool
	ExpiresAt *time.Time
	Customer  Customer
}

// Fulfiller adapts one target type (booking, video purchase, vendor fee) to
// the reconciliation flow. Every method runs inside the caller's transaction.
type Fulfiller interface {
	TargetType() enums.PayableType
	Payable(ctx context.Context, tx *gorm.DB, targetID uuid.UUID) (*Payable, error)
	// Complete performs the conditional pending -> completed transition and
	// its side effects.
	Complete(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, txn *models.PaymentTransaction, now time.Time) (Completion, error)
	// Fail moves a pending target to failed and reports whether it did.
	Fail(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) (bool, error)
	// Refunded moves a completed target to refunded.
	Refunded(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, now time.Time) error
	// FlagReview records a manual-reconciliation reason on the target.
	FlagReview(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) error
}
