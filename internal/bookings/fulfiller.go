package bookings

import (
	"context"
	"time"

	"github.com/angelmondragon/reelpass-backend/internal/payments"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fulfiller exposes bookings to payment reconciliation.
func (s *Service) Fulfiller() payments.Fulfiller {
	return &fulfiller{svc: s}
}

type fulfiller struct {
	svc *Service
}

func (f *fulfiller) TargetType() enums.PayableType {
	return enums.PayableBooking
}

func (f *fulfiller) Payable(ctx context.Context, tx *gorm.DB, targetID uuid.UUID) (*payments.Payable, error) {
	booking, err := f.svc.repo.WithTx(tx).FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	userID := booking.UserID
	expiresAt := booking.ExpiresAt
	return &payments.Payable{
		TargetType: enums.PayableBooking,
		TargetID:   booking.ID,
		Reference:  booking.Reference,
		UserID:     &userID,
		VendorID:   booking.VendorID,
		Amount:     booking.FinalAmount,
		Currency:   booking.Currency,
		Status:     booking.PaymentStatus,
		Open:       booking.BookingStatus == enums.BookingStatusConfirmed,
		ExpiresAt:  &expiresAt,
		Customer: payments.Customer{
			Name:  booking.CustomerName,
			Email: booking.CustomerEmail,
			Phone: booking.CustomerPhone,
		},
	}, nil
}

// Complete marks the hold paid and mints its ticket. A capture that lands
// after the deadline but before the sweep still completes because the seats
// are still held.
func (f *fulfiller) Complete(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, txn *models.PaymentTransaction, now time.Time) (payments.Completion, error) {
	repo := f.svc.repo.WithTx(tx)
	now = now.UTC()

	updates := map[string]any{
		"payment_status": enums.PaymentStatusCompleted,
		"completed_at":   now,
	}
	if txn != nil {
		updates["transaction_id"] = txn.GatewayOrderID
	}
	affected, err := repo.updatePendingHold(ctx, targetID, updates)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete booking")
	}

	booking, err := repo.FindByID(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		if booking.PaymentStatus == enums.PaymentStatusCompleted && booking.BookingStatus == enums.BookingStatusConfirmed {
			return payments.CompletionAlreadyDone, nil
		}
		return 0, holdLapsed(booking)
	}

	showtime, err := f.svc.showtimes.WithTx(tx).FindShowtime(ctx, booking.ShowtimeID)
	if err != nil {
		return 0, err
	}
	if _, err := f.svc.tickets.Mint(ctx, tx, booking, showtime); err != nil {
		return 0, err
	}

	logCtx := f.svc.logg.WithFields(ctx, map[string]any{
		"booking_id": booking.ID.String(),
		"reference":  booking.Reference,
	})
	f.svc.logg.Info(logCtx, "booking paid")
	return payments.CompletionApplied, nil
}

// Fail ends an unpaid hold and frees its seats. The booking becomes expired
// so a later capture is routed to review instead of completing it.
func (f *fulfiller) Fail(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) (bool, error) {
	repo := f.svc.repo.WithTx(tx)
	affected, err := repo.updatePendingHold(ctx, targetID, map[string]any{
		"payment_status": enums.PaymentStatusFailed,
		"booking_status": enums.BookingStatusExpired,
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail booking")
	}
	if affected == 0 {
		return false, nil
	}
	booking, err := repo.FindByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	if err := f.svc.inventory.Release(ctx, tx, holdOf(booking)); err != nil {
		return false, err
	}
	now := f.svc.now().UTC()
	if err := f.svc.emit(ctx, tx, enums.EventBookingExpired, booking, now); err != nil {
		return false, err
	}

	logCtx := f.svc.logg.WithFields(ctx, map[string]any{
		"booking_id": booking.ID.String(),
		"reason":     reason,
	})
	f.svc.logg.Warn(logCtx, "booking payment failed")
	return true, nil
}

// Refunded marks a paid booking refunded and frees its seats when it was
// still confirmed.
func (f *fulfiller) Refunded(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, now time.Time) error {
	repo := f.svc.repo.WithTx(tx)
	now = now.UTC()
	affected, err := repo.MarkRefunded(ctx, targetID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund booking")
	}
	if affected == 0 {
		return nil
	}

	booking, err := repo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if booking.BookingStatus != enums.BookingStatusConfirmed {
		return nil
	}
	cancelled, err := repo.Cancel(ctx, booking.ID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel refunded booking")
	}
	if cancelled == 0 {
		return nil
	}
	return f.svc.inventory.Release(ctx, tx, holdOf(booking))
}

func (f *fulfiller) FlagReview(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) error {
	if err := f.svc.repo.WithTx(tx).SetReviewReason(ctx, targetID, reason); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag booking for review")
	}
	return nil
}

// holdLapsed describes why a capture could not complete the booking.
func holdLapsed(booking *models.Booking) error {
	return pkgerrors.Wrap(pkgerrors.CodeBusinessRule, payments.ErrHoldLapsed, "booking is "+string(booking.BookingStatus)).
		WithDetails(map[string]any{
			"bookingId":     booking.ID,
			"bookingStatus": booking.BookingStatus,
			"paymentStatus": booking.PaymentStatus,
		})
}
