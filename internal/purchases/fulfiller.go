package purchases

import (
	"context"
	"time"

	"github.com/angelmondragon/reelpass-backend/internal/payments"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fulfiller exposes video purchases to payment reconciliation.
func (s *Service) Fulfiller() payments.Fulfiller {
	return &fulfiller{svc: s}
}

type fulfiller struct {
	svc *Service
}

func (f *fulfiller) TargetType() enums.PayableType {
	return enums.PayableVideoPurchase
}

func (f *fulfiller) Payable(ctx context.Context, tx *gorm.DB, targetID uuid.UUID) (*payments.Payable, error) {
	purchase, err := f.svc.repo.WithTx(tx).FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	userID := purchase.UserID
	expiresAt := purchase.ExpiresAt
	return &payments.Payable{
		TargetType: enums.PayableVideoPurchase,
		TargetID:   purchase.ID,
		Reference:  purchase.Reference,
		UserID:     &userID,
		VendorID:   purchase.VendorID,
		Amount:     purchase.FinalAmount,
		Currency:   purchase.Currency,
		Status:     purchase.PaymentStatus,
		Open:       purchase.PaymentStatus == enums.PaymentStatusPending || purchase.PaymentStatus == enums.PaymentStatusCompleted,
		ExpiresAt:  &expiresAt,
	}, nil
}

// Complete grants access. Rentals run for the video's rental window from the
// moment of payment.
func (f *fulfiller) Complete(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, txn *models.PaymentTransaction, now time.Time) (payments.Completion, error) {
	repo := f.svc.repo.WithTx(tx)
	now = now.UTC()

	purchase, err := repo.FindByID(ctx, targetID)
	if err != nil {
		return 0, err
	}
	updates := map[string]any{
		"payment_status": enums.PaymentStatusCompleted,
		"completed_at":   now,
	}
	var accessUntil *time.Time
	if purchase.PurchaseType == enums.PurchaseTypeRent {
		video, err := repo.FindVideo(ctx, purchase.VideoID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rented video")
		}
		until := now.Add(time.Duration(video.RentalHours) * time.Hour)
		accessUntil = &until
		updates["access_expires_at"] = until
	}
	if txn != nil {
		updates["transaction_id"] = txn.GatewayOrderID
	}

	affected, err := repo.transition(ctx, targetID, enums.PaymentStatusPending, updates)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete purchase")
	}
	if affected == 0 {
		if purchase.PaymentStatus == enums.PaymentStatusCompleted {
			return payments.CompletionAlreadyDone, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeBusinessRule, payments.ErrHoldLapsed, "purchase is "+string(purchase.PaymentStatus))
	}

	err = f.svc.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVideoPurchaseCompleted,
		AggregateType: enums.AggregateVideoPurchase,
		AggregateID:   purchase.ID,
		Actor:         &outbox.ActorRef{UserID: purchase.UserID, Role: enums.RoleUser.String()},
		OccurredAt:    now,
		Data: payloads.VideoPurchaseCompletedEvent{
			PurchaseID:      purchase.ID,
			VideoID:         purchase.VideoID,
			UserID:          purchase.UserID,
			PurchaseType:    purchase.PurchaseType,
			AccessExpiresAt: accessUntil,
		},
	})
	if err != nil {
		return 0, err
	}
	f.svc.logg.Info(f.svc.logg.WithField(ctx, "purchase_id", purchase.ID.String()), "video purchase paid")
	return payments.CompletionApplied, nil
}

func (f *fulfiller) Fail(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) (bool, error) {
	affected, err := f.svc.repo.WithTx(tx).transition(ctx, targetID, enums.PaymentStatusPending, map[string]any{
		"payment_status": enums.PaymentStatusFailed,
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail purchase")
	}
	if affected > 0 {
		f.svc.logg.Warn(f.svc.logg.WithFields(ctx, map[string]any{
			"purchase_id": targetID.String(),
			"reason":      reason,
		}), "video purchase payment failed")
	}
	return affected > 0, nil
}

// Refunded revokes access along with the payment.
func (f *fulfiller) Refunded(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, now time.Time) error {
	now = now.UTC()
	_, err := f.svc.repo.WithTx(tx).transition(ctx, targetID, enums.PaymentStatusCompleted, map[string]any{
		"payment_status":    enums.PaymentStatusRefunded,
		"refunded_at":       now,
		"access_expires_at": now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund purchase")
	}
	return nil
}

func (f *fulfiller) FlagReview(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) error {
	if err := f.svc.repo.WithTx(tx).SetReviewReason(ctx, targetID, reason); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag purchase for review")
	}
	return nil
}
