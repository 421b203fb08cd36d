package vendors

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

// FeeFulfiller exposes the vendor application fee to payment reconciliation.
// The vendor pays the platform, so no one is credited.
func (s *Service) FeeFulfiller() payments.Fulfiller {
	return &feeFulfiller{svc: s}
}

type feeFulfiller struct {
	svc *Service
}

func (f *feeFulfiller) TargetType() enums.PayableType {
	return enums.PayableVendorFee
}

func (f *feeFulfiller) Payable(ctx context.Context, tx *gorm.DB, targetID uuid.UUID) (*payments.Payable, error) {
	vendor, err := f.svc.repo.WithTx(tx).FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	payer := vendor.ID
	return &payments.Payable{
		TargetType:    enums.PayableVendorFee,
		TargetID:      vendor.ID,
		Reference:     vendor.FeeReference,
		PayerVendorID: &payer,
		Amount:        vendor.FeeFinalAmount,
		Currency:      vendor.Currency,
		Status:        vendor.FeePaymentStatus,
		Open:          vendor.Status != enums.VendorStatusRejected,
		Customer: payments.Customer{
			Name:  vendor.BusinessName,
			Email: vendor.Email,
			Phone: vendor.Phone,
		},
	}, nil
}

func (f *feeFulfiller) Complete(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, txn *models.PaymentTransaction, now time.Time) (payments.Completion, error) {
	repo := f.svc.repo.WithTx(tx)
	updates := map[string]any{
		"fee_payment_status": enums.PaymentStatusCompleted,
		"fee_paid_at":        now.UTC(),
	}
	if txn != nil {
		updates["fee_transaction_id"] = txn.ID
	}
	affected, err := repo.transitionFee(ctx, targetID, enums.PaymentStatusPending, updates)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete vendor fee")
	}
	if affected > 0 {
		f.svc.logg.Info(f.svc.logg.WithField(ctx, "vendor_id", targetID.String()), "vendor fee paid")
		return payments.CompletionApplied, nil
	}
	vendor, err := repo.FindByID(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if vendor.FeePaymentStatus == enums.PaymentStatusCompleted {
		return payments.CompletionAlreadyDone, nil
	}
	return 0, pkgerrors.Wrap(pkgerrors.CodeBusinessRule, payments.ErrHoldLapsed, "vendor fee is "+string(vendor.FeePaymentStatus))
}

// Fail leaves the fee pending so the vendor can pay again; there is no hold
// to release.
func (f *feeFulfiller) Fail(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) (bool, error) {
	f.svc.logg.Warn(f.svc.logg.WithFields(ctx, map[string]any{
		"vendor_id": targetID.String(),
		"reason":    reason,
	}), "vendor fee payment failed")
	return false, nil
}

func (f *feeFulfiller) Refunded(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, now time.Time) error {
	_, err := f.svc.repo.WithTx(tx).transitionFee(ctx, targetID, enums.PaymentStatusCompleted, map[string]any{
		"fee_payment_status": enums.PaymentStatusRefunded,
		"fee_refunded_at":    now.UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund vendor fee")
	}
	return nil
}

func (f *feeFulfiller) FlagReview(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, reason string) error {
	if err := f.svc.repo.WithTx(tx).SetFeeReviewReason(ctx, targetID, reason); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag vendor fee for review")
	}
	return nil
}
