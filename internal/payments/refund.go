package payments

import (
	"context"
	"strings"

	"github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RefundInput struct {
	TargetType enums.PayableType
	TargetID   uuid.UUID
	// Amount is optional; when set it must equal the capture.
	Amount *decimal.Decimal
	Reason string
	Actor  auth.Actor
}

type RefundResult struct {
	Transaction *models.PaymentTransaction `json:"transaction"`
	RefundID    string                     `json:"refundId"`
	Status      gateways.RefundStatus      `json:"status"`
}

// Refund returns a completed payment through its gateway. It is only ever
// triggered explicitly. The refund reference is derived from the
// transaction so a retried request cannot refund twice at the provider.
func (s *Service) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	fulfiller, err := s.fulfiller(input.TargetType)
	if err != nil {
		return nil, err
	}
	payable, err := s.payable(ctx, fulfiller, input.TargetID)
	if err != nil {
		return nil, err
	}
	if !canPay(input.Actor, payable) {
		return nil, ErrForbidden
	}
	switch payable.Status {
	case enums.PaymentStatusRefunded:
		return nil, ErrAlreadyRefunded
	case enums.PaymentStatusCompleted:
	default:
		return nil, ErrNotRefundable
	}

	txn, err := s.repo.FindSettled(ctx, payable.TargetType, payable.TargetID)
	if err != nil {
		return nil, notFoundOr(err, "load settled transaction")
	}
	if txn.Status == enums.TransactionStatusRefunded {
		return nil, ErrAlreadyRefunded
	}
	if txn.GatewayPaymentID == nil || *txn.GatewayPaymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction has no gateway payment to refund")
	}
	// Refunds always settle the whole capture.
	if input.Amount != nil {
		minor, err := money.ToMinor(*input.Amount, txn.Currency)
		if err != nil || minor != txn.AmountMinor {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrPartialRefund, "partial refunds are not supported").
				WithDetails(map[string]any{"capturedMinor": txn.AmountMinor})
		}
	}
	gw, err := s.gateways.Get(txn.Gateway.String())
	if err != nil {
		return nil, err
	}

	refundRef := "rf_" + strings.ReplaceAll(txn.ID.String(), "-", "")
	if err := s.repo.MarkRefundRequested(ctx, txn.ID, refundRef); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund request")
	}
	record, err := gw.Refund(ctx, gateways.RefundRequest{
		Payment:  gateways.PaymentRef{OrderID: txn.GatewayOrderID, PaymentID: *txn.GatewayPaymentID},
		Amount:   input.Amount,
		Currency: txn.Currency,
		RefundID: refundRef,
		Reason:   input.Reason,
	})
	if err == nil && record.Status == gateways.RefundFailed {
		err = gateways.NewError(gw.Name().String(), gateways.CodeProviderUnknown, "refund reported failed")
	}
	if err != nil {
		return nil, s.refundFailed(ctx, txn, err)
	}

	refundID := record.RefundID
	if refundID == "" {
		refundID = refundRef
	}
	refunded, err := s.finishRefund(ctx, txn, refundID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txn.ID.String(),
		"refund_id":      refundID,
		"refund_status":  record.Status,
	}), "payment refunded")
	return &RefundResult{Transaction: refunded, RefundID: refundID, Status: record.Status}, nil
}

// finishRefund records an accepted refund on the transaction and target and
// claws back the vendor credit. Losing the conditional update means another
// caller already did it.
func (s *Service) finishRefund(ctx context.Context, txn *models.PaymentTransaction, refundID string) (*models.PaymentTransaction, error) {
	fulfiller, err := s.fulfiller(txn.TargetType)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	var refunded *models.PaymentTransaction
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.MarkRefunded(ctx, txn.ID, refundID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transaction refunded")
		}
		if affected == 0 {
			return ErrAlreadyRefunded
		}
		if err := fulfiller.Refunded(ctx, tx, txn.TargetID, now); err != nil {
			return err
		}
		if _, err := s.earnings.DebitRefund(ctx, tx, txn.ID); err != nil {
			return err
		}
		if refunded, err = repo.FindByID(ctx, txn.ID); err != nil {
			return err
		}
		return s.emit(ctx, tx, enums.EventPaymentRefunded, refunded, "", now)
	})
	if err != nil {
		return nil, err
	}
	return refunded, nil
}

func (s *Service) refundFailed(ctx context.Context, txn *models.PaymentTransaction, cause error) error {
	message := cause.Error()
	if gwErr, ok := gateways.AsGatewayError(cause); ok && gwErr.Message != "" {
		message = gwErr.Message
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txn.ID.String(),
		"error":          cause.Error(),
	}), "gateway refund failed")

	reason := reviewRefundFailed + message
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.flagReview(ctx, tx, txn, reason)
	})
	if err != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, ErrRefundFailed, message)
}
