package payments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/reelpass-backend/pkg/db/types"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists payment transactions. Status transitions are
// conditional updates; callers inspect the affected row count.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) FindByOrder(ctx context.Context, gateway enums.Gateway, orderID string) (*models.PaymentTransaction, error) {
	return r.first(ctx, "gateway = ? AND gateway_order_id = ?", gateway, orderID)
}

func (r *Repository) FindByReceipt(ctx context.Context, gateway enums.Gateway, receipt string) (*models.PaymentTransaction, error) {
	return r.first(ctx, "gateway = ? AND receipt = ?", gateway, receipt)
}

func (r *Repository) FindByPaymentID(ctx context.Context, gateway enums.Gateway, paymentID string) (*models.PaymentTransaction, error) {
	return r.first(ctx, "gateway = ? AND gateway_payment_id = ?", gateway, paymentID)
}

// FindSettled returns the transaction that completed the target. Captures
// that never completed it (late, duplicate, mismatched) are skipped.
func (r *Repository) FindSettled(ctx context.Context, targetType enums.PayableType, targetID uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Where("(review_reason IS NULL OR review_reason NOT IN ?)", []string{ReviewLateSuccess, ReviewDuplicateCapture, ReviewAmountMismatch}).
		Where("status IN ?", []enums.TransactionStatus{enums.TransactionStatusSuccess, enums.TransactionStatusRefunded}).
		Order("processed_at DESC").
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *Repository) CountAttempts(ctx context.Context, targetType enums.PayableType, targetID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&count).Error
	return count, err
}

// capture is the provider-confirmed payment applied to a transaction.
type capture struct {
	PaymentID   string
	AmountMinor int64
	Method      string
	Raw         json.RawMessage
}

// MarkSuccess moves a pending transaction to success.
func (r *Repository) MarkSuccess(ctx context.Context, id uuid.UUID, c capture, now time.Time) (int64, error) {
	updates := map[string]any{
		"status":       enums.TransactionStatusSuccess,
		"processed_at": now,
	}
	if c.PaymentID != "" {
		updates["gateway_payment_id"] = c.PaymentID
	}
	if c.Method != "" {
		updates["method"] = c.Method
	}
	if len(c.Raw) > 0 {
		updates["gateway_response"] = dbtypes.RawJSON(c.Raw)
	}
	return r.transition(ctx, id, enums.TransactionStatusPending, updates)
}

// Unsettle returns a success that did not complete its target to pending.
func (r *Repository) Unsettle(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.transition(ctx, id, enums.TransactionStatusSuccess, map[string]any{
		"status":       enums.TransactionStatusPending,
		"processed_at": nil,
	})
}

// MarkFailed moves a pending transaction to failed. It never touches a
// transaction that already succeeded.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, paymentID, reason string, raw json.RawMessage, now time.Time) (int64, error) {
	updates := map[string]any{
		"status":         enums.TransactionStatusFailed,
		"failure_reason": reason,
		"processed_at":   now,
	}
	if paymentID != "" {
		updates["gateway_payment_id"] = paymentID
	}
	if len(raw) > 0 {
		updates["gateway_response"] = dbtypes.RawJSON(raw)
	}
	return r.transition(ctx, id, enums.TransactionStatusPending, updates)
}

func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID, refundID string, now time.Time) (int64, error) {
	updates := map[string]any{
		"status":      enums.TransactionStatusRefunded,
		"refunded_at": now,
	}
	if refundID != "" {
		updates["refund_id"] = refundID
	}
	return r.transition(ctx, id, enums.TransactionStatusSuccess, updates)
}

// MarkRefundRequested stamps the platform refund reference on a successful
// transaction before the gateway is called.
func (r *Repository) MarkRefundRequested(ctx context.Context, id uuid.UUID, refundRef string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusSuccess).
		Update("refund_id", refundRef).Error
}

func (r *Repository) SetReviewReason(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ?", id).
		Update("review_reason", reason).Error
}

func (r *Repository) transition(ctx context.Context, id uuid.UUID, from enums.TransactionStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.WithContext(ctx).Where(query, args...).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}
