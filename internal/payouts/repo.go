package payouts

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
	"gorm.io/gorm/clause"
)

// Repository persists withdrawals and the cached provider payees.
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

// LockVendor serializes withdrawal requests of one vendor.
func (r *Repository) LockVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&vendor, "id = ?", vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *Repository) FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).First(&vendor, "id = ?", vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVendorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *Repository) Create(ctx context.Context, withdrawal *models.VendorWithdrawal) error {
	return r.db.WithContext(ctx).Create(withdrawal).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorWithdrawal, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) FindByTransferID(ctx context.Context, transferID string) (*models.VendorWithdrawal, error) {
	return r.first(ctx, "transfer_id = ?", transferID)
}

// ListProcessing returns the oldest withdrawals still waiting on a provider.
func (r *Repository) ListProcessing(ctx context.Context, limit int) ([]models.VendorWithdrawal, error) {
	var rows []models.VendorWithdrawal
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.WithdrawalStatusProcessing).
		Order("requested_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, limit int) ([]models.VendorWithdrawal, error) {
	var rows []models.VendorWithdrawal
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("requested_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Claim moves a withdrawal into processing. Pending withdrawals and failed
// ones that still hold their funds are claimable; the row count tells the
// caller whether it won.
func (r *Repository) Claim(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorWithdrawal{}).
		Where("id = ?", id).
		Where("status = ? OR (status = ? AND hold_released = ?)",
			enums.WithdrawalStatusPending, enums.WithdrawalStatusFailed, false).
		Updates(map[string]any{
			"status":         enums.WithdrawalStatusProcessing,
			"failure_reason": nil,
		})
	return res.RowsAffected, res.Error
}

// MarkPayeeReady records step one so a retry does not repeat it.
func (r *Repository) MarkPayeeReady(ctx context.Context, id uuid.UUID, payeeID string) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorWithdrawal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payee_id":    payeeID,
			"payee_stage": enums.PayeeStageReady,
		}).Error
}

// MarkSubmitted stores the provider's view of an accepted transfer.
func (r *Repository) MarkSubmitted(ctx context.Context, id uuid.UUID, providerRef string, raw json.RawMessage) error {
	updates := map[string]any{}
	if providerRef != "" {
		updates["provider_ref"] = providerRef
	}
	if len(raw) > 0 {
		updates["provider_response"] = dbtypes.RawJSON(raw)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.VendorWithdrawal{}).
		Where("id = ? AND status = ?", id, enums.WithdrawalStatusProcessing).
		Updates(updates).Error
}

// Settle moves a processing withdrawal to a terminal status.
func (r *Repository) Settle(ctx context.Context, id uuid.UUID, status enums.WithdrawalStatus, reason string, raw json.RawMessage, holdReleased bool, now time.Time) (int64, error) {
	updates := map[string]any{
		"status":        status,
		"processed_at":  now,
		"hold_released": holdReleased,
	}
	if reason != "" {
		updates["failure_reason"] = reason
	}
	if len(raw) > 0 {
		updates["provider_response"] = dbtypes.RawJSON(raw)
	}
	res := r.db.WithContext(ctx).
		Model(&models.VendorWithdrawal{}).
		Where("id = ? AND status = ?", id, enums.WithdrawalStatusProcessing).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ReleaseFailed marks a failed withdrawal's funds as returned to the balance.
func (r *Repository) ReleaseFailed(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorWithdrawal{}).
		Where("id = ? AND status = ? AND hold_released = ?", id, enums.WithdrawalStatusFailed, false).
		Update("hold_released", true)
	return res.RowsAffected, res.Error
}

func (r *Repository) FindPayee(ctx context.Context, vendorID uuid.UUID, provider enums.PayoutProvider) (*models.VendorPayee, error) {
	var payee models.VendorPayee
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND provider = ?", vendorID, provider).
		First(&payee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payee, nil
}

func (r *Repository) SavePayee(ctx context.Context, payee *models.VendorPayee) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"payee_ref", "payee_id"}),
		}).
		Create(payee).Error
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.VendorWithdrawal, error) {
	var withdrawal models.VendorWithdrawal
	if err := r.db.WithContext(ctx).Where(query, args...).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}
