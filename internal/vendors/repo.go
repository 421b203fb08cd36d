package vendors

import (
	"context"
	"errors"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

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

func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repository) ListByStatus(ctx context.Context, status enums.VendorStatus, limit int) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateBankDetails(ctx context.Context, id uuid.UUID, bank BankDetails) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"bank_account_holder": bank.AccountHolder,
			"bank_account_number": bank.AccountNumber,
			"bank_ifsc":           bank.IFSC,
			"bank_name":           bank.BankName,
		}).Error
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// DeletePayees drops cached provider beneficiaries so the next payout
// registers the new account.
func (r *Repository) DeletePayees(ctx context.Context, vendorID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.VendorPayee{}, "vendor_id = ?", vendorID).Error
}

// Review moves a pending application to approved or rejected.
func (r *Repository) Review(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ? AND status = ?", id, enums.VendorStatusPending).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) transitionFee(ctx context.Context, id uuid.UUID, from enums.PaymentStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ? AND fee_payment_status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) SetFeeReviewReason(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Update("fee_review_reason", reason).Error
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where(query, args...).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

