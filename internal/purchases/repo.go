package purchases

import (
	"context"
	"errors"
	"time"

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

func (r *Repository) Create(ctx context.Context, purchase *models.VideoPurchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VideoPurchase, error) {
	var purchase models.VideoPurchase
	err := r.db.WithContext(ctx).First(&purchase, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *Repository) FindVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// FindActive returns the user's live purchase of a video: an unexpired
// pending hold or a paid purchase whose access has not lapsed.
func (r *Repository) FindActive(ctx context.Context, userID, videoID uuid.UUID, now time.Time) (*models.VideoPurchase, error) {
	var purchase models.VideoPurchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Where("(payment_status = ? AND expires_at > ?) OR (payment_status = ? AND (access_expires_at IS NULL OR access_expires_at > ?))",
			enums.PaymentStatusPending, now, enums.PaymentStatusCompleted, now).
		Order("created_at DESC").
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// LatestPaid returns the most recent completed purchase, expired or not.
func (r *Repository) LatestPaid(ctx context.Context, userID, videoID uuid.UUID) (*models.VideoPurchase, error) {
	var purchase models.VideoPurchase
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND video_id = ? AND payment_status = ?", userID, videoID, enums.PaymentStatusCompleted).
		Order("completed_at DESC").
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *Repository) FindStale(ctx context.Context, now time.Time, limit int) ([]models.VideoPurchase, error) {
	var rows []models.VideoPurchase
	query := r.db.WithContext(ctx).
		Where("payment_status = ? AND expires_at <= ?", enums.PaymentStatusPending, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.VideoPurchase, error) {
	var rows []models.VideoPurchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// transition applies updates only while the purchase is in the given status.
func (r *Repository) transition(ctx context.Context, id uuid.UUID, from enums.PaymentStatus, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VideoPurchase{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *Repository) SetReviewReason(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.VideoPurchase{}).
		Where("id = ?", id).
		Update("review_reason", reason).Error
}
