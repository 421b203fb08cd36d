package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists bookings.
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

func (r *Repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

type listParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

func (r *Repository) ListByUser(ctx context.Context, params listParams) ([]models.Booking, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Booking{}).Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Booking
	if err := query.Order("created_at DESC, id DESC").Limit(normalized + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		last := rows[normalized-1]
		return rows[:normalized], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// FindStaleHolds lists unpaid holds whose deadline has passed.
func (r *Repository) FindStaleHolds(ctx context.Context, now time.Time, limit int) ([]models.Booking, error) {
	var rows []models.Booking
	query := r.db.WithContext(ctx).
		Where("payment_status = ? AND booking_status = ? AND expires_at <= ?",
			enums.PaymentStatusPending, enums.BookingStatusConfirmed, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// updatePendingHold applies updates only while the booking is an unpaid,
// confirmed hold and reports the affected row count.
func (r *Repository) updatePendingHold(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND payment_status = ? AND booking_status = ?",
			id, enums.PaymentStatusPending, enums.BookingStatusConfirmed).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// ExpireHold flips a lapsed hold to expired/failed.
func (r *Repository) ExpireHold(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND payment_status = ? AND booking_status = ? AND expires_at <= ?",
			id, enums.PaymentStatusPending, enums.BookingStatusConfirmed, now).
		Updates(map[string]any{
			"booking_status": enums.BookingStatusExpired,
			"payment_status": enums.PaymentStatusFailed,
		})
	return res.RowsAffected, res.Error
}

// Cancel moves a confirmed booking to cancelled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND booking_status = ?", id, enums.BookingStatusConfirmed).
		Updates(map[string]any{
			"booking_status": enums.BookingStatusCancelled,
			"cancelled_at":   now,
		})
	return res.RowsAffected, res.Error
}

// MarkRefunded moves a paid booking to refunded.
func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusCompleted).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusRefunded,
			"refunded_at":    now,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) SetReviewReason(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("review_reason", reason).Error
}
