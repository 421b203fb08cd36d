package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists showtime capacity and held seats.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a gorm handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindShowtime loads a showtime without locking.
func (r *Repository) FindShowtime(ctx context.Context, id uuid.UUID) (*models.Showtime, error) {
	var showtime models.Showtime
	if err := r.db.WithContext(ctx).First(&showtime, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &showtime, nil
}

// LockShowtime loads a showtime with SELECT ... FOR UPDATE. Dialects without
// row locks ignore the clause.
func (r *Repository) LockShowtime(ctx context.Context, id uuid.UUID) (*models.Showtime, error) {
	var showtime models.Showtime
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&showtime, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &showtime, nil
}

// TakenSeats returns which of the given seats already have a row.
func (r *Repository) TakenSeats(ctx context.Context, showtimeID uuid.UUID, seatIDs []string) ([]string, error) {
	var taken []string
	err := r.db.WithContext(ctx).
		Model(&models.ShowtimeSeat{}).
		Where("showtime_id = ? AND seat_id IN ?", showtimeID, seatIDs).
		Order("seat_id ASC").
		Pluck("seat_id", &taken).Error
	return taken, err
}

// ListSeats returns every held seat for the showtime.
func (r *Repository) ListSeats(ctx context.Context, showtimeID uuid.UUID) ([]models.ShowtimeSeat, error) {
	var seats []models.ShowtimeSeat
	err := r.db.WithContext(ctx).
		Where("showtime_id = ?", showtimeID).
		Order("seat_id ASC").
		Find(&seats).Error
	return seats, err
}

// InsertSeats writes held seat rows.
func (r *Repository) InsertSeats(ctx context.Context, showtimeID, bookingID uuid.UUID, seatIDs []string, heldAt time.Time) error {
	rows := make([]models.ShowtimeSeat, 0, len(seatIDs))
	for _, seat := range seatIDs {
		rows = append(rows, models.ShowtimeSeat{
			ID:         uuid.New(),
			ShowtimeID: showtimeID,
			SeatID:     seat,
			BookingID:  bookingID,
			HeldAt:     heldAt,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// DeleteSeats removes the given seats held by bookingID and reports how many
// rows were deleted.
func (r *Repository) DeleteSeats(ctx context.Context, showtimeID, bookingID uuid.UUID, seatIDs []string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("showtime_id = ? AND booking_id = ? AND seat_id IN ?", showtimeID, bookingID, seatIDs).
		Delete(&models.ShowtimeSeat{})
	return res.RowsAffected, res.Error
}

// DecrementAvailable subtracts n from available_count only when enough seats
// remain, flipping an active showtime to sold_out at zero.
func (r *Repository) DecrementAvailable(ctx context.Context, showtimeID uuid.UUID, n int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Showtime{}).
		Where("id = ? AND available_count >= ?", showtimeID, n).
		Updates(map[string]any{
			"available_count": gorm.Expr("available_count - ?", n),
			"status": gorm.Expr(
				"CASE WHEN available_count - ? <= 0 AND status = ? THEN ? ELSE status END",
				n, enums.ShowtimeStatusActive.String(), enums.ShowtimeStatusSoldOut.String(),
			),
		})
	return res.RowsAffected, res.Error
}

// IncrementAvailable adds n back, capped by total_capacity, and reopens a
// sold_out showtime.
func (r *Repository) IncrementAvailable(ctx context.Context, showtimeID uuid.UUID, n int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Showtime{}).
		Where("id = ? AND available_count + ? <= total_capacity", showtimeID, n).
		Updates(map[string]any{
			"available_count": gorm.Expr("available_count + ?", n),
			"status": gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE status END",
				enums.ShowtimeStatusSoldOut.String(), enums.ShowtimeStatusActive.String(),
			),
		})
	return res.RowsAffected, res.Error
}
