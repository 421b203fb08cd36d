package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository stores movies, showtimes, videos and reviews.
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

func (r *Repository) CreateMovie(ctx context.Context, movie *models.Movie) error {
	return r.db.WithContext(ctx).Create(movie).Error
}

func (r *Repository) FindMovie(ctx context.Context, id uuid.UUID) (*models.Movie, error) {
	var movie models.Movie
	err := r.db.WithContext(ctx).First(&movie, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *Repository) ListMovies(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Movie, *pagination.Cursor, error) {
	var rows []models.Movie
	err := r.db.WithContext(ctx).
		Model(&models.Movie{}).
		Scopes(pagination.Keyset(cursor, limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(rows, limit, func(m models.Movie) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	return page, next, nil
}

func (r *Repository) UpdateMovie(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Movie{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) DeleteMovie(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Movie{}, "id = ?", id).Error
}

func (r *Repository) CreateShowtime(ctx context.Context, showtime *models.Showtime) error {
	return r.db.WithContext(ctx).Create(showtime).Error
}

func (r *Repository) FindShowtime(ctx context.Context, id uuid.UUID) (*models.Showtime, error) {
	var showtime models.Showtime
	err := r.db.WithContext(ctx).First(&showtime, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &showtime, nil
}

// ListUpcomingShowtimes returns a movie's screenings that have not started.
func (r *Repository) ListUpcomingShowtimes(ctx context.Context, movieID uuid.UUID, now time.Time) ([]models.Showtime, error) {
	var rows []models.Showtime
	err := r.db.WithContext(ctx).
		Where("movie_id = ? AND starts_at > ?", movieID, now).
		Order("starts_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) UpdateShowtime(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Showtime{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *Repository) FindVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *Repository) UpdateVideo(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Video{}, "id = ?", id).Error
}

func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) ListReviews(ctx context.Context, movieID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
