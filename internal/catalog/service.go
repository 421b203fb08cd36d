package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultRentalHours = 48
	maxSlugAttempts    = 3
	maxCapacity        = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type MovieInput struct {
	Title           string
	Description     string
	Language        string
	DurationMinutes int
}

type MovieUpdate struct {
	Title           *string
	Description     *string
	Language        *string
	DurationMinutes *int
}

type ShowtimeInput struct {
	MovieID    uuid.UUID
	ScreenName string
	StartsAt   time.Time
	SeatRows   int
	SeatCols   int
	BasePrice  decimal.Decimal
	Currency   enums.Currency
}

// VideoUpdate changes the listing of a video. Nil fields are left alone.
type VideoUpdate struct {
	Title          *string
	Description    *string
	RentPrice      *decimal.Decimal
	BuyPrice       *decimal.Decimal
	RentalHours    *int
	AvailableUntil *time.Time
}

type VideoInput struct {
	Title          string
	Description    string
	RentPrice      decimal.Decimal
	BuyPrice       decimal.Decimal
	Currency       enums.Currency
	RentalHours    int
	AvailableFrom  *time.Time
	AvailableUntil *time.Time
}

type ReviewInput struct {
	MovieID uuid.UUID
	Rating  int
	Comment string
}

type MovieDetail struct {
	Movie     models.Movie
	Showtimes []models.Showtime
	Reviews   []models.Review
}

type MovieList struct {
	Items  []models.Movie
	Cursor string
}

type ServiceParams struct {
	Logger *logger.Logger
	DB     txRunner
	Repo   *Repository
}

// Service manages the sellable catalog. Vendors manage their own items and
// admins manage everything.
type Service struct {
	logg *logger.Logger
	db   txRunner
	repo *Repository
	now  func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Service{logg: params.Logger, db: params.DB, repo: params.Repo, now: time.Now}, nil
}

func (s *Service) CreateMovie(ctx context.Context, actor auth.Actor, input MovieInput) (*models.Movie, error) {
	if err := requireCurator(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.DurationMinutes < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration cannot be negative")
	}
	movie := &models.Movie{
		ID:              uuid.New(),
		VendorID:        ownerOf(actor),
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Language:        strings.TrimSpace(input.Language),
		DurationMinutes: input.DurationMinutes,
	}
	err := s.insertWithSlug(ctx, title, func(candidate string) error {
		movie.Slug = candidate
		return s.repo.CreateMovie(ctx, movie)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "movie_id", movie.ID.String()), "movie created")
	return movie, nil
}

func (s *Service) UpdateMovie(ctx context.Context, actor auth.Actor, movieID uuid.UUID, input MovieUpdate) (*models.Movie, error) {
	movie, err := s.repo.FindMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsVendor(movie.VendorID) {
		return nil, ErrForbidden
	}
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Language != nil {
		updates["language"] = strings.TrimSpace(*input.Language)
	}
	if input.DurationMinutes != nil {
		if *input.DurationMinutes < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration cannot be negative")
		}
		updates["duration_minutes"] = *input.DurationMinutes
	}
	if len(updates) == 0 {
		return movie, nil
	}
	if err := s.repo.UpdateMovie(ctx, movieID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update movie")
	}
	return s.repo.FindMovie(ctx, movieID)
}

func (s *Service) DeleteMovie(ctx context.Context, actor auth.Actor, movieID uuid.UUID) error {
	movie, err := s.repo.FindMovie(ctx, movieID)
	if err != nil {
		return err
	}
	if !actor.OwnsVendor(movie.VendorID) {
		return ErrForbidden
	}
	if err := s.repo.DeleteMovie(ctx, movieID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete movie")
	}
	return nil
}

// GetMovie returns the movie with its upcoming showtimes and reviews.
func (s *Service) GetMovie(ctx context.Context, movieID uuid.UUID) (*MovieDetail, error) {
	movie, err := s.repo.FindMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	showtimes, err := s.repo.ListUpcomingShowtimes(ctx, movieID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list showtimes")
	}
	reviews, err := s.repo.ListReviews(ctx, movieID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return &MovieDetail{Movie: *movie, Showtimes: showtimes, Reviews: reviews}, nil
}

func (s *Service) ListMovies(ctx context.Context, params pagination.Params) (*MovieList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListMovies(ctx, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movies")
	}
	result := &MovieList{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// CreateShowtime schedules a screening with every seat of its grid available.
func (s *Service) CreateShowtime(ctx context.Context, actor auth.Actor, input ShowtimeInput) (*models.Showtime, error) {
	if err := requireCurator(actor); err != nil {
		return nil, err
	}
	movie, err := s.repo.FindMovie(ctx, input.MovieID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsVendor(movie.VendorID) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(input.ScreenName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "screen name is required")
	}
	if input.SeatRows <= 0 || input.SeatCols <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seat rows and columns must be positive")
	}
	if input.SeatRows*input.SeatCols > maxCapacity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d seats per showtime", maxCapacity)
	}
	if !input.StartsAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "showtime must start in the future")
	}
	if !input.BasePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive")
	}
	currency, err := currencyOrDefault(input.Currency)
	if err != nil {
		return nil, err
	}

	capacity := input.SeatRows * input.SeatCols
	showtime := &models.Showtime{
		ID:             uuid.New(),
		MovieID:        movie.ID,
		VendorID:       movie.VendorID,
		ScreenName:     strings.TrimSpace(input.ScreenName),
		StartsAt:       input.StartsAt.UTC(),
		SeatRows:       input.SeatRows,
		SeatCols:       input.SeatCols,
		TotalCapacity:  capacity,
		AvailableCount: capacity,
		BasePrice:      input.BasePrice.Round(2),
		Currency:       currency,
		Status:         enums.ShowtimeStatusActive,
	}
	if err := s.repo.CreateShowtime(ctx, showtime); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert showtime")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"showtime_id": showtime.ID.String(),
		"movie_id":    movie.ID.String(),
		"capacity":    capacity,
	}), "showtime created")
	return showtime, nil
}

// CancelShowtime stops new bookings; existing bookings are refunded
// individually.
func (s *Service) CancelShowtime(ctx context.Context, actor auth.Actor, showtimeID uuid.UUID) (*models.Showtime, error) {
	showtime, err := s.repo.FindShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsVendor(showtime.VendorID) {
		return nil, ErrForbidden
	}
	if err := s.repo.UpdateShowtime(ctx, showtimeID, map[string]any{"status": enums.ShowtimeStatusCancelled}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel showtime")
	}
	showtime.Status = enums.ShowtimeStatusCancelled
	return showtime, nil
}

func (s *Service) CreateVideo(ctx context.Context, actor auth.Actor, input VideoInput) (*models.Video, error) {
	if err := requireCurator(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.RentPrice.IsPositive() || !input.BuyPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rent and buy prices must be positive")
	}
	if input.AvailableFrom != nil && input.AvailableUntil != nil && !input.AvailableUntil.After(*input.AvailableFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "availability window is empty")
	}
	currency, err := currencyOrDefault(input.Currency)
	if err != nil {
		return nil, err
	}
	hours := input.RentalHours
	if hours == 0 {
		hours = defaultRentalHours
	}
	if hours < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental hours must be positive")
	}

	video := &models.Video{
		ID:             uuid.New(),
		VendorID:       ownerOf(actor),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		RentPrice:      input.RentPrice.Round(2),
		BuyPrice:       input.BuyPrice.Round(2),
		Currency:       currency,
		RentalHours:    hours,
		AvailableFrom:  utcPtr(input.AvailableFrom),
		AvailableUntil: utcPtr(input.AvailableUntil),
	}
	err = s.insertWithSlug(ctx, title, func(candidate string) error {
		video.Slug = candidate
		return s.repo.CreateVideo(ctx, video)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "video_id", video.ID.String()), "video created")
	return video, nil
}

// GetVideo hides videos outside their availability window from everyone but
// the owner and admins.
func (s *Service) GetVideo(ctx context.Context, actor auth.Actor, videoID uuid.UUID) (*models.Video, error) {
	video, err := s.repo.FindVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !Available(video, s.now()) && !actor.OwnsVendor(video.VendorID) {
		return nil, ErrVideoNotFound
	}
	return video, nil
}

func (s *Service) UpdateVideo(ctx context.Context, actor auth.Actor, videoID uuid.UUID, input VideoUpdate) (*models.Video, error) {
	video, err := s.repo.FindVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsVendor(video.VendorID) {
		return nil, ErrForbidden
	}
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	for column, price := range map[string]*decimal.Decimal{"rent_price": input.RentPrice, "buy_price": input.BuyPrice} {
		if price == nil {
			continue
		}
		if !price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rent and buy prices must be positive")
		}
		updates[column] = price.Round(2)
	}
	if input.RentalHours != nil {
		if *input.RentalHours <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental hours must be positive")
		}
		updates["rental_hours"] = *input.RentalHours
	}
	if input.AvailableUntil != nil {
		until := input.AvailableUntil.UTC()
		if video.AvailableFrom != nil && !until.After(*video.AvailableFrom) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "availability window is empty")
		}
		updates["available_until"] = until
	}
	if len(updates) == 0 {
		return video, nil
	}
	if err := s.repo.UpdateVideo(ctx, videoID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update video")
	}
	return s.repo.FindVideo(ctx, videoID)
}

func (s *Service) DeleteVideo(ctx context.Context, actor auth.Actor, videoID uuid.UUID) error {
	video, err := s.repo.FindVideo(ctx, videoID)
	if err != nil {
		return err
	}
	if !actor.OwnsVendor(video.VendorID) {
		return ErrForbidden
	}
	if err := s.repo.DeleteVideo(ctx, videoID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete video")
	}
	return nil
}

// AddReview stores one review per user and movie, then refreshes the
// movie's aggregate rating in the same transaction.
func (s *Service) AddReview(ctx context.Context, actor auth.Actor, input ReviewInput) (*models.Review, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to review")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	review := &models.Review{
		ID:      uuid.New(),
		MovieID: input.MovieID,
		UserID:  actor.UserID,
		Rating:  input.Rating,
		Comment: strings.TrimSpace(input.Comment),
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindMovie(ctx, input.MovieID); err != nil {
			return err
		}
		if err := repo.CreateReview(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "") {
				return ErrAlreadyReviewed
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
		}
		reviews, err := repo.ListReviews(ctx, input.MovieID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
		}
		return repo.UpdateMovie(ctx, input.MovieID, map[string]any{
			"average_rating": RecomputeAverageRating(reviews),
			"review_count":   len(reviews),
		})
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Available reports whether the video is inside its sale window.
func Available(video *models.Video, now time.Time) bool {
	if video.AvailableFrom != nil && now.Before(*video.AvailableFrom) {
		return false
	}
	if video.AvailableUntil != nil && !now.Before(*video.AvailableUntil) {
		return false
	}
	return true
}

// insertWithSlug tries the plain slug first and then suffixed variants.
func (s *Service) insertWithSlug(ctx context.Context, title string, insert func(candidate string) error) error {
	base := slug.Make(title)
	if base == "" {
		base = "untitled"
	}
	candidate := base
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		err := insert(candidate)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "slug") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert catalog item")
		}
		candidate = base + "-" + strings.ToLower(uuid.NewString()[:6])
	}
	return ErrSlugTaken
}

func requireCurator(actor auth.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == enums.RoleVendor && actor.VendorID != nil {
		return nil
	}
	return ErrForbidden
}

// ownerOf leaves admin-created items unowned.
func ownerOf(actor auth.Actor) *uuid.UUID {
	if actor.IsAdmin() || actor.VendorID == nil {
		return nil
	}
	id := *actor.VendorID
	return &id
}

func currencyOrDefault(currency enums.Currency) (enums.Currency, error) {
	if currency == "" {
		return enums.CurrencyINR, nil
	}
	if !currency.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	return currency, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
