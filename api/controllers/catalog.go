package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/api/middleware"
	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/api/validators"
	"github.com/angelmondragon/reelpass-backend/internal/catalog"
	"github.com/angelmondragon/reelpass-backend/internal/inventory"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
)

type CatalogService interface {
	ListMovies(ctx context.Context, params pagination.Params) (*catalog.MovieList, error)
	GetMovie(ctx context.Context, movieID uuid.UUID) (*catalog.MovieDetail, error)
	CreateMovie(ctx context.Context, actor pkgauth.Actor, input catalog.MovieInput) (*models.Movie, error)
	UpdateMovie(ctx context.Context, actor pkgauth.Actor, movieID uuid.UUID, input catalog.MovieUpdate) (*models.Movie, error)
	DeleteMovie(ctx context.Context, actor pkgauth.Actor, movieID uuid.UUID) error
	CreateShowtime(ctx context.Context, actor pkgauth.Actor, input catalog.ShowtimeInput) (*models.Showtime, error)
	CancelShowtime(ctx context.Context, actor pkgauth.Actor, showtimeID uuid.UUID) (*models.Showtime, error)
	CreateVideo(ctx context.Context, actor pkgauth.Actor, input catalog.VideoInput) (*models.Video, error)
	GetVideo(ctx context.Context, actor pkgauth.Actor, videoID uuid.UUID) (*models.Video, error)
	UpdateVideo(ctx context.Context, actor pkgauth.Actor, videoID uuid.UUID, input catalog.VideoUpdate) (*models.Video, error)
	DeleteVideo(ctx context.Context, actor pkgauth.Actor, videoID uuid.UUID) error
	AddReview(ctx context.Context, actor pkgauth.Actor, input catalog.ReviewInput) (*models.Review, error)
}

type SeatMapReader interface {
	Snapshot(ctx context.Context, showtimeID uuid.UUID) (*inventory.Availability, error)
}

type seatMapResponse struct {
	Showtime       catalog.ShowtimeDTO   `json:"showtime"`
	Seats          []inventory.SeatState `json:"seats"`
	TotalSeats     int                   `json:"totalSeats"`
	AvailableCount int                   `json:"availableCount"`
}

// ShowtimeSeats returns the seat map of a showtime with a taken flag per seat.
func ShowtimeSeats(ledger SeatMapReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			unavailable(w, r, logg, "inventory")
			return
		}
		showtimeID, err := validators.ParseUUIDParam(r, "showtimeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := ledger.Snapshot(r.Context(), showtimeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		seats := snapshot.Seats
		if seats == nil {
			seats = []inventory.SeatState{}
		}
		responses.WriteSuccess(w, seatMapResponse{
			Showtime:       catalog.ToShowtimeDTO(snapshot.Showtime),
			Seats:          seats,
			TotalSeats:     snapshot.TotalSeats,
			AvailableCount: snapshot.AvailableCount,
		})
	}
}

func ListMovies(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListMovies(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToMovieListDTO(list))
	}
}

func GetMovie(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		movieID, err := validators.ParseUUIDParam(r, "movieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetMovie(r.Context(), movieID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToMovieDetailDTO(detail))
	}
}

// GetVideo is public; a vendor token still unlocks its own unreleased videos.
func GetVideo(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		videoID, err := validators.ParseUUIDParam(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, _ := middleware.ActorFromContext(r.Context())
		video, err := svc.GetVideo(r.Context(), actor, videoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToVideoDTO(video))
	}
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

func AddReview(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		movieID, err := validators.ParseUUIDParam(r, "movieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload reviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		review, err := svc.AddReview(r.Context(), actor, catalog.ReviewInput{
			MovieID: movieID,
			Rating:  payload.Rating,
			Comment: validators.SanitizeString(payload.Comment, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.ToReviewDTO(review))
	}
}

type movieRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"omitempty,max=5000"`
	Language        string `json:"language" validate:"omitempty,max=40"`
	DurationMinutes int    `json:"durationMinutes" validate:"omitempty,min=1,max=600"`
}

func VendorCreateMovie(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		var payload movieRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movie, err := svc.CreateMovie(r.Context(), actor, catalog.MovieInput{
			Title:           validators.SanitizeString(payload.Title, 200),
			Description:     strings.TrimSpace(payload.Description),
			Language:        strings.TrimSpace(payload.Language),
			DurationMinutes: payload.DurationMinutes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.ToMovieDTO(movie))
	}
}

type movieUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	Language        *string `json:"language" validate:"omitempty,max=40"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,min=1,max=600"`
}

func VendorUpdateMovie(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		movieID, err := validators.ParseUUIDParam(r, "movieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload movieUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		movie, err := svc.UpdateMovie(r.Context(), actor, movieID, catalog.MovieUpdate{
			Title:           payload.Title,
			Description:     payload.Description,
			Language:        payload.Language,
			DurationMinutes: payload.DurationMinutes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToMovieDTO(movie))
	}
}

func VendorDeleteMovie(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		movieID, err := validators.ParseUUIDParam(r, "movieId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteMovie(r.Context(), actor, movieID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

type showtimeRequest struct {
	MovieID    uuid.UUID       `json:"movieId" validate:"required"`
	ScreenName string          `json:"screenName" validate:"required,max=80"`
	StartsAt   time.Time       `json:"startsAt" validate:"required"`
	SeatRows   int             `json:"seatRows" validate:"required,min=1,max=26"`
	SeatCols   int             `json:"seatCols" validate:"required,min=1,max=100"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	Currency   string          `json:"currency" validate:"omitempty,len=3"`
}

func VendorCreateShowtime(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		var payload showtimeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := parseOptionalCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		showtime, err := svc.CreateShowtime(r.Context(), actor, catalog.ShowtimeInput{
			MovieID:    payload.MovieID,
			ScreenName: strings.TrimSpace(payload.ScreenName),
			StartsAt:   payload.StartsAt,
			SeatRows:   payload.SeatRows,
			SeatCols:   payload.SeatCols,
			BasePrice:  payload.BasePrice,
			Currency:   currency,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.ToShowtimeDTO(showtime))
	}
}

func VendorCancelShowtime(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		showtimeID, err := validators.ParseUUIDParam(r, "showtimeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		showtime, err := svc.CancelShowtime(r.Context(), actor, showtimeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToShowtimeDTO(showtime))
	}
}

type videoRequest struct {
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description" validate:"omitempty,max=5000"`
	RentPrice      decimal.Decimal `json:"rentPrice"`
	BuyPrice       decimal.Decimal `json:"buyPrice"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	RentalHours    int             `json:"rentalHours" validate:"omitempty,min=1,max=720"`
	AvailableFrom  *time.Time      `json:"availableFrom"`
	AvailableUntil *time.Time      `json:"availableUntil"`
}

func VendorCreateVideo(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		var payload videoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := parseOptionalCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := svc.CreateVideo(r.Context(), actor, catalog.VideoInput{
			Title:          validators.SanitizeString(payload.Title, 200),
			Description:    strings.TrimSpace(payload.Description),
			RentPrice:      payload.RentPrice,
			BuyPrice:       payload.BuyPrice,
			Currency:       currency,
			RentalHours:    payload.RentalHours,
			AvailableFrom:  payload.AvailableFrom,
			AvailableUntil: payload.AvailableUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.ToVideoDTO(video))
	}
}

type videoUpdateRequest struct {
	Title          *string          `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description" validate:"omitempty,max=5000"`
	RentPrice      *decimal.Decimal `json:"rentPrice"`
	BuyPrice       *decimal.Decimal `json:"buyPrice"`
	RentalHours    *int             `json:"rentalHours" validate:"omitempty,min=1,max=720"`
	AvailableUntil *time.Time       `json:"availableUntil"`
}

func VendorUpdateVideo(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		videoID, err := validators.ParseUUIDParam(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload videoUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		video, err := svc.UpdateVideo(r.Context(), actor, videoID, catalog.VideoUpdate{
			Title:          payload.Title,
			Description:    payload.Description,
			RentPrice:      payload.RentPrice,
			BuyPrice:       payload.BuyPrice,
			RentalHours:    payload.RentalHours,
			AvailableUntil: payload.AvailableUntil,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, catalog.ToVideoDTO(video))
	}
}

func VendorDeleteVideo(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "catalog service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		videoID, err := validators.ParseUUIDParam(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteVideo(r.Context(), actor, videoID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true})
	}
}

func parseOptionalCurrency(raw string) (enums.Currency, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return "", nil
	}
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	return currency, nil
}
