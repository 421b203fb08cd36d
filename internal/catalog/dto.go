package catalog

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovieDTO struct {
	ID              uuid.UUID  `json:"id"`
	VendorID        *uuid.UUID `json:"vendorId,omitempty"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Description     string     `json:"description"`
	Language        string     `json:"language"`
	DurationMinutes int        `json:"durationMinutes"`
	AverageRating   float64    `json:"averageRating"`
	ReviewCount     int        `json:"reviewCount"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type ShowtimeDTO struct {
	ID             uuid.UUID            `json:"id"`
	MovieID        uuid.UUID            `json:"movieId"`
	ScreenName     string               `json:"screenName"`
	StartsAt       time.Time            `json:"startsAt"`
	SeatRows       int                  `json:"seatRows"`
	SeatCols       int                  `json:"seatCols"`
	TotalCapacity  int                  `json:"totalCapacity"`
	AvailableCount int                  `json:"availableCount"`
	BasePrice      decimal.Decimal      `json:"basePrice"`
	Currency       enums.Currency       `json:"currency"`
	Status         enums.ShowtimeStatus `json:"status"`
}

type VideoDTO struct {
	ID             uuid.UUID       `json:"id"`
	VendorID       *uuid.UUID      `json:"vendorId,omitempty"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	RentPrice      decimal.Decimal `json:"rentPrice"`
	BuyPrice       decimal.Decimal `json:"buyPrice"`
	Currency       enums.Currency  `json:"currency"`
	RentalHours    int             `json:"rentalHours"`
	AvailableFrom  *time.Time      `json:"availableFrom,omitempty"`
	AvailableUntil *time.Time      `json:"availableUntil,omitempty"`
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type MovieDetailDTO struct {
	Movie     MovieDTO      `json:"movie"`
	Showtimes []ShowtimeDTO `json:"showtimes"`
	Reviews   []ReviewDTO   `json:"reviews"`
}

type MovieListDTO struct {
	Movies     []MovieDTO `json:"movies"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

func ToMovieDTO(m *models.Movie) MovieDTO {
	return MovieDTO{
		ID:              m.ID,
		VendorID:        m.VendorID,
		Title:           m.Title,
		Slug:            m.Slug,
		Description:     m.Description,
		Language:        m.Language,
		DurationMinutes: m.DurationMinutes,
		AverageRating:   m.AverageRating,
		ReviewCount:     m.ReviewCount,
		CreatedAt:       m.CreatedAt,
	}
}

func ToShowtimeDTO(s *models.Showtime) ShowtimeDTO {
	return ShowtimeDTO{
		ID:             s.ID,
		MovieID:        s.MovieID,
		ScreenName:     s.ScreenName,
		StartsAt:       s.StartsAt,
		SeatRows:       s.SeatRows,
		SeatCols:       s.SeatCols,
		TotalCapacity:  s.TotalCapacity,
		AvailableCount: s.AvailableCount,
		BasePrice:      s.BasePrice,
		Currency:       s.Currency,
		Status:         s.Status,
	}
}

func ToVideoDTO(v *models.Video) VideoDTO {
	return VideoDTO{
		ID:             v.ID,
		VendorID:       v.VendorID,
		Title:          v.Title,
		Slug:           v.Slug,
		Description:    v.Description,
		RentPrice:      v.RentPrice,
		BuyPrice:       v.BuyPrice,
		Currency:       v.Currency,
		RentalHours:    v.RentalHours,
		AvailableFrom:  v.AvailableFrom,
		AvailableUntil: v.AvailableUntil,
	}
}

func ToReviewDTO(r *models.Review) ReviewDTO {
	return ReviewDTO{ID: r.ID, UserID: r.UserID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
}

func ToMovieDetailDTO(d *MovieDetail) MovieDetailDTO {
	out := MovieDetailDTO{
		Movie:     ToMovieDTO(&d.Movie),
		Showtimes: make([]ShowtimeDTO, 0, len(d.Showtimes)),
		Reviews:   make([]ReviewDTO, 0, len(d.Reviews)),
	}
	for i := range d.Showtimes {
		out.Showtimes = append(out.Showtimes, ToShowtimeDTO(&d.Showtimes[i]))
	}
	for i := range d.Reviews {
		out.Reviews = append(out.Reviews, ToReviewDTO(&d.Reviews[i]))
	}
	return out
}

func ToMovieListDTO(l *MovieList) MovieListDTO {
	out := MovieListDTO{Movies: make([]MovieDTO, 0, len(l.Items)), NextCursor: l.Cursor}
	for i := range l.Items {
		out.Movies = append(out.Movies, ToMovieDTO(&l.Items[i]))
	}
	return out
}
