package catalog

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/dbtest"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:     db.NewFromConn(conn),
		Repo:   NewRepository(conn),
	})
	require.NoError(t, err)
	return svc, conn
}

func vendorActor() auth.Actor {
	vendorID := uuid.New()
	return auth.Actor{UserID: vendorID, VendorID: &vendorID, Role: enums.RoleVendor}
}

func TestRecomputeAverageRating(t *testing.T) {
	cases := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"empty", nil, 0},
		{"single", []int{4}, 4},
		{"rounds down", []int{4, 4, 5}, 4.3},
		{"rounds half up", []int{1, 2, 2, 2}, 1.8},
		{"mixed", []int{5, 3}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]models.Review, 0, len(tc.ratings))
			for _, rating := range tc.ratings {
				reviews = append(reviews, models.Review{Rating: rating})
			}
			assert.Equal(t, tc.want, RecomputeAverageRating(reviews))
		})
	}
}

func TestCreateMovieSlugsAndOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	vendor := vendorActor()

	first, err := svc.CreateMovie(ctx, vendor, MovieInput{Title: "  The Long Night! ", DurationMinutes: 120})
	require.NoError(t, err)
	assert.Equal(t, "the-long-night", first.Slug)
	assert.Equal(t, "The Long Night!", first.Title)
	require.NotNil(t, first.VendorID)
	assert.Equal(t, *vendor.VendorID, *first.VendorID)

	second, err := svc.CreateMovie(ctx, vendor, MovieInput{Title: "The Long Night"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Contains(t, second.Slug, "the-long-night-")

	admin := auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
	adminMovie, err := svc.CreateMovie(ctx, admin, MovieInput{Title: "House Feature"})
	require.NoError(t, err)
	assert.Nil(t, adminMovie.VendorID)

	_, err = svc.CreateMovie(ctx, auth.Actor{UserID: uuid.New(), Role: enums.RoleUser}, MovieInput{Title: "Nope"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateMovie(ctx, vendor, MovieInput{Title: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateMovieRequiresOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := vendorActor()
	movie, err := svc.CreateMovie(ctx, owner, MovieInput{Title: "Monsoon"})
	require.NoError(t, err)

	title := "Someone Else's"
	_, err = svc.UpdateMovie(ctx, vendorActor(), movie.ID, MovieUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	language := "hi"
	updated, err := svc.UpdateMovie(ctx, owner, movie.ID, MovieUpdate{Language: &language})
	require.NoError(t, err)
	assert.Equal(t, "hi", updated.Language)
	assert.Equal(t, "monsoon", updated.Slug)

	require.NoError(t, svc.DeleteMovie(ctx, owner, movie.ID))
	_, err = svc.GetMovie(ctx, movie.ID)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestCreateShowtimeStartsFullyAvailable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := vendorActor()
	movie, err := svc.CreateMovie(ctx, owner, MovieInput{Title: "Dunes"})
	require.NoError(t, err)

	showtime, err := svc.CreateShowtime(ctx, owner, ShowtimeInput{
		MovieID:    movie.ID,
		ScreenName: "Audi 1",
		StartsAt:   time.Now().Add(24 * time.Hour),
		SeatRows:   5,
		SeatCols:   8,
		BasePrice:  decimal.RequireFromString("249.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, showtime.TotalCapacity)
	assert.Equal(t, 40, showtime.AvailableCount)
	assert.Equal(t, enums.ShowtimeStatusActive, showtime.Status)
	assert.Equal(t, enums.CurrencyINR, showtime.Currency)
	assert.Equal(t, movie.VendorID, showtime.VendorID)

	detail, err := svc.GetMovie(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, detail.Showtimes, 1)
	assert.Equal(t, showtime.ID, detail.Showtimes[0].ID)

	cancelled, err := svc.CancelShowtime(ctx, owner, showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShowtimeStatusCancelled, cancelled.Status)
}

func TestCreateShowtimeValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := vendorActor()
	movie, err := svc.CreateMovie(ctx, owner, MovieInput{Title: "Tides"})
	require.NoError(t, err)

	base := ShowtimeInput{
		MovieID:    movie.ID,
		ScreenName: "Audi 2",
		StartsAt:   time.Now().Add(time.Hour),
		SeatRows:   2,
		SeatCols:   2,
		BasePrice:  decimal.NewFromInt(100),
	}

	past := base
	past.StartsAt = time.Now().Add(-time.Minute)
	_, err = svc.CreateShowtime(ctx, owner, past)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	empty := base
	empty.SeatCols = 0
	_, err = svc.CreateShowtime(ctx, owner, empty)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	free := base
	free.BasePrice = decimal.Zero
	_, err = svc.CreateShowtime(ctx, owner, free)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateShowtime(ctx, vendorActor(), base)
	assert.ErrorIs(t, err, ErrForbidden)

	missing := base
	missing.MovieID = uuid.New()
	_, err = svc.CreateShowtime(ctx, owner, missing)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestAddReviewRecomputesRating(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	movie, err := svc.CreateMovie(ctx, vendorActor(), MovieInput{Title: "Echoes"})
	require.NoError(t, err)

	ratings := []int{5, 4, 4}
	for _, rating := range ratings {
		reviewer := auth.Actor{UserID: uuid.New(), Role: enums.RoleUser}
		_, err := svc.AddReview(ctx, reviewer, ReviewInput{MovieID: movie.ID, Rating: rating, Comment: "ok"})
		require.NoError(t, err)
	}

	var stored models.Movie
	require.NoError(t, conn.First(&stored, "id = ?", movie.ID).Error)
	assert.Equal(t, 4.3, stored.AverageRating)
	assert.Equal(t, 3, stored.ReviewCount)
}

func TestAddReviewOncePerUser(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	movie, err := svc.CreateMovie(ctx, vendorActor(), MovieInput{Title: "Static"})
	require.NoError(t, err)
	reviewer := auth.Actor{UserID: uuid.New(), Role: enums.RoleUser}

	_, err = svc.AddReview(ctx, reviewer, ReviewInput{MovieID: movie.ID, Rating: 2})
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, reviewer, ReviewInput{MovieID: movie.ID, Rating: 5})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	var stored models.Movie
	require.NoError(t, conn.First(&stored, "id = ?", movie.ID).Error)
	assert.Equal(t, 2.0, stored.AverageRating)
	assert.Equal(t, 1, stored.ReviewCount)

	_, err = svc.AddReview(ctx, reviewer, ReviewInput{MovieID: movie.ID, Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.AddReview(ctx, reviewer, ReviewInput{MovieID: uuid.New(), Rating: 3})
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestVideoAvailabilityWindow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := vendorActor()
	from := time.Now().Add(48 * time.Hour)

	video, err := svc.CreateVideo(ctx, owner, VideoInput{
		Title:         "Premiere",
		RentPrice:     decimal.NewFromInt(99),
		BuyPrice:      decimal.NewFromInt(399),
		AvailableFrom: &from,
	})
	require.NoError(t, err)
	assert.Equal(t, defaultRentalHours, video.RentalHours)

	stranger := auth.Actor{UserID: uuid.New(), Role: enums.RoleUser}
	_, err = svc.GetVideo(ctx, stranger, video.ID)
	assert.ErrorIs(t, err, ErrVideoNotFound)

	got, err := svc.GetVideo(ctx, owner, video.ID)
	require.NoError(t, err)
	assert.Equal(t, video.ID, got.ID)

	until := from.Add(-time.Hour)
	_, err = svc.CreateVideo(ctx, owner, VideoInput{
		Title:          "Backwards",
		RentPrice:      decimal.NewFromInt(1),
		BuyPrice:       decimal.NewFromInt(2),
		AvailableFrom:  &from,
		AvailableUntil: &until,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateVideoKeepsWindowValid(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := vendorActor()
	from := time.Now().Add(24 * time.Hour)
	video, err := svc.CreateVideo(ctx, owner, VideoInput{
		Title:         "Director's Cut",
		RentPrice:     decimal.NewFromInt(79),
		BuyPrice:      decimal.NewFromInt(299),
		AvailableFrom: &from,
	})
	require.NoError(t, err)

	price := decimal.RequireFromString("59.999")
	_, err = svc.UpdateVideo(ctx, vendorActor(), video.ID, VideoUpdate{RentPrice: &price})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateVideo(ctx, owner, video.ID, VideoUpdate{RentPrice: &price})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("60").Equal(updated.RentPrice))
	assert.True(t, decimal.NewFromInt(299).Equal(updated.BuyPrice))

	zero := decimal.Zero
	_, err = svc.UpdateVideo(ctx, owner, video.ID, VideoUpdate{BuyPrice: &zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	early := from.Add(-time.Hour)
	_, err = svc.UpdateVideo(ctx, owner, video.ID, VideoUpdate{AvailableUntil: &early})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListMoviesPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	owner := vendorActor()
	for i := 0; i < 3; i++ {
		_, err := svc.CreateMovie(ctx, owner, MovieInput{Title: "Reel " + uuid.NewString()[:4]})
		require.NoError(t, err)
	}

	page, err := svc.ListMovies(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := svc.ListMovies(ctx, pagination.Params{Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.Cursor)
}
