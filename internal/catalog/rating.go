package catalog

import (
	"math"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
)

// RecomputeAverageRating returns the mean rating rounded to one decimal, or 0
// for a movie without reviews.
func RecomputeAverageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return math.Round(mean*10) / 10
}
