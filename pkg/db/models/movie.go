package models

import (
	"time"

	"github.com/google/uuid"
)

// Movie is a catalog entry that showtimes are scheduled against.
type Movie struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	VendorID        *uuid.UUID `gorm:"column:vendor_id;type:uuid"`
	Title           string     `gorm:"column:title;not null"`
	Slug            string     `gorm:"column:slug;not null;uniqueIndex:idx_movies_slug"`
	Description     string     `gorm:"column:description"`
	Language        string     `gorm:"column:language"`
	DurationMinutes int        `gorm:"column:duration_minutes;not null;default:0"`
	AverageRating   float64    `gorm:"column:average_rating;not null;default:0"`
	ReviewCount     int        `gorm:"column:review_count;not null;default:0"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
