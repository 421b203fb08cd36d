package bookings

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/reference"
)

const referencePrefix = "RP"

// NewReference returns a shareable booking reference such as RP-20261016-7KQ2M9.
func NewReference(now time.Time) (string, error) {
	return reference.New(referencePrefix, now)
}
