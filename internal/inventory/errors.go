package inventory

import (
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
)

var (
	ErrShowtimeNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "showtime not found")
	ErrInsufficient     = pkgerrors.New(pkgerrors.CodeBusinessRule, "not enough seats available")
	ErrSeatConflict     = pkgerrors.New(pkgerrors.CodeBusinessRule, "one or more seats are already booked")
)

// seatConflict wraps ErrSeatConflict with the offending seats so callers can
// still match the sentinel with errors.Is.
func seatConflict(seats []string) error {
	if len(seats) == 0 {
		return ErrSeatConflict
	}
	return pkgerrors.Wrap(
		pkgerrors.CodeBusinessRule,
		ErrSeatConflict,
		fmt.Sprintf("seats already booked: %s", strings.Join(seats, ", ")),
	).WithDetails(map[string]any{"seats": seats})
}
