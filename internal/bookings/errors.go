package bookings

import pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"

var (
	ErrBookingNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	ErrAlreadyCancelled    = pkgerrors.New(pkgerrors.CodeBusinessRule, "booking is already cancelled")
	ErrBookingExpired      = pkgerrors.New(pkgerrors.CodeBusinessRule, "booking hold has expired")
	ErrShowtimeNotBookable = pkgerrors.New(pkgerrors.CodeBusinessRule, "showtime is not open for booking")
	ErrShowtimeStarted     = pkgerrors.New(pkgerrors.CodeBusinessRule, "showtime has already started")
)
