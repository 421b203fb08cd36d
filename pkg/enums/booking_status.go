package enums

// BookingStatus is the lifecycle state of a booking, independent of payment.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

var validBookingStatuses = set[BookingStatus]{
	BookingStatusConfirmed,
	BookingStatusCancelled,
	BookingStatusExpired,
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	return validBookingStatuses.has(b)
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	return validBookingStatuses.parse("booking status", value)
}
