package enums

// ShowtimeStatus controls whether a showtime accepts reservations.
type ShowtimeStatus string

const (
	ShowtimeStatusActive    ShowtimeStatus = "active"
	ShowtimeStatusCancelled ShowtimeStatus = "cancelled"
	ShowtimeStatusSoldOut   ShowtimeStatus = "sold_out"
)

var validShowtimeStatuses = set[ShowtimeStatus]{
	ShowtimeStatusActive,
	ShowtimeStatusCancelled,
	ShowtimeStatusSoldOut,
}

// String implements fmt.Stringer.
func (s ShowtimeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShowtimeStatus.
func (s ShowtimeStatus) IsValid() bool {
	return validShowtimeStatuses.has(s)
}

// ParseShowtimeStatus converts raw input into a ShowtimeStatus.
func ParseShowtimeStatus(value string) (ShowtimeStatus, error) {
	return validShowtimeStatuses.parse("showtime status", value)
}

// Bookable reports whether seats may still be reserved.
func (s ShowtimeStatus) Bookable() bool {
	return s == ShowtimeStatusActive
}
