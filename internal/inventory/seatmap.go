package inventory

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
)

// RowLabel converts a zero-based row index to its label: 0 -> A, 25 -> Z, 26 -> AA.
func RowLabel(index int) string {
	label := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return label
}

// SeatLabels enumerates the seat ids of a rows x cols layout in display order.
func SeatLabels(rows, cols int) []string {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	labels := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		row := RowLabel(r)
		for c := 1; c <= cols; c++ {
			labels = append(labels, row+strconv.Itoa(c))
		}
	}
	return labels
}

// NormalizeSeats trims and upper-cases seat ids and rejects empty or
// duplicate entries.
func NormalizeSeats(seatIDs []string) ([]string, error) {
	if len(seatIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one seat is required")
	}
	seen := make(map[string]struct{}, len(seatIDs))
	out := make([]string, 0, len(seatIDs))
	for _, raw := range seatIDs {
		seat := strings.ToUpper(strings.TrimSpace(raw))
		if seat == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "seat id cannot be blank")
		}
		if _, dup := seen[seat]; dup {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "seat %s requested more than once", seat)
		}
		seen[seat] = struct{}{}
		out = append(out, seat)
	}
	return out, nil
}

// validateLayout checks seats against a configured layout. A showtime without
// rows/cols accepts any seat label.
func validateLayout(rows, cols int, seats []string) error {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	valid := make(map[string]struct{}, rows*cols)
	for _, label := range SeatLabels(rows, cols) {
		valid[label] = struct{}{}
	}
	var unknown []string
	for _, seat := range seats {
		if _, ok := valid[seat]; !ok {
			unknown = append(unknown, seat)
		}
	}
	if len(unknown) > 0 {
		return pkgerrors.New(
			pkgerrors.CodeValidation,
			fmt.Sprintf("unknown seats for this showtime: %s", strings.Join(unknown, ", ")),
		)
	}
	return nil
}
