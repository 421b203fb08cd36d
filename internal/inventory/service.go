package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hold names the seats a booking holds on a showtime.
type Hold struct {
	ShowtimeID uuid.UUID
	BookingID  uuid.UUID
	SeatIDs    []string
}

// SeatState is one cell of the seat map.
type SeatState struct {
	SeatID string `json:"seatId"`
	Taken  bool   `json:"taken"`
}

// Availability is the read model behind the seat picker.
type Availability struct {
	Showtime       *models.Showtime `json:"showtime"`
	Seats          []SeatState      `json:"seats"`
	TotalSeats     int              `json:"totalSeats"`
	AvailableCount int              `json:"availableCount"`
}

// Ledger owns the seat set and available_count of every showtime. Mutations
// run inside the caller's transaction.
type Ledger struct {
	repo *Repository
	now  func() time.Time
}

// NewLedger wires the ledger to its repository.
func NewLedger(repo *Repository) (*Ledger, error) {
	if repo == nil {
		return nil, errors.New("inventory repository required")
	}
	return &Ledger{repo: repo, now: time.Now}, nil
}

// Reserve holds the requested seats for the booking or fails without side
// effects inside tx.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, hold Hold) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reserve requires a transaction")
	}
	if hold.BookingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	seats, err := NormalizeSeats(hold.SeatIDs)
	if err != nil {
		return err
	}

	repo := l.repo.WithTx(tx)
	showtime, err := repo.LockShowtime(ctx, hold.ShowtimeID)
	if err != nil {
		return err
	}
	if err := validateLayout(showtime.SeatRows, showtime.SeatCols, seats); err != nil {
		return err
	}
	if len(seats) > showtime.AvailableCount {
		return ErrInsufficient
	}

	taken, err := repo.TakenSeats(ctx, showtime.ID, seats)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check held seats")
	}
	if len(taken) > 0 {
		return seatConflict(taken)
	}

	if err := repo.InsertSeats(ctx, showtime.ID, hold.BookingID, seats, l.now().UTC()); err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrSeatConflict
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hold seats")
	}

	affected, err := repo.DecrementAvailable(ctx, showtime.ID, len(seats))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement availability")
	}
	if affected == 0 {
		return ErrInsufficient
	}
	return nil
}

// Release frees the hold's seats. Seats that are not held by the booking are
// skipped, so repeated releases are no-ops.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, hold Hold) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "release requires a transaction")
	}
	repo := l.repo.WithTx(tx)
	showtime, err := repo.LockShowtime(ctx, hold.ShowtimeID)
	if err != nil {
		return err
	}
	if len(hold.SeatIDs) == 0 {
		return nil
	}
	seats, err := NormalizeSeats(hold.SeatIDs)
	if err != nil {
		return err
	}

	deleted, err := repo.DeleteSeats(ctx, showtime.ID, hold.BookingID, seats)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release seats")
	}
	if deleted == 0 {
		return nil
	}

	affected, err := repo.IncrementAvailable(ctx, showtime.ID, int(deleted))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment availability")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "available count would exceed capacity")
	}
	return nil
}

// Snapshot reports the seat map and counts for a showtime.
func (l *Ledger) Snapshot(ctx context.Context, showtimeID uuid.UUID) (*Availability, error) {
	showtime, err := l.repo.FindShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	held, err := l.repo.ListSeats(ctx, showtimeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list held seats")
	}

	taken := make(map[string]struct{}, len(held))
	for _, seat := range held {
		taken[seat.SeatID] = struct{}{}
	}

	var states []SeatState
	if labels := SeatLabels(showtime.SeatRows, showtime.SeatCols); len(labels) > 0 {
		states = make([]SeatState, 0, len(labels))
		for _, label := range labels {
			_, isTaken := taken[label]
			states = append(states, SeatState{SeatID: label, Taken: isTaken})
		}
	} else {
		states = make([]SeatState, 0, len(held))
		for _, seat := range held {
			states = append(states, SeatState{SeatID: seat.SeatID, Taken: true})
		}
	}

	return &Availability{
		Showtime:       showtime,
		Seats:          states,
		TotalSeats:     showtime.TotalCapacity,
		AvailableCount: showtime.AvailableCount,
	}, nil
}
