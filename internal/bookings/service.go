package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/reelpass-backend/internal/inventory"
	"github.com/angelmondragon/reelpass-backend/internal/pricing"
	"github.com/angelmondragon/reelpass-backend/internal/tickets"
	"github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/reelpass-backend/pkg/db/types"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
	"github.com/angelmondragon/reelpass-backend/pkg/reference"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Customer is the contact attached to a booking.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PricingInput carries operator adjustments on top of the showtime price.
type PricingInput struct {
	Fees     decimal.Decimal
	Discount decimal.Decimal
}

type CreateBookingInput struct {
	UserID     uuid.UUID
	ShowtimeID uuid.UUID
	Seats      []string
	Customer   Customer
	Pricing    PricingInput
}

type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

type ListResult struct {
	Items  []models.Booking
	Cursor string
}

// ServiceParams wires the booking service.
type ServiceParams struct {
	Logger         *logger.Logger
	DB             txRunner
	Repo           *Repository
	ShowtimeRepo   *inventory.Repository
	Inventory      *inventory.Ledger
	Tickets        *tickets.Service
	Outbox         outbox.Emitter
	HoldWindow     time.Duration
	SweepBatch     int
	ConvenienceFee decimal.Decimal
	Currency       enums.Currency
	Tax            pricing.TaxPolicy
}

// Service runs the booking lifecycle: hold, expire, cancel and the paid
// transition driven by payments through Fulfiller.
type Service struct {
	logg           *logger.Logger
	db             txRunner
	repo           *Repository
	showtimes      *inventory.Repository
	inventory      *inventory.Ledger
	tickets        *tickets.Service
	outbox         outbox.Emitter
	holdWindow     time.Duration
	sweepBatch     int
	convenienceFee decimal.Decimal
	currency       enums.Currency
	tax            pricing.TaxPolicy
	now            func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil || params.ShowtimeRepo == nil {
		return nil, fmt.Errorf("booking and showtime repositories required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Tickets == nil {
		return nil, fmt.Errorf("ticket service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.HoldWindow <= 0 {
		return nil, fmt.Errorf("hold window must be positive")
	}
	currency := params.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	return &Service{
		logg:           params.Logger,
		db:             params.DB,
		repo:           params.Repo,
		showtimes:      params.ShowtimeRepo,
		inventory:      params.Inventory,
		tickets:        params.Tickets,
		outbox:         params.Outbox,
		holdWindow:     params.HoldWindow,
		sweepBatch:     params.SweepBatch,
		convenienceFee: params.ConvenienceFee,
		currency:       currency,
		tax:            params.Tax,
		now:            time.Now,
	}, nil
}

// CreateBooking holds the seats and records a pending booking in one
// transaction. Inventory errors surface unchanged.
func (s *Service) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.ShowtimeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "showtime id is required")
	}
	seats, err := inventory.NormalizeSeats(input.Seats)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var booking *models.Booking
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		showtime, err := s.showtimes.WithTx(tx).FindShowtime(ctx, input.ShowtimeID)
		if err != nil {
			return err
		}
		if showtime.Status == enums.ShowtimeStatusCancelled {
			return ErrShowtimeNotBookable
		}
		if !showtime.StartsAt.After(now) {
			return ErrShowtimeStarted
		}

		quote, err := pricing.Quote(pricing.Input{
			UnitPrice: showtime.BasePrice,
			Quantity:  len(seats),
			Fees:      s.convenienceFee.Mul(decimal.NewFromInt(int64(len(seats)))).Add(input.Pricing.Fees),
			Discount:  input.Pricing.Discount,
			Currency:  showtime.Currency,
		}, s.tax)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing")
		}

		booking = &models.Booking{
			ID:             uuid.New(),
			UserID:         input.UserID,
			ShowtimeID:     showtime.ID,
			VendorID:       showtime.VendorID,
			SelectedSeats:  dbtypes.StringList(seats),
			CustomerName:   strings.TrimSpace(input.Customer.Name),
			CustomerEmail:  strings.TrimSpace(input.Customer.Email),
			CustomerPhone:  strings.TrimSpace(input.Customer.Phone),
			BaseAmount:     quote.Base,
			FeesAmount:     quote.Fees,
			TaxAmount:      quote.Tax,
			DiscountAmount: quote.Discount,
			FinalAmount:    quote.Final,
			Currency:       quote.Currency,
			PaymentStatus:  enums.PaymentStatusPending,
			BookingStatus:  enums.BookingStatusConfirmed,
			ExpiresAt:      now.Add(s.holdWindow),
		}

		if err := s.inventory.Reserve(ctx, tx, inventory.Hold{
			ShowtimeID: showtime.ID,
			BookingID:  booking.ID,
			SeatIDs:    seats,
		}); err != nil {
			return err
		}
		if err := s.insertWithReference(ctx, tx, booking, now); err != nil {
			return err
		}
		return s.emit(ctx, tx, enums.EventBookingCreated, booking, now)
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"showtime_id": input.ShowtimeID.String(),
				"seats":       seats,
			}), err.Error())
		}
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"booking_id": booking.ID.String(),
		"reference":  booking.Reference,
		"seats":      len(seats),
	})
	s.logg.Info(logCtx, "booking hold created")
	return booking, nil
}

// insertWithReference retries the insert under a savepoint when the random
// reference collides.
func (s *Service) insertWithReference(ctx context.Context, tx *gorm.DB, booking *models.Booking, now time.Time) error {
	for attempt := 0; attempt < reference.MaxRetries; attempt++ {
		ref, err := NewReference(now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate booking reference")
		}
		booking.Reference = ref
		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.repo.WithTx(sp).Create(ctx, booking)
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "reference") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert booking")
		}
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique booking reference")
}

// CancelBooking cancels a hold or paid booking and returns its seats.
// Refunds are a separate explicit action.
func (s *Service) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor auth.Actor) (*models.Booking, error) {
	now := s.now().UTC()
	var cancelled *models.Booking
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !actor.CanAccess(booking.UserID) {
			return ErrBookingNotFound
		}
		if err := cancellable(booking); err != nil {
			return err
		}

		affected, err := repo.Cancel(ctx, booking.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel booking")
		}
		if affected == 0 {
			current, err := repo.FindByID(ctx, booking.ID)
			if err != nil {
				return err
			}
			if err := cancellable(current); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking changed during cancellation")
		}

		if err := s.inventory.Release(ctx, tx, holdOf(booking)); err != nil {
			return err
		}
		booking.BookingStatus = enums.BookingStatusCancelled
		booking.CancelledAt = &now
		cancelled = booking
		return s.emit(ctx, tx, enums.EventBookingCancelled, booking, now)
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"booking_id":     cancelled.ID.String(),
		"payment_status": cancelled.PaymentStatus,
	})
	s.logg.Info(logCtx, "booking cancelled")
	return cancelled, nil
}

func cancellable(booking *models.Booking) error {
	switch booking.BookingStatus {
	case enums.BookingStatusCancelled:
		return ErrAlreadyCancelled
	case enums.BookingStatusExpired:
		return ErrBookingExpired
	}
	return nil
}

// ExpireStaleHolds expires unpaid holds past their deadline. Each booking
// runs in its own transaction; a booking completed in the meantime is left
// alone because the transition is conditional.
func (s *Service) ExpireStaleHolds(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	stale, err := s.repo.FindStaleHolds(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query stale holds")
	}

	var (
		expired int
		errs    error
	)
	for i := range stale {
		booking := stale[i]
		applied := false
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			affected, err := s.repo.WithTx(tx).ExpireHold(ctx, booking.ID, now)
			if err != nil {
				return err
			}
			if affected == 0 {
				return nil
			}
			if err := s.inventory.Release(ctx, tx, holdOf(&booking)); err != nil {
				return err
			}
			booking.BookingStatus = enums.BookingStatusExpired
			booking.PaymentStatus = enums.PaymentStatusFailed
			applied = true
			return s.emit(ctx, tx, enums.EventBookingExpired, &booking, now)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire booking %s: %w", booking.ID, err))
			continue
		}
		if applied {
			expired++
		}
	}
	return expired, errs
}

// GetBooking returns a booking visible to the actor.
func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID, actor auth.Actor) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *Service) ListUserBookings(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	query := listParams{UserID: params.UserID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	rows, next, err := s.repo.ListByUser(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// GetTicket returns the booking's e-ticket.
func (s *Service) GetTicket(ctx context.Context, bookingID uuid.UUID, actor auth.Actor) (*models.ETicket, error) {
	if _, err := s.GetBooking(ctx, bookingID, actor); err != nil {
		return nil, err
	}
	return s.tickets.GetByBooking(ctx, bookingID)
}

// TicketQR renders the booking's ticket QR image.
func (s *Service) TicketQR(ctx context.Context, bookingID uuid.UUID, actor auth.Actor) ([]byte, error) {
	ticket, err := s.GetTicket(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	return s.tickets.RenderQR(ticket)
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, booking *models.Booking, now time.Time) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateBooking,
		AggregateID:   booking.ID,
		Actor:         &outbox.ActorRef{UserID: booking.UserID, Role: enums.RoleUser.String()},
		OccurredAt:    now,
		Data: payloads.BookingEvent{
			BookingID:     booking.ID,
			Reference:     booking.Reference,
			UserID:        booking.UserID,
			ShowtimeID:    booking.ShowtimeID,
			Seats:         []string(booking.SelectedSeats),
			BookingStatus: booking.BookingStatus,
			PaymentStatus: booking.PaymentStatus,
			OccurredAt:    now,
		},
	})
}

func holdOf(booking *models.Booking) inventory.Hold {
	return inventory.Hold{
		ShowtimeID: booking.ShowtimeID,
		BookingID:  booking.ID,
		SeatIDs:    []string(booking.SelectedSeats),
	}
}
