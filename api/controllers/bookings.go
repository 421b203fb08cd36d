package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/api/validators"
	"github.com/angelmondragon/reelpass-backend/internal/bookings"
	"github.com/angelmondragon/reelpass-backend/internal/payments"
	"github.com/angelmondragon/reelpass-backend/internal/tickets"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type BookingService interface {
	CreateBooking(ctx context.Context, input bookings.CreateBookingInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor pkgauth.Actor) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID, actor pkgauth.Actor) (*models.Booking, error)
	ListUserBookings(ctx context.Context, params bookings.ListParams) (*bookings.ListResult, error)
	GetTicket(ctx context.Context, bookingID uuid.UUID, actor pkgauth.Actor) (*models.ETicket, error)
	TicketQR(ctx context.Context, bookingID uuid.UUID, actor pkgauth.Actor) ([]byte, error)
}

// PaymentRecorder takes client-reported payments for a booking.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, targetID uuid.UUID, input payments.RecordPaymentInput) (*payments.CompletionResult, error)
}

type createBookingRequest struct {
	ShowtimeID uuid.UUID           `json:"showtimeId" validate:"required"`
	Seats      []string            `json:"seats" validate:"required,min=1,max=10,dive,required,seat"`
	Customer   customerRequest     `json:"customer"`
	Fees       decimal.NullDecimal `json:"fees"`
	Discount   decimal.NullDecimal `json:"discount"`
}

type customerRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,max=20"`
}

func CreateBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		var payload createBookingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.CreateBooking(r.Context(), bookings.CreateBookingInput{
			UserID:     actor.UserID,
			ShowtimeID: payload.ShowtimeID,
			Seats:      payload.Seats,
			Customer: bookings.Customer{
				Name:  validators.SanitizeString(payload.Customer.Name, 120),
				Email: payload.Customer.Email,
				Phone: payload.Customer.Phone,
			},
			Pricing: bookings.PricingInput{
				Fees:     payload.Fees.Decimal,
				Discount: payload.Discount.Decimal,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"booking": bookings.ToDTO(booking)})
	}
}

func ListBookings(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListUserBookings(r.Context(), bookings.ListParams{
			UserID: actor.UserID,
			Limit:  page.Limit,
			Cursor: page.Cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookings.ToListDTO(list))
	}
}

func GetBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return bookingHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, actor pkgauth.Actor, id uuid.UUID) {
		booking, err := svc.GetBooking(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"booking": bookings.ToDTO(booking)})
	})
}

func CancelBooking(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return bookingHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, actor pkgauth.Actor, id uuid.UUID) {
		booking, err := svc.CancelBooking(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"booking": bookings.ToDTO(booking)})
	})
}

func BookingTicket(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return bookingHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, actor pkgauth.Actor, id uuid.UUID) {
		ticket, err := svc.GetTicket(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"eTicket": tickets.ToDTO(ticket)})
	})
}

func BookingTicketQR(svc BookingService, logg *logger.Logger) http.HandlerFunc {
	return bookingHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, actor pkgauth.Actor, id uuid.UUID) {
		img, err := svc.TicketQR(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteBinary(w, "image/jpeg", img)
	})
}

type recordPaymentRequest struct {
	Gateway              string          `json:"gateway" validate:"required,max=32"`
	Method               string          `json:"method" validate:"omitempty,max=32"`
	Amount               decimal.Decimal `json:"amount" validate:"money"`
	Currency             string          `json:"currency" validate:"omitempty,currency"`
	GatewayOrderID       string          `json:"gatewayOrderId" validate:"required,max=128"`
	GatewayTransactionID string          `json:"gatewayTransactionId" validate:"required,max=128"`
	GatewayResponse      json.RawMessage `json:"gatewayResponse"`
}

// RecordBookingPayment settles a booking from a client-reported payment and
// returns the booking together with its ticket when one was issued.
func RecordBookingPayment(svc BookingService, payer PaymentRecorder, logg *logger.Logger) http.HandlerFunc {
	return bookingHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, actor pkgauth.Actor, id uuid.UUID) {
		if payer == nil {
			unavailable(w, r, logg, "payment service")
			return
		}
		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := parseOptionalCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := payer.RecordPayment(r.Context(), id, payments.RecordPaymentInput{
			TargetType:           enums.PayableBooking,
			Gateway:              payload.Gateway,
			Method:               payload.Method,
			Amount:               payload.Amount,
			Currency:             currency,
			GatewayOrderID:       payload.GatewayOrderID,
			GatewayTransactionID: payload.GatewayTransactionID,
			GatewayResponse:      payload.GatewayResponse,
			Actor:                actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.GetBooking(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var ticket *tickets.ETicketDTO
		if issued, err := svc.GetTicket(r.Context(), id, actor); err == nil {
			ticket = tickets.ToDTO(issued)
		} else {
			logg.Warn(logg.WithField(r.Context(), "booking_id", id.String()), "payment recorded without ticket")
		}
		responses.WriteSuccess(w, map[string]any{
			"booking":     bookings.ToDTO(booking),
			"transaction": payments.ToTransactionDTO(result.Transaction),
			"outcome":     result.Outcome,
			"eTicket":     ticket,
		})
	})
}

func bookingHandler(svc BookingService, logg *logger.Logger, fn func(http.ResponseWriter, *http.Request, pkgauth.Actor, uuid.UUID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "booking service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fn(w, r, actor, id)
	}
}
