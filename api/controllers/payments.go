package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/api/validators"
	"github.com/angelmondragon/reelpass-backend/internal/payments"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type PaymentService interface {
	CreateOrder(ctx context.Context, input payments.CreateOrderInput) (*payments.OrderResult, error)
	VerifyAndComplete(ctx context.Context, input payments.VerifyInput) (*payments.CompletionResult, error)
	Refund(ctx context.Context, input payments.RefundInput) (*payments.RefundResult, error)
}

type paymentOrderRequest struct {
	Gateway    string    `json:"gateway" validate:"required,max=32"`
	PurchaseID uuid.UUID `json:"purchaseId"`
}

type paymentVerifyRequest struct {
	Gateway    string    `json:"gateway" validate:"required,max=32"`
	PurchaseID uuid.UUID `json:"purchaseId"`
	OrderID    string    `json:"orderId" validate:"required,max=128"`
	PaymentID  string    `json:"paymentId" validate:"omitempty,max=128"`
	Signature  string    `json:"signature" validate:"omitempty,max=512"`
}

type refundRequest struct {
	Amount decimal.NullDecimal `json:"amount"`
	Reason string              `json:"reason" validate:"omitempty,max=500"`
}

// CreatePaymentOrder opens a gateway order for the payable named by the
// route: the booking in the path, the purchase in the body, or the caller's
// own vendor fee.
func CreatePaymentOrder(svc PaymentService, targetType enums.PayableType, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		var payload paymentOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := resolvePayTarget(r, targetType, actor, payload.PurchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.CreateOrder(r.Context(), payments.CreateOrderInput{
			TargetType: targetType,
			TargetID:   targetID,
			Gateway:    strings.TrimSpace(payload.Gateway),
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.ToOrderDTO(order))
	}
}

func VerifyPayment(svc PaymentService, targetType enums.PayableType, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payment service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		var payload paymentVerifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetID, err := resolvePayTarget(r, targetType, actor, payload.PurchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.VerifyAndComplete(r.Context(), payments.VerifyInput{
			TargetType: targetType,
			TargetID:   targetID,
			Gateway:    strings.TrimSpace(payload.Gateway),
			OrderID:    payload.OrderID,
			PaymentID:  payload.PaymentID,
			Signature:  payload.Signature,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.ToCompletionDTO(result))
	}
}

// RefundBooking lets the booking owner refund a completed booking.
func RefundBooking(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refund(svc, logg, w, r, enums.PayableBooking, bookingID)
	}
}

func AdminRefund(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetType, err := enums.ParsePayableType(chi.URLParam(r, "targetType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target type"))
			return
		}
		targetID, err := validators.ParseUUIDParam(r, "targetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refund(svc, logg, w, r, targetType, targetID)
	}
}

func refund(svc PaymentService, logg *logger.Logger, w http.ResponseWriter, r *http.Request, targetType enums.PayableType, targetID uuid.UUID) {
	if svc == nil {
		unavailable(w, r, logg, "payment service")
		return
	}
	actor, ok := RequireActor(w, r, logg)
	if !ok {
		return
	}
	var payload refundRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	input := payments.RefundInput{
		TargetType: targetType,
		TargetID:   targetID,
		Reason:     validators.SanitizeString(payload.Reason, 500),
		Actor:      actor,
	}
	if payload.Amount.Valid {
		if !payload.Amount.Decimal.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive"))
			return
		}
		amount := payload.Amount.Decimal
		input.Amount = &amount
	}
	result, err := svc.Refund(r.Context(), input)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, payments.ToRefundDTO(result))
}

func resolvePayTarget(r *http.Request, targetType enums.PayableType, actor pkgauth.Actor, purchaseID uuid.UUID) (uuid.UUID, error) {
	switch targetType {
	case enums.PayableBooking:
		return validators.ParseUUIDParam(r, "bookingId")
	case enums.PayableVideoPurchase:
		if purchaseID == uuid.Nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "purchaseId is required")
		}
		return purchaseID, nil
	case enums.PayableVendorFee:
		if actor.VendorID == nil {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
		}
		return *actor.VendorID, nil
	default:
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment target")
	}
}
