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
	"github.com/angelmondragon/reelpass-backend/internal/earnings"
	"github.com/angelmondragon/reelpass-backend/internal/payouts"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
)

type PayoutService interface {
	RequestWithdrawal(ctx context.Context, input payouts.RequestInput) (*models.VendorWithdrawal, error)
	RetryWithdrawal(ctx context.Context, withdrawalID uuid.UUID, actor pkgauth.Actor) (*payouts.Result, error)
	CancelWithdrawal(ctx context.Context, withdrawalID uuid.UUID, actor pkgauth.Actor) (*models.VendorWithdrawal, error)
	GetTransferStatus(ctx context.Context, transferID string) (enums.PayoutStatus, error)
	GetWithdrawal(ctx context.Context, withdrawalID uuid.UUID, actor pkgauth.Actor) (*models.VendorWithdrawal, error)
	ListWithdrawals(ctx context.Context, vendorID uuid.UUID, limit int, actor pkgauth.Actor) ([]models.VendorWithdrawal, error)
}

type EarningsReader interface {
	List(ctx context.Context, params earnings.ListParams) (*earnings.ListResult, error)
}

func VendorEarnings(svc EarningsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "earnings service")
			return
		}
		_, vendorID, ok := requireVendor(w, r, logg)
		if !ok {
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), earnings.ListParams{
			VendorID: vendorID,
			Limit:    page.Limit,
			Cursor:   page.Cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, earnings.ToPageDTO(result))
	}
}

type withdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"money"`
}

// VendorRequestWithdrawal holds the amount and queues the payout; the
// response carries the pending withdrawal.
func VendorRequestWithdrawal(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payout service")
			return
		}
		actor, vendorID, ok := requireVendor(w, r, logg)
		if !ok {
			return
		}
		var payload withdrawalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withdrawal, err := svc.RequestWithdrawal(r.Context(), payouts.RequestInput{
			VendorID: vendorID,
			Amount:   payload.Amount,
			Actor:    actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"withdrawal": payouts.ToDTO(withdrawal)})
	}
}

func VendorListWithdrawals(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payout service")
			return
		}
		actor, vendorID, ok := requireVendor(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListWithdrawals(r.Context(), vendorID, limit, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"withdrawals": payouts.ToListDTO(rows)})
	}
}

func VendorGetWithdrawal(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payout service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withdrawal, err := svc.GetWithdrawal(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"withdrawal": payouts.ToDTO(withdrawal)})
	}
}

func AdminRetryWithdrawal(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payout service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.RetryWithdrawal(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminCancelWithdrawal(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payout service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withdrawal, err := svc.CancelWithdrawal(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"withdrawal": payouts.ToDTO(withdrawal)})
	}
}

func AdminTransferStatus(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "payout service")
			return
		}
		transferID := strings.TrimSpace(chi.URLParam(r, "transferId"))
		if transferID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transferId is required"))
			return
		}
		status, err := svc.GetTransferStatus(r.Context(), transferID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"transferId": transferID, "status": status})
	}
}
