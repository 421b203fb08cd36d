package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/api/validators"
	"github.com/angelmondragon/reelpass-backend/internal/purchases"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type PurchaseService interface {
	CreatePurchase(ctx context.Context, input purchases.CreateInput) (*models.VideoPurchase, error)
	CheckAccess(ctx context.Context, userID, videoID uuid.UUID) (*purchases.Access, error)
	GetPurchase(ctx context.Context, purchaseID, userID uuid.UUID) (*models.VideoPurchase, error)
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]models.VideoPurchase, error)
}

type purchaseRequest struct {
	VideoID      uuid.UUID `json:"videoId" validate:"required"`
	PurchaseType string    `json:"purchaseType" validate:"required,oneof=rent buy"`
}

// CreateVideoPurchase opens a pending rent or buy purchase priced from the video.
func CreateVideoPurchase(svc PurchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "purchase service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		var payload purchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		purchaseType, err := enums.ParsePurchaseType(strings.TrimSpace(payload.PurchaseType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase type"))
			return
		}
		purchase, err := svc.CreatePurchase(r.Context(), purchases.CreateInput{
			UserID:       actor.UserID,
			VideoID:      payload.VideoID,
			PurchaseType: purchaseType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"purchase": purchases.ToDTO(purchase)})
	}
}

func ListVideoPurchases(svc PurchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "purchase service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		rows, err := svc.ListPurchases(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]purchases.PurchaseDTO, 0, len(rows))
		for i := range rows {
			out = append(out, purchases.ToDTO(&rows[i]))
		}
		responses.WriteSuccess(w, map[string]any{"purchases": out})
	}
}

func GetVideoPurchase(svc PurchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "purchase service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		purchaseID, err := validators.ParseUUIDParam(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		purchase, err := svc.GetPurchase(r.Context(), purchaseID, actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"purchase": purchases.ToDTO(purchase)})
	}
}

// VideoAccess answers 403 when nothing is paid and 410 when a rental lapsed.
func VideoAccess(svc PurchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "purchase service")
			return
		}
		actor, ok := RequireActor(w, r, logg)
		if !ok {
			return
		}
		videoID, err := validators.ParseUUIDParam(r, "videoId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		access, err := svc.CheckAccess(r.Context(), actor.UserID, videoID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchases.ToAccessDTO(access))
	}
}
