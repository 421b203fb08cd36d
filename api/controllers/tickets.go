package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/api/validators"
	"github.com/angelmondragon/reelpass-backend/internal/tickets"
	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type TicketRedeemer interface {
	Redeem(ctx context.Context, ticketNumber, sig string) (*models.ETicket, error)
}

type redeemRequest struct {
	TicketNumber string `json:"ticketNumber" validate:"required,max=64"`
	Signature    string `json:"signature" validate:"required,max=256"`
}

// AdminRedeemTicket marks a scanned ticket used at the venue gate.
func AdminRedeemTicket(svc TicketRedeemer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "ticket service")
			return
		}
		var payload redeemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.Redeem(r.Context(), strings.TrimSpace(payload.TicketNumber), strings.TrimSpace(payload.Signature))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"eTicket": tickets.ToDTO(ticket)})
	}
}
