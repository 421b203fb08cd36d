package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/api/validators"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
)

type DeadLetterService interface {
	List(ctx context.Context, params pagination.Params) (*outbox.DeadLetterPage, error)
	Replay(ctx context.Context, eventID uuid.UUID) (*outbox.DeadLetter, error)
}

// AdminListDeadLetters pages through events the publisher gave up on,
// newest first.
func AdminListDeadLetters(svc DeadLetterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dead letter service")
			return
		}
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		letters, err := svc.List(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, letters)
	}
}

func AdminReplayDeadLetter(svc DeadLetterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dead letter service")
			return
		}
		eventID, err := validators.ParseUUIDParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		replayed, err := svc.Replay(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, replayed)
	}
}
