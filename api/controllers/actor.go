package controllers

import (
	"net/http"

	"github.com/angelmondragon/reelpass-backend/api/middleware"
	"github.com/angelmondragon/reelpass-backend/api/responses"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

// RequireActor writes a 401 and reports false when the request carries no
// authenticated caller.
func RequireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (pkgauth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return pkgauth.Actor{}, false
	}
	return actor, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable"))
}
