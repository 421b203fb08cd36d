package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	"github.com/angelmondragon/reelpass-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ReelPass-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ReelPass-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// Dependencies names the pingers HealthReady checks.
func Dependencies(db, redis Pinger) map[string]Pinger {
	return map[string]Pinger{"database": db, "redis": redis}
}
