package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

const maxWebhookBody = 1 << 20

type WebhookHandler interface {
	HandleWebhook(ctx context.Context, gatewayName string, rawBody []byte, headers http.Header) error
}

// PaymentWebhook always acknowledges with 200 so gateways do not retry
// forever on events we reject; failures are logged and counted instead.
func PaymentWebhook(svc WebhookHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gateway := chi.URLParam(r, "gateway")
		ctx := logg.WithFields(r.Context(), map[string]any{
			"gateway": gateway,
			"path":    r.URL.Path,
		})
		if svc == nil {
			logg.Warn(ctx, "webhook received without payment service")
			responses.WriteSuccess(w, map[string]any{"received": true})
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			logg.Error(ctx, "read webhook body", err)
			responses.WriteSuccess(w, map[string]any{"received": true})
			return
		}
		if err := svc.HandleWebhook(ctx, gateway, body, r.Header); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeSignatureInvalid) {
				logg.SecurityWarn(ctx, "webhook rejected")
			} else {
				logg.Error(ctx, "webhook processing failed", err)
			}
		}
		responses.WriteSuccess(w, map[string]any{"received": true})
	}
}
