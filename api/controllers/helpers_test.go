package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/reelpass-backend/api/middleware"
	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
)

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withActor(req *http.Request, actor pkgauth.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}
