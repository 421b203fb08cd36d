package middleware

import (
	"context"

	pkgauth "github.com/angelmondragon/reelpass-backend/pkg/auth"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxVendorID contextKey = "vendor_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func VendorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxVendorID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the authenticated caller. ok is false when the
// request carried no valid identity.
func ActorFromContext(ctx context.Context) (pkgauth.Actor, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return pkgauth.Actor{}, false
	}
	actor := pkgauth.Actor{UserID: userID, Role: enums.UserRole(RoleFromContext(ctx))}
	if raw := VendorIDFromContext(ctx); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			return pkgauth.Actor{}, false
		}
		actor.VendorID = &vendorID
	}
	return actor, true
}

// WithActor injects the caller identity into the context for downstream handlers.
func WithActor(ctx context.Context, actor pkgauth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	ctx = context.WithValue(ctx, ctxRole, string(actor.Role))
	if actor.VendorID != nil {
		ctx = context.WithValue(ctx, ctxVendorID, actor.VendorID.String())
	}
	return ctx
}
