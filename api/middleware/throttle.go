package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/reelpass-backend/api/responses"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/tidwall/gjson"
)

// RateLimiterStore is a fixed-window counter; pkg/redis provides it.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Limit is one counter. Requests whose Key returns the same value share a
// budget of Max per Window; an empty key skips the limit.
type Limit struct {
	Name     string
	Window   time.Duration
	Max      int
	Key      func(r *http.Request, body []byte) string
	needBody bool
}

func (l Limit) enabled() bool {
	return l.Window > 0 && l.Max > 0 && l.Key != nil
}

// ByClientIP limits per caller address.
func ByClientIP(name string, window time.Duration, max int) Limit {
	return Limit{Name: name + ":ip", Window: window, Max: max, Key: func(r *http.Request, _ []byte) string {
		return clientIP(r)
	}}
}

// ByBodyField limits per value of a top-level JSON field, e.g. the login
// email. Values are case-folded and hashed before they reach Redis.
func ByBodyField(name, field string, window time.Duration, max int) Limit {
	return Limit{Name: name + ":" + field, Window: window, Max: max, needBody: true, Key: func(_ *http.Request, body []byte) string {
		value := strings.ToLower(strings.TrimSpace(gjson.GetBytes(body, field).String()))
		if value == "" {
			return ""
		}
		sum := sha256.Sum256([]byte(value))
		return hex.EncodeToString(sum[:])
	}}
}

// ByActor limits per authenticated user. It must run after Auth.
func ByActor(name string, window time.Duration, max int) Limit {
	return Limit{Name: name + ":user", Window: window, Max: max, Key: func(r *http.Request, _ []byte) string {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			return ""
		}
		return actor.UserID.String()
	}}
}

// Throttle enforces every enabled limit in order and answers 429 with
// Retry-After once one is exhausted. Store errors fail closed.
func Throttle(store RateLimiterStore, logg *logger.Logger, limits ...Limit) func(http.Handler) http.Handler {
	active := make([]Limit, 0, len(limits))
	needBody := false
	for _, l := range limits {
		if l.enabled() {
			active = append(active, l)
			needBody = needBody || l.needBody
		}
	}
	return func(next http.Handler) http.Handler {
		if store == nil || len(active) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var body []byte
			if needBody {
				var err error
				body, err = io.ReadAll(io.LimitReader(r.Body, 64<<10))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
			for _, l := range active {
				key := l.Key(r, body)
				if key == "" {
					continue
				}
				allowed, count, err := store.FixedWindowAllow(ctx, l.Name+":"+key, int64(l.Max), l.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					rejectThrottled(ctx, logg, w, l, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectThrottled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, l Limit, count int64) {
	if logg != nil {
		logg.SecurityWarn(logg.WithFields(ctx, map[string]any{
			"limit":          l.Name,
			"attempts":       count,
			"max":            l.Max,
			"window_seconds": int(l.Window.Seconds()),
		}), "request throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(l.Window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// clientIP prefers the first X-Forwarded-For hop set by the load balancer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
