package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/doantruong120699/voice-cloner-backend/internal/httpx"
	"github.com/doantruong120699/voice-cloner-backend/internal/router"
	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
	"github.com/doantruong120699/voice-cloner-backend/internal/store"
)

type ctxKey struct{}

var userKey ctxKey

// userResolver turns a bearer token into the authenticated user.
type userResolver interface {
	UserFromToken(ctx context.Context, raw string) (store.User, error)
}

func Auth(resolver userResolver) router.Middleware {
	return func(next http.Handler) http.Handler {
		return authMiddleware(next, resolver)
	}
}

func authMiddleware(next http.Handler, resolver userResolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "not authenticated", "")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid authorization header", "")
			return
		}

		usr, err := resolver.UserFromToken(r.Context(), token)
		if err != nil {
			authError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, usr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("failed to authenticate request",
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	)

	msg := "invalid or expired token"
	var se *serr.ServiceError
	if errors.As(err, &se) {
		msg = se.Msg
	}
	httpx.WriteError(w, http.StatusUnauthorized, msg, "")
}

// UserFromContext returns the authenticated user stored by Auth. The ok
// result is false on routes that never passed through the middleware.
func UserFromContext(ctx context.Context) (store.User, bool) {
	usr, ok := ctx.Value(userKey).(store.User)
	return usr, ok
}
