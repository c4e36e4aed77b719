package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/httpx"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/requestctx"
)

type identityKey struct{}

// WithIdentity stores the operator identity on ctx.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	ctx = requestctx.WithAdminUID(ctx, identity.UID)
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the operator identity placed by RequireSession.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// CookieSettings describes the admin session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// SessionCookieValue reads the session cookie from r.
func (c CookieSettings) SessionCookieValue(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Set writes the session cookie for session.
func (c CookieSettings) Set(w http.ResponseWriter, session Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    session.Cookie,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the session cookie.
func (c CookieSettings) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// RequireSession rejects requests without a live admin session cookie.
func RequireSession(gate *SessionGate, cookies CookieSettings) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if gate == nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "admin sessions unavailable", http.StatusUnauthorized))
				return
			}
			value := cookies.SessionCookieValue(r)
			if value == "" {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "admin session required", http.StatusUnauthorized))
				return
			}
			identity, err := gate.Verify(ctx, value)
			if err != nil {
				logger := requestctx.Logger(ctx)
				if errors.Is(err, ErrForbidden) {
					logger.Warn("admin session lacks role", zap.Error(err))
					httpx.WriteError(ctx, w, httpx.NewError("insufficient_role", "identity does not have required role", http.StatusForbidden))
					return
				}
				logger.Info("admin session rejected", zap.Error(err))
				cookies.Clear(w)
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "admin session expired or invalid", http.StatusUnauthorized))
				return
			}

			ctx = WithIdentity(ctx, identity)
			ctx = requestctx.WithLogger(ctx, requestctx.Logger(ctx).With(zap.String("admin_uid", identity.UID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
