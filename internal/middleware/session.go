package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taskflow/taskflow/internal/auth"
)

// DefaultSessionCookie is the name of the session cookie.
const DefaultSessionCookie = "taskflow_session"

// Authenticator resolves a session token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	CookieName    string
	// IsExpected reports whether err is an ordinary authentication failure
	// rather than a backend fault. Every error is answered with 401; only
	// unexpected ones are logged.
	IsExpected func(err error) bool
}

// RequireSession returns a middleware that rejects requests without a
// valid session cookie and stores the principal in the request context.
func RequireSession(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	expected := cfg.IsExpected
	if expected == nil {
		expected = func(error) bool { return false }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			principal, err := cfg.Authenticator.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				if !expected(err) {
					cfg.Logger.ErrorContext(r.Context(), "session lookup failed",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.String("error", err.Error()),
					)
				}
				writeError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			recordPrincipal(r.Context(), principal)
			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
