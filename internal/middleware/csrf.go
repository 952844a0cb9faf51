package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taskflow/taskflow/internal/auth"
)

// CSRFHeader carries the token issued by GET /api/v1/auth/csrf-token.
const CSRFHeader = "X-CSRF-Token"

// CSRFVerifier checks a token against the session it must belong to.
type CSRFVerifier interface {
	Verify(token, sessionID string) error
}

// CSRFConfig holds configuration for the CSRF middleware.
type CSRFConfig struct {
	Logger   *slog.Logger
	Verifier CSRFVerifier
	Enabled  bool
}

// RequireCSRF returns a middleware that checks the CSRF header on unsafe
// methods. It must run after RequireSession.
func RequireCSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			principal := auth.PrincipalFromContext(r.Context())
			if principal == nil {
				writeError(w, http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			if err := cfg.Verifier.Verify(r.Header.Get(CSRFHeader), principal.SessionID); err != nil {
				cfg.Logger.WarnContext(r.Context(), "csrf check failed",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("user_id", principal.UserID),
					slog.String("error", err.Error()),
				)
				writeError(w, http.StatusForbidden, MsgInvalidCSRF)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
