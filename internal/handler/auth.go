package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/service"
)

// AccountService is the auth surface the handler needs.
// *service.AuthService implements it.
type AccountService interface {
	Signup(ctx context.Context, body []byte) (*model.User, *service.Grant, error)
	Login(ctx context.Context, body []byte) (*model.User, *service.Grant, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID string) (*model.User, error)
}

// CSRFIssuer signs CSRF tokens bound to a session. *auth.CSRF implements it.
type CSRFIssuer interface {
	Issue(sessionID string) (string, error)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles signup, login, logout and session introspection.
type AuthHandler struct {
	svc    AccountService
	csrf   CSRFIssuer
	cookie CookieConfig
	logger *slog.Logger
	errs   errorWriter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AccountService, csrf CSRFIssuer, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		csrf:   csrf,
		cookie: cookie,
		logger: logger,
		errs:   errorWriter{logger: logger},
	}
}

// Signup handles POST /api/v1/auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	user, grant, err := h.svc.Signup(r.Context(), body)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	h.setSessionCookie(w, grant)
	writeSuccess(w, http.StatusCreated, user, "User signed up successfully!")
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	user, grant, err := h.svc.Login(r.Context(), body)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	h.setSessionCookie(w, grant)
	writeSuccess(w, http.StatusOK, user, "User logged in successfully!")
}

// Logout handles POST /api/v1/auth/logout. It must run behind the
// session middleware.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookie.Name)
	if err != nil {
		writeError(w, http.StatusUnauthorized, MsgUnauthorized, nil)
		return
	}

	if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
		h.errs.write(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "user logged out", "user_id", auth.UserIDFromContext(r.Context()))
	h.clearSessionCookie(w)
	writeSuccess(w, http.StatusOK, nil, "User logged out successfully.")
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, user, "")
}

// CSRFToken handles GET /api/v1/auth/csrf-token. The token is bound to
// the caller's session and goes in the X-CSRF-Token header of unsafe
// requests.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, MsgUnauthorized, nil)
		return
	}

	token, err := h.csrf.Issue(principal.SessionID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"csrf_token": token}, "")
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, grant *service.Grant) {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    grant.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// Without an expiry the browser drops the cookie on exit; the server
	// side session still expires on its own.
	if grant.Persistent {
		c.Expires = grant.Session.ExpiresAt
		c.MaxAge = int(time.Until(grant.Session.ExpiresAt).Seconds())
	}
	http.SetCookie(w, c)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
