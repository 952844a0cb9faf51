package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/cache"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/handler"
	"github.com/taskflow/taskflow/internal/metrics"
	"github.com/taskflow/taskflow/internal/middleware"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/service"
)

// Per-route limits, requests per minute.
var (
	limitRead          = middleware.RateLimitRule{Scope: "read", PerMinute: 20, Burst: 20}
	limitCreate        = middleware.RateLimitRule{Scope: "create", PerMinute: 10, Burst: 10}
	limitEdit          = middleware.RateLimitRule{Scope: "edit", PerMinute: 20, Burst: 20}
	limitDelete        = middleware.RateLimitRule{Scope: "delete", PerMinute: 20, Burst: 20}
	limitFinanceEdit   = middleware.RateLimitRule{Scope: "finance-edit", PerMinute: 10, Burst: 10}
	limitFinanceDelete = middleware.RateLimitRule{Scope: "finance-delete", PerMinute: 5, Burst: 5}
	limitSignup        = middleware.RateLimitRule{Scope: "signup", PerMinute: 5, Burst: 5}
	limitLogin         = middleware.RateLimitRule{Scope: "login", PerMinute: 10, Burst: 10}
	limitLogout        = middleware.RateLimitRule{Scope: "logout", PerMinute: 20, Burst: 20}
)

// app holds everything the router is built from.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    repository.Store
	cache    *cache.Cache
	recorder metrics.Recorder
	gatherer prometheus.Gatherer
	hasher   *auth.Hasher
	location *time.Location
	now      func() time.Time
}

// routeLimits holds one rate limiting middleware per rule so that routes
// sharing a scope share their buckets.
type routeLimits struct {
	read, create, edit, delete func(http.Handler) http.Handler
	financeEdit, financeDelete func(http.Handler) http.Handler
	signup, login, logout      func(http.Handler) http.Handler
}

func newRouteLimits(cfg middleware.RateLimitConfig) routeLimits {
	return routeLimits{
		read:          middleware.RateLimit(cfg, limitRead),
		create:        middleware.RateLimit(cfg, limitCreate),
		edit:          middleware.RateLimit(cfg, limitEdit),
		delete:        middleware.RateLimit(cfg, limitDelete),
		financeEdit:   middleware.RateLimit(cfg, limitFinanceEdit),
		financeDelete: middleware.RateLimit(cfg, limitFinanceDelete),
		signup:        middleware.RateLimit(cfg, limitSignup),
		login:         middleware.RateLimit(cfg, limitLogin),
		logout:        middleware.RateLimit(cfg, limitLogout),
	}
}

// mountResource registers the CRUD routes of one resource.
func mountResource[E model.Entity](r chi.Router, h *handler.ResourceHandler[E], read, create, edit, del func(http.Handler) http.Handler) {
	r.With(read).Get("/", h.List)
	r.With(create).Post("/", h.Create)
	r.With(read).Get("/{id}", h.Get)
	r.With(edit).Patch("/{id}", h.Edit)
	r.With(del).Delete("/{id}", h.Delete)
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(a *app) *chi.Mux {
	deps := service.Deps{
		Store:        a.store,
		Metrics:      a.recorder,
		Logger:       a.logger,
		Cache:        a.cache,
		AnalyticsTTL: a.cfg.AnalyticsCacheTTL,
		Location:     a.location,
		Now:          a.now,
	}

	authService := service.NewAuthService(deps, a.hasher, a.cache, service.AuthConfig{
		SessionTTL:  a.cfg.SessionTTL,
		RememberTTL: a.cfg.SessionRememberTTL,
	})
	csrf := auth.NewCSRF(a.cfg.SecretKey)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(
		handler.Dependency{Name: "storage", Checker: a.store},
		handler.Dependency{Name: "redis", Checker: a.cache},
	)
	authHandler := handler.NewAuthHandler(authService, csrf, handler.CookieConfig{
		Name:   a.cfg.SessionCookieName,
		Secure: a.cfg.SessionCookieSecure,
	}, a.logger)
	taskHandler := handler.NewTaskHandler(service.NewTaskService(deps), a.logger)
	habitHandler := handler.NewHabitHandler(service.NewHabitService(deps), a.logger)
	noteHandler := handler.NewNoteHandler(service.NewNoteService(deps), a.logger)
	budgetHandler := handler.NewBudgetHandler(service.NewBudgetService(deps), a.logger)
	transactionHandler := handler.NewTransactionHandler(service.NewTransactionService(deps), a.logger)

	sessionCfg := middleware.SessionConfig{
		Logger:        a.logger,
		Authenticator: authService,
		CookieName:    a.cfg.SessionCookieName,
		IsExpected: func(err error) bool {
			return errors.Is(err, service.ErrUnauthenticated)
		},
	}
	csrfCfg := middleware.CSRFConfig{
		Logger:   a.logger,
		Verifier: csrf,
		Enabled:  a.cfg.CSRFEnabled,
	}
	l := newRouteLimits(middleware.RateLimitConfig{
		Logger:  a.logger,
		Metrics: a.recorder,
		Buckets: a.cache,
		Enabled: a.cfg.RateLimitEnabled,
	})

	r := chi.NewRouter()

	// Global middleware
	if a.cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(a.logger, a.recorder))
	r.Use(middleware.Recoverer(a.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      a.cfg.IsDevelopment(),
		MaxRequestBodySize: a.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(a.cfg.MaxRequestBodySize))
	r.Use(middleware.CORS(a.cfg.GetCORSAllowedOrigins()))

	// Probes and metrics (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if a.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", handler.NewMetricsHandler(a.gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(l.signup).Post("/signup", authHandler.Signup)
			r.With(l.login).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(sessionCfg))
				r.Use(middleware.RequireCSRF(csrfCfg))

				r.With(l.logout).Post("/logout", authHandler.Logout)
				r.With(l.read).Get("/me", authHandler.Me)
				r.With(l.read).Get("/csrf-token", authHandler.CSRFToken)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(sessionCfg))
			r.Use(middleware.RequireCSRF(csrfCfg))

			r.Route("/tasks", func(r chi.Router) {
				// Fixed paths first so they never match {id}.
				r.With(l.read).Get("/analytics", taskHandler.Analytics)
				r.With(l.delete).Delete("/completed", taskHandler.DeleteCompleted)
				mountResource(r, taskHandler.ResourceHandler, l.read, l.create, l.edit, l.delete)
				r.With(l.edit).Patch("/{id}/complete", taskHandler.Complete)
				r.With(l.edit).Patch("/{id}/incomplete", taskHandler.Incomplete)
			})

			r.Route("/habits", func(r chi.Router) {
				r.With(l.read).Get("/analytics", habitHandler.Analytics)
				mountResource(r, habitHandler.ResourceHandler, l.read, l.create, l.edit, l.delete)
				r.With(l.edit).Patch("/{id}/complete", habitHandler.Complete)
			})

			r.Route("/notes", func(r chi.Router) {
				mountResource(r, noteHandler, l.read, l.create, l.edit, l.delete)
			})

			r.Route("/budgets", func(r chi.Router) {
				mountResource(r, budgetHandler.ResourceHandler, l.read, l.create, l.financeEdit, l.financeDelete)
				r.With(l.financeEdit).Post("/{id}/recalculate", budgetHandler.Recalculate)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.With(l.read).Get("/analytics", transactionHandler.Analytics)
				mountResource(r, transactionHandler.ResourceHandler, l.read, l.create, l.financeEdit, l.financeDelete)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
