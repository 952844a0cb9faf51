// Package service provides business logic for the application.
//
// Every user-owned resource goes through the same pipeline: ownership
// resolution, closed-schema validation, HTML escaping of free text,
// field-by-field application and an invariant check, with the write and
// any derived writes committed in one storage transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow/internal/metrics"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/sanitize"
	"github.com/taskflow/taskflow/internal/validation"
)

// Service errors.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrHabitAlreadyCompleted = errors.New("habit already completed today")
	ErrNoCompletedTasks      = errors.New("no completed tasks found")
	ErrEmailTaken            = errors.New("this email is associated with another account")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthenticated       = errors.New("unauthenticated")
)

// Pagination bounds.
const (
	MaxPerPage         = 100
	DefaultPlannerPage = 8
	DefaultFinancePage = 12
)

// AnalyticsCache stores per-user aggregates. *cache.Cache implements it.
type AnalyticsCache interface {
	GetAnalytics(ctx context.Context, userID, kind string, dst any) error
	SetAnalytics(ctx context.Context, userID, kind string, value any, ttl time.Duration) error
	InvalidateAnalytics(ctx context.Context, userID string, kinds ...string) error
}

// Deps are the collaborators shared by all services.
type Deps struct {
	Store     repository.Store
	Validator *validation.Validator
	Metrics   metrics.Recorder
	Logger    *slog.Logger

	// Cache is optional; analytics are computed on every call without it.
	Cache        AnalyticsCache
	AnalyticsTTL time.Duration

	// Location decides which calendar day "today" is.
	Location *time.Location
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewNoop()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) now() time.Time {
	return d.Now().UTC()
}

func (d Deps) today() model.Date {
	return model.DateOf(d.Now().In(d.Location))
}

// Payload is a request schema that can build and patch an entity.
type Payload[E model.Entity] interface {
	// Text lists the free-text fields to escape.
	Text() []*string
	Build(base model.Base) E
	// Apply copies the supplied fields onto e.
	Apply(e E)
}

// Page is one slice of a listing.
type Page[E any] struct {
	Items       []E
	Total       int
	Pages       int
	CurrentPage int
	PerPage     int
}

// Resource implements the shared CRUD pipeline for one entity type.
type Resource[E model.Entity, P Payload[E]] struct {
	kind       string
	perPage    int
	deps       Deps
	newPayload func() P
	table      func(repository.Store) repository.Table[E]

	// beforeSave runs inside the transaction before insert and update.
	beforeSave func(ctx context.Context, tx repository.Store, e E) error
	// afterWrite runs inside the transaction after every write with the
	// rows whose derived data may have changed.
	afterWrite func(ctx context.Context, tx repository.Store, affected ...E) error
	// analytics is the aggregate kind invalidated by writes, if any.
	analytics string
}

// Kind names the resource in logs and metrics.
func (r *Resource[E, P]) Kind() string {
	return r.kind
}

// Get returns the entity only if ownerID owns it.
func (r *Resource[E, P]) Get(ctx context.Context, ownerID, id string) (E, error) {
	return r.resolve(ctx, r.deps.Store, ownerID, id)
}

// List returns one page of ownerID's entities, newest first. Out of
// range page and perPage values fall back to the defaults.
func (r *Resource[E, P]) List(ctx context.Context, ownerID string, page, perPage int) (*Page[E], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = r.perPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	items, total, err := r.table(r.deps.Store).List(ctx, ownerID, repository.ListOptions{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind, err)
	}

	return &Page[E]{
		Items:       items,
		Total:       total,
		Pages:       (total + perPage - 1) / perPage,
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

// Create validates body and stores a new entity owned by ownerID.
func (r *Resource[E, P]) Create(ctx context.Context, ownerID string, body []byte) (E, error) {
	var zero E

	p, err := r.decode(body, false)
	if err != nil {
		return zero, err
	}

	e := p.Build(model.NewBase(uuid.NewString(), ownerID, r.deps.now()))
	if err := r.check(e); err != nil {
		return zero, err
	}

	err = r.deps.Store.InTx(ctx, func(tx repository.Store) error {
		if r.beforeSave != nil {
			if err := r.beforeSave(ctx, tx, e); err != nil {
				return err
			}
		}
		if err := r.table(tx).Insert(ctx, e); err != nil {
			return fmt.Errorf("insert %s: %w", r.kind, err)
		}
		return r.after(ctx, tx, e)
	})
	if err != nil {
		return zero, err
	}

	r.committed(ctx, ownerID, metrics.OpCreate)
	return e, nil
}

// Edit applies the fields supplied in body to the entity.
func (r *Resource[E, P]) Edit(ctx context.Context, ownerID, id string, body []byte) (E, error) {
	var zero E

	e, err := r.resolve(ctx, r.deps.Store, ownerID, id)
	if err != nil {
		return zero, err
	}

	p, err := r.decode(body, true)
	if err != nil {
		return zero, err
	}

	var prev E
	if r.afterWrite != nil {
		// Second copy: derived data of the old values must be refreshed too.
		if prev, err = r.resolve(ctx, r.deps.Store, ownerID, id); err != nil {
			return zero, err
		}
	}

	p.Apply(e)
	e.Touch(r.deps.now())
	if err := r.check(e); err != nil {
		return zero, err
	}

	err = r.deps.Store.InTx(ctx, func(tx repository.Store) error {
		if err := r.update(ctx, tx, e); err != nil {
			return err
		}
		if r.afterWrite != nil {
			return r.afterWrite(ctx, tx, prev, e)
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	r.committed(ctx, ownerID, metrics.OpEdit)
	return e, nil
}

// Delete removes the entity. Deleting an absent or foreign entity is
// ErrNotFound every time.
func (r *Resource[E, P]) Delete(ctx context.Context, ownerID, id string) error {
	e, err := r.resolve(ctx, r.deps.Store, ownerID, id)
	if err != nil {
		return err
	}

	err = r.deps.Store.InTx(ctx, func(tx repository.Store) error {
		if err := r.table(tx).Delete(ctx, ownerID, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("delete %s: %w", r.kind, err)
		}
		return r.after(ctx, tx, e)
	})
	if err != nil {
		return err
	}

	r.committed(ctx, ownerID, metrics.OpDelete)
	return nil
}

// mutate runs fn against the owned entity and saves the result in one
// transaction. An error from fn rolls everything back.
func (r *Resource[E, P]) mutate(ctx context.Context, ownerID, id string, fn func(ctx context.Context, tx repository.Store, e E) error) (E, error) {
	var zero E

	e, err := r.resolve(ctx, r.deps.Store, ownerID, id)
	if err != nil {
		return zero, err
	}

	err = r.deps.Store.InTx(ctx, func(tx repository.Store) error {
		if err := fn(ctx, tx, e); err != nil {
			return err
		}
		e.Touch(r.deps.now())
		if err := r.check(e); err != nil {
			return err
		}
		if err := r.update(ctx, tx, e); err != nil {
			return err
		}
		return r.after(ctx, tx, e)
	})
	if err != nil {
		return zero, err
	}

	r.committed(ctx, ownerID, metrics.OpEdit)
	return e, nil
}

func (r *Resource[E, P]) resolve(ctx context.Context, store repository.Store, ownerID, id string) (E, error) {
	var zero E

	e, err := r.table(store).Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("get %s: %w", r.kind, err)
	}
	if e.OwnerID() != ownerID {
		return zero, ErrNotFound
	}
	return e, nil
}

func (r *Resource[E, P]) decode(body []byte, partial bool) (P, error) {
	p := r.newPayload()
	if _, err := r.deps.Validator.Decode(body, p, partial); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			r.deps.Metrics.IncValidationFailure(r.kind)
		}
		return p, err
	}
	sanitize.Text(p.Text()...)
	return p, nil
}

func (r *Resource[E, P]) check(e E) error {
	err := e.Check()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrInvalidDateRange):
		r.deps.Metrics.IncValidationFailure(r.kind)
		return validation.NewFieldError("end_date", "End date must not be before start date.")
	default:
		return fmt.Errorf("check %s: %w", r.kind, err)
	}
}

func (r *Resource[E, P]) update(ctx context.Context, tx repository.Store, e E) error {
	if r.beforeSave != nil {
		if err := r.beforeSave(ctx, tx, e); err != nil {
			return err
		}
	}
	if err := r.table(tx).Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update %s: %w", r.kind, err)
	}
	return nil
}

func (r *Resource[E, P]) after(ctx context.Context, tx repository.Store, e E) error {
	if r.afterWrite == nil {
		return nil
	}
	return r.afterWrite(ctx, tx, e)
}

func (r *Resource[E, P]) committed(ctx context.Context, ownerID, op string) {
	r.deps.Metrics.IncMutation(r.kind, op)
	r.deps.Logger.InfoContext(ctx, "resource changed",
		"kind", r.kind,
		"op", op,
		"user_id", ownerID,
	)

	if r.analytics == "" || r.deps.Cache == nil {
		return
	}
	if err := r.deps.Cache.InvalidateAnalytics(ctx, ownerID, r.analytics); err != nil {
		// Entries expire on their own; a stale read is acceptable.
		r.deps.Logger.WarnContext(ctx, "analytics invalidation failed",
			"kind", r.analytics,
			"error", err,
		)
	}
}
