package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/service"
)

// ResourceService is the CRUD surface shared by every owned resource.
// The services embedding *service.Resource implement it.
type ResourceService[E model.Entity] interface {
	Get(ctx context.Context, ownerID, id string) (E, error)
	List(ctx context.Context, ownerID string, page, perPage int) (*service.Page[E], error)
	Create(ctx context.Context, ownerID string, body []byte) (E, error)
	Edit(ctx context.Context, ownerID, id string, body []byte) (E, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Labels name a resource in response bodies.
type Labels struct {
	// Plural is the key of the item list in list responses.
	Plural  string
	Created string
	Updated string
	Deleted string
	// NotFound is reported for missing and foreign entities alike.
	NotFound string
}

// ResourceHandler handles the CRUD routes of one resource.
type ResourceHandler[E model.Entity] struct {
	svc    ResourceService[E]
	labels Labels
	logger *slog.Logger
	errs   errorWriter
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler[E model.Entity](svc ResourceService[E], labels Labels, logger *slog.Logger) *ResourceHandler[E] {
	return &ResourceHandler[E]{
		svc:    svc,
		labels: labels,
		logger: logger,
		errs:   errorWriter{logger: logger, notFound: labels.NotFound},
	}
}

// ListResponse is the data of a list response. The items are emitted
// under the resource's plural name.
type ListResponse[E any] struct {
	items       []E
	plural      string
	Total       int
	Pages       int
	CurrentPage int
	PerPage     int
}

// MarshalJSON emits the items under the plural key next to the paging fields.
func (l ListResponse[E]) MarshalJSON() ([]byte, error) {
	items := l.items
	if items == nil {
		items = []E{}
	}
	return json.Marshal(map[string]any{
		l.plural:       items,
		"total":        l.Total,
		"pages":        l.Pages,
		"current_page": l.CurrentPage,
		"per_page":     l.PerPage,
	})
}

// List handles GET /api/v1/<resource>?page=&per_page=.
func (h *ResourceHandler[E]) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	page, err := h.svc.List(r.Context(), userID, queryInt(r, "page"), queryInt(r, "per_page"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, ListResponse[E]{
		items:       page.Items,
		plural:      h.labels.Plural,
		Total:       page.Total,
		Pages:       page.Pages,
		CurrentPage: page.CurrentPage,
		PerPage:     page.PerPage,
	}, "")
}

// Get handles GET /api/v1/<resource>/{id}.
func (h *ResourceHandler[E]) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, e, "")
}

// Create handles POST /api/v1/<resource>.
func (h *ResourceHandler[E]) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	e, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), body)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, e, h.labels.Created)
}

// Edit handles PATCH /api/v1/<resource>/{id}.
func (h *ResourceHandler[E]) Edit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	e, err := h.svc.Edit(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), body)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, e, h.labels.Updated)
}

// Delete handles DELETE /api/v1/<resource>/{id}.
func (h *ResourceHandler[E]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, h.labels.Deleted)
}
