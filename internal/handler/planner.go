package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/service"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	*ResourceHandler[*model.Task]
	svc *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		ResourceHandler: NewResourceHandler[*model.Task](svc, Labels{
			Plural:   "tasks",
			Created:  "Task created successfully",
			Updated:  "Task updated successfully",
			Deleted:  "Task deleted successfully",
			NotFound: "Task not found",
		}, logger),
		svc: svc,
	}
}

// Complete handles PATCH /api/v1/tasks/{id}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Complete(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, task, "Task completed successfully")
}

// Incomplete handles PATCH /api/v1/tasks/{id}/incomplete.
func (h *TaskHandler) Incomplete(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.Incomplete(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, task, "Task marked as incomplete")
}

// DeleteCompleted handles DELETE /api/v1/tasks/completed.
func (h *TaskHandler) DeleteCompleted(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteCompleted(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int{"deleted": n}, "All completed tasks deleted successfully")
}

// Analytics handles GET /api/v1/tasks/analytics.
func (h *TaskHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Analytics(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, data, "")
}

// HabitHandler handles HTTP requests for habits.
type HabitHandler struct {
	*ResourceHandler[*model.Habit]
	svc *service.HabitService
}

// NewHabitHandler creates a new HabitHandler.
func NewHabitHandler(svc *service.HabitService, logger *slog.Logger) *HabitHandler {
	return &HabitHandler{
		ResourceHandler: NewResourceHandler[*model.Habit](svc, Labels{
			Plural:   "habits",
			Created:  "Habit created successfully",
			Updated:  "Habit updated successfully",
			Deleted:  "Habit deleted successfully",
			NotFound: "Habit not found",
		}, logger),
		svc: svc,
	}
}

// Complete handles PATCH /api/v1/habits/{id}/complete. A second
// completion on the same day is 409 and changes nothing.
func (h *HabitHandler) Complete(w http.ResponseWriter, r *http.Request) {
	habit, err := h.svc.Complete(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, habit, "Habit marked as completed")
}

// Analytics handles GET /api/v1/habits/analytics.
func (h *HabitHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Analytics(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, data, "")
}

// NewNoteHandler creates the handler for notes, which have no routes
// beyond CRUD.
func NewNoteHandler(svc *service.NoteService, logger *slog.Logger) *ResourceHandler[*model.Note] {
	return NewResourceHandler[*model.Note](svc, Labels{
		Plural:   "notes",
		Created:  "Note created successfully",
		Updated:  "Note updated successfully",
		Deleted:  "Note deleted successfully",
		NotFound: "Note not found",
	}, logger)
}
