package service

import (
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/schema"
)

// NoteService handles note business logic.
type NoteService struct {
	*Resource[*model.Note, *schema.Note]
}

// NewNoteService creates a new NoteService.
func NewNoteService(deps Deps) *NoteService {
	deps = deps.withDefaults()
	return &NoteService{&Resource[*model.Note, *schema.Note]{
		kind:       "note",
		perPage:    DefaultPlannerPage,
		deps:       deps,
		newPayload: func() *schema.Note { return &schema.Note{} },
		table:      repository.Store.Notes,
	}}
}
