package form

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
)

// ErrSessionClosed is returned when a session is used after confirm or cancel.
var ErrSessionClosed = errors.New("edit session closed")

// Committer applies confirmed drafts. *store.Store satisfies it.
type Committer interface {
	Create(title, description string) (model.Todo, error)
	Update(id uuid.UUID, title, description string) (model.Todo, error)
}

// Editor opens edit sessions against a committer.
type Editor struct {
	c Committer
}

func NewEditor(c Committer) *Editor {
	return &Editor{c: c}
}

// BeginCreate opens a session for a new record.
func (e *Editor) BeginCreate() *Session {
	return &Session{c: e.c, draft: model.NewDraft()}
}

// BeginEdit opens a session holding a copy of t.
func (e *Editor) BeginEdit(t model.Todo) *Session {
	return &Session{c: e.c, draft: t.Draft(), editing: true}
}

// Session holds one draft until it is confirmed or canceled.
type Session struct {
	c       Committer
	draft   model.Draft
	editing bool
	closed  bool
}

func (s *Session) SetTitle(title string)      { s.draft.Title = title }
func (s *Session) SetDescription(desc string) { s.draft.Description = desc }

// Draft returns a copy of the current draft.
func (s *Session) Draft() model.Draft { return s.draft }

// IsEditing reports whether confirming updates an existing record.
func (s *Session) IsEditing() bool { return s.editing }

// Closed reports whether the session was confirmed or canceled.
func (s *Session) Closed() bool { return s.closed }

// Error returns the live validation message for the title, "" when valid.
func (s *Session) Error() string { return Reason(ValidateTitle(s.draft.Title)) }

// CanConfirm mirrors a disabled confirm button.
func (s *Session) CanConfirm() bool { return !s.closed && IsSubmittable(s.draft) }

// Confirm commits the draft: Create for new drafts, Update for edits. An
// invalid draft returns its validation error and leaves the session open.
func (s *Session) Confirm() (model.Todo, error) {
	if s.closed {
		return model.Todo{}, ErrSessionClosed
	}
	if err := ValidateTitle(s.draft.Title); err != nil {
		return model.Todo{}, err
	}
	var (
		t   model.Todo
		err error
	)
	if s.editing {
		t, err = s.c.Update(s.draft.ID, s.draft.Title, s.draft.Description)
	} else {
		t, err = s.c.Create(s.draft.Title, s.draft.Description)
	}
	if err != nil {
		return model.Todo{}, err
	}
	s.closed = true
	return t, nil
}

// Cancel discards the draft without touching the committer.
func (s *Session) Cancel() {
	s.closed = true
	s.draft = model.Draft{}
}
