package model

import (
	"time"

	"github.com/google/uuid"
)

// Todo is the domain model for a todo entry.
type Todo struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsComplete  bool      `json:"is_complete"`
	DateCreated time.Time `json:"date_created"`
	DateUpdated time.Time `json:"date_updated"`
}

// Draft returns an editable copy of t. Changes to the draft never reach the
// stored record until they are committed through the store.
func (t Todo) Draft() Draft {
	return Draft{ID: t.ID, Title: t.Title, Description: t.Description}
}

// Draft is an uncommitted title/description pair. A zero ID means the draft
// describes a new record.
type Draft struct {
	ID          uuid.UUID `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// NewDraft returns an empty draft for a record that does not exist yet.
func NewDraft() Draft { return Draft{} }

// IsNew reports whether the draft targets a record that has not been created.
func (d Draft) IsNew() bool { return d.ID == uuid.Nil }
