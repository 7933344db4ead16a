// Package form gates drafts before they reach the store and drives the
// copy-edit-commit cycle used by every editing surface.
package form

import (
	"errors"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
)

// ErrEmptyTitle is matched by every title validation failure.
var ErrEmptyTitle = errors.New("Title cannot be empty.")

// ValidationError reports why a draft field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Is lets errors.Is(err, ErrEmptyTitle) match title failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrEmptyTitle && e.Field == "title"
}

// ValidateTitle rejects titles that are empty once surrounding whitespace is
// trimmed.
func ValidateTitle(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "title", Reason: ErrEmptyTitle.Error()}
	}
	return nil
}

// IsSubmittable reports whether d may be committed. Descriptions are free-form.
func IsSubmittable(d model.Draft) bool {
	return ValidateTitle(d.Title) == nil
}

// Reason returns the user-facing message for a validation error, or "" when
// err is nil or not a validation failure.
func Reason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}
