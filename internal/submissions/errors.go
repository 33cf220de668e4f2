package submissions

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidType       = errors.New("invalid submission type")
	ErrNotFound          = errors.New("submission not found")
	ErrUnavailable       = errors.New("submission store unavailable")
	ErrForbiddenField    = errors.New("immutable field cannot be changed")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrDuplicateID       = errors.New("submission id already exists")
)

// ValidationError carries per-field reasons. No write happens when it is
// returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}
