package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound matches any *NotFoundError via errors.Is.
var ErrNotFound = errors.New("not found")

// RowError describes one rejected input row.
type RowError struct {
	Line   int // 1-based, header is line 1
	Value  string
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d (%q): %s", e.Line, e.Value, e.Reason)
}

// ValidationError lists every row rejected while parsing an import.
type ValidationError struct {
	Rows []RowError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		parts[i] = r.String()
	}
	return fmt.Sprintf("validation failed for %d row(s): %s", len(e.Rows), strings.Join(parts, "; "))
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
