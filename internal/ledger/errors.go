package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation   = errors.New("invalid trip leg")
	ErrNotFound     = errors.New("trip leg not found")
	ErrImportFormat = errors.New("malformed snapshot")
	ErrPersistence  = errors.New("snapshot persistence failed")
)

// ValidationError rejects a leg before any store mutation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError is returned by targeted lookups and edits.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("trip leg %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RowProblem points at one cell of an imported snapshot.
// Row 0 is the header; data rows are numbered from 1.
type RowProblem struct {
	Row    int
	Column string
	Reason string
}

func (p RowProblem) String() string {
	if p.Column == "" {
		return fmt.Sprintf("row %d: %s", p.Row, p.Reason)
	}
	return fmt.Sprintf("row %d, column %s: %s", p.Row, p.Column, p.Reason)
}

// ImportFormatError lists every problem found in a snapshot. An import that
// fails with it leaves the store untouched.
type ImportFormatError struct {
	Problems []RowProblem
}

func (e *ImportFormatError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s: %s", ErrImportFormat, strings.Join(parts, "; "))
}

func (e *ImportFormatError) Is(target error) bool { return target == ErrImportFormat }

// PersistenceError wraps an opaque failure from a snapshot backend.
type PersistenceError struct {
	Op      string // "load" or "save"
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot via %s: %v", e.Op, e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
