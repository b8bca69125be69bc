// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let handlers distinguish failure
// scenarios: ErrForbidden maps to HTTP 403 when a caller touches another
// company's rows, ErrConflict maps to 409 when an operation collides with
// existing state (pinning an already-pinned comment, consolidating a
// non-draft invoice).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another company or user.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot proceed because
// of conflicting state, such as pinning a comment that already has a task.
var ErrConflict = errors.New("conflict")
