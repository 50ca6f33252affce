package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrInvalidStatus    = errors.New("invalid status transition")
)

// DuplicateActiveError signals that an existing non-terminal application
// blocks the requested action; the conflicting id lets the UI redirect.
type DuplicateActiveError struct {
	ConflictingID     uuid.UUID
	ConflictingNumber string
}

func (e *DuplicateActiveError) Error() string {
	return fmt.Sprintf("an active application already exists: %s", e.ConflictingNumber)
}
