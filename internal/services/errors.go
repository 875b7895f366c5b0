package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	ErrOrderLocked          = fmt.Errorf("%w: order is locked", ErrConflict)
	ErrPendingRequestExists = fmt.Errorf("%w: an edit request is already pending", ErrConflict)
	ErrNoPendingRequest     = fmt.Errorf("%w: no pending request", ErrConflict)
)

// notFound maps a missing row to ErrNotFound naming the entity; other errors
// are wrapped unchanged.
func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}
