package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError: malformed or missing input. 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError: unknown id or business key. 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func NotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// StateConflictError: illegal or concurrently-invalidated transition. 409.
type StateConflictError struct {
	Message string
}

func (e *StateConflictError) Error() string { return e.Message }

func StateConflict(format string, args ...any) *StateConflictError {
	return &StateConflictError{Message: fmt.Sprintf(format, args...)}
}

// ReconciliationError: GRN line quantities do not balance. 400.
type ReconciliationError struct {
	Message string
}

func (e *ReconciliationError) Error() string { return e.Message }

func Reconciliation(format string, args ...any) *ReconciliationError {
	return &ReconciliationError{Message: fmt.Sprintf(format, args...)}
}

// MissingWarehouseError: an accepted line without a resolvable warehouse. 400.
type MissingWarehouseError struct {
	ItemCode string
}

func (e *MissingWarehouseError) Error() string {
	return fmt.Sprintf("Item %s: warehouse location is required", e.ItemCode)
}

// PersistenceError: storage failure, wrapped with the operation that hit it. 500.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("Failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// HTTPStatus maps a taxonomy error to its response status.
func HTTPStatus(err error) int {
	var (
		validation     *ValidationError
		notFound       *NotFoundError
		stateConflict  *StateConflictError
		reconciliation *ReconciliationError
		missingWh      *MissingWarehouseError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &reconciliation), errors.As(err, &missingWh):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &stateConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
