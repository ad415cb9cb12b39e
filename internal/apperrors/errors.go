// Package apperrors holds the error kinds shared by the stores, services and
// HTTP handlers. Concrete errors wrap exactly one kind so callers can branch
// with errors.Is.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrCapacityViolation = errors.New("capacity violation")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrPersistence       = errors.New("persistence failure")
	ErrPrinting          = errors.New("printing failure")
)

var (
	ErrTicketTypeNotFound = fmt.Errorf("ticket type %w", ErrNotFound)
	ErrEventNotFound      = fmt.Errorf("event %w", ErrNotFound)
	ErrEventNotActive     = fmt.Errorf("event is not active: %w", ErrNotFound)
	ErrSaleNotFound       = fmt.Errorf("sale %w", ErrNotFound)
	ErrSnapshotNotFound   = fmt.Errorf("close snapshot %w", ErrNotFound)
	ErrGuestNotFound      = fmt.Errorf("guest %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrRoleNotFound       = fmt.Errorf("role %w", ErrNotFound)
	ErrPresaleNotFound    = fmt.Errorf("presale %w", ErrNotFound)

	ErrInvalidQuantity  = fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	ErrInvalidOperation = fmt.Errorf("%w: operation must be sale or correction", ErrInvalidInput)
	ErrInvalidCapacity  = fmt.Errorf("%w: capacity must be a positive integer", ErrInvalidInput)
	ErrInvalidPrice     = fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	ErrInvalidSchedule  = fmt.Errorf("%w: automatic price change needs start, end and new price", ErrInvalidInput)

	ErrTicketTypeInUse  = fmt.Errorf("%w: ticket type has ledger rows", ErrConflict)
	ErrDuplicateRequest = fmt.Errorf("%w: request with this idempotency key is in progress", ErrConflict)
	ErrDuplicateEvent   = fmt.Errorf("%w: an event already exists at that date", ErrConflict)

	ErrPrintingDisabled = fmt.Errorf("%w: printing is disabled", ErrPrinting)
)

// CorrectionError reports a correction larger than the running total of its
// (event, ticket type) pair.
type CorrectionError struct {
	Available int
	Requested int
}

func (e *CorrectionError) Error() string {
	return fmt.Sprintf("correction of %d exceeds the %d tickets recorded", e.Requested, e.Available)
}

func (e *CorrectionError) Unwrap() error { return ErrCapacityViolation }

// Persistence wraps a store error so it matches ErrPersistence while keeping
// the driver error reachable.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrCapacityViolation), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage hides driver details of persistence failures from clients.
func PublicMessage(err error) string {
	if errors.Is(err, ErrPersistence) {
		return ErrPersistence.Error()
	}
	return err.Error()
}
