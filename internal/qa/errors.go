package qa

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Every error returned by Service wraps exactly one of these.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage failure")
)

var kinds = []error{ErrInvalidInput, ErrNotFound, ErrForbidden, ErrConflict, ErrStorage}

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify maps a raw storage error onto the qa taxonomy. Errors that are
// already classified pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Retryable reports whether the caller may resubmit the same request.
// Conflicts and storage failures leave no partial state behind, and every
// operation recomputes from current state, so a retry is safe.
func Retryable(err error) bool {
	if errors.Is(err, ErrConflict) {
		return true
	}
	if !errors.Is(err, ErrStorage) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return true
}
