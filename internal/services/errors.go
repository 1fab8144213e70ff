// Package services holds the forum's business rules: vote reconciliation,
// tallies, the answer lifecycle and its reputation bookkeeping. Every
// service receives its store capabilities through its constructor.
package services

import (
	"errors"
	"fmt"

	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrIntegrity        = errors.New("data integrity fault")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeError classifies an error coming back from a store call. The
// original message is kept so callers can pass it through.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrIntegrity):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
