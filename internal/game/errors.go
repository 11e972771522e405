package game

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("action not valid in current state")
	ErrUnauthorized       = errors.New("only the host can do that")
	ErrContentUnavailable = errors.New("content provider unavailable")
	ErrPersistence        = errors.New("persistence failure")
	ErrCodeTaken          = errors.New("room code already in use")
)

// IsSilent reports whether err is a stale, duplicate or unauthorized action
// that should be dropped without telling anyone.
func IsSilent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) || errors.Is(err, ErrUnauthorized)
}

func persistErr(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
