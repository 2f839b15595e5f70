package shortener

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is a client fault: the input is not a usable URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNotFound covers both unknown codes and links owned by someone else.
	ErrNotFound = errors.New("url not found")

	// ErrCollisionExhausted is a server fault: every allocation attempt collided.
	ErrCollisionExhausted = errors.New("short code collisions exhausted")
)

// CollisionError reports a failed allocation. It matches ErrCollisionExhausted.
type CollisionError struct {
	Attempts int
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("unable to allocate a unique short code after %d attempts", e.Attempts)
}

// Is lets errors.Is(err, ErrCollisionExhausted) succeed.
func (e *CollisionError) Is(target error) bool {
	return target == ErrCollisionExhausted
}
