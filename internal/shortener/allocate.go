package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shortlink/internal/db"
)

// DefaultMaxAttempts bounds the allocation loop.
const DefaultMaxAttempts = 5

// CodeGenerator produces candidate short codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeChecker answers whether a candidate is already taken.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// ClaimFunc persists a record under code. Returning an error wrapping
// db.ErrDuplicate means another writer won the code, and the allocation
// loop treats it exactly like a pre-check collision.
type ClaimFunc func(ctx context.Context, code string) error

// Allocator hands out short codes that are unique at the time of insertion.
// The existence check is only a fast path; the store's unique index decides.
type Allocator struct {
	generator   CodeGenerator
	codes       CodeChecker
	maxAttempts int
	logger      *slog.Logger
}

// NewAllocator builds an allocator. Non-positive maxAttempts falls back to
// DefaultMaxAttempts.
func NewAllocator(generator CodeGenerator, codes CodeChecker, maxAttempts int, logger *slog.Logger) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		generator:   generator,
		codes:       codes,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Allocate generates candidates until one is free and claim succeeds for
// it. claim must not be nil. It gives up with a *CollisionError after
// maxAttempts collisions. Generator and store failures other than a
// uniqueness violation are returned as-is.
func (a *Allocator) Allocate(ctx context.Context, claim ClaimFunc) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := a.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generate short code: %w", err)
		}

		taken, err := a.codes.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}
		if taken {
			a.logger.Warn("short code collision", "attempt", attempt, "code", code)
			continue
		}

		err = claim(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return "", err
		}
		a.logger.Warn("short code claimed concurrently", "attempt", attempt, "code", code)
	}

	return "", &CollisionError{Attempts: a.maxAttempts}
}
