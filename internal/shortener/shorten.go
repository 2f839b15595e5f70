package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shortlink/internal/db"
)

// ShortenService validates URLs, allocates codes and persists new links.
type ShortenService struct {
	store     CodeStore
	allocator *Allocator
	baseURL   string
	logger    *slog.Logger
}

// NewShortenService wires a shortening service. baseURL should already have
// its trailing slashes stripped; any that remain are ignored.
func NewShortenService(store CodeStore, allocator *Allocator, baseURL string, logger *slog.Logger) *ShortenService {
	return &ShortenService{
		store:     store,
		allocator: allocator,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// Shorten creates a link for originalURL, owned by owner when it is not nil.
// Invalid input fails before the store or the generator are touched.
func (s *ShortenService) Shorten(ctx context.Context, originalURL string, owner *string) (*LinkView, error) {
	stored, err := ValidateURL(originalURL)
	if err != nil {
		return nil, err
	}

	var created *db.Link
	_, err = s.allocator.Allocate(ctx, func(ctx context.Context, code string) error {
		link := &db.Link{
			OriginalURL: stored,
			ShortCode:   code,
			OwnerID:     owner,
		}
		if err := s.store.Insert(ctx, link); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
		created = link
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCollisionExhausted) {
			s.logger.Error("short code allocation exhausted", "error", err)
		}
		return nil, err
	}

	s.logger.Info("short link created", "id", created.ID, "code", created.ShortCode, "owned", owner != nil)
	return newLinkView(created, s.baseURL), nil
}
