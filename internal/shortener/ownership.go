package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shortlink/internal/db"
)

// OwnershipService is owner-scoped CRUD over links. A link that exists but
// belongs to someone else is reported as ErrNotFound.
type OwnershipService struct {
	store   OwnedStore
	baseURL string
	logger  *slog.Logger
}

// NewOwnershipService wires an ownership service.
func NewOwnershipService(store OwnedStore, baseURL string, logger *slog.Logger) *OwnershipService {
	return &OwnershipService{store: store, baseURL: baseURL, logger: logger}
}

// List returns the owner's live links, newest first.
func (s *OwnershipService) List(ctx context.Context, owner string) ([]LinkView, error) {
	links, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	views := make([]LinkView, 0, len(links))
	for i := range links {
		views = append(views, *newLinkView(&links[i], s.baseURL))
	}
	return views, nil
}

// Update replaces the destination of an owned link after re-validating it.
func (s *OwnershipService) Update(ctx context.Context, owner, id, originalURL string) (*LinkView, error) {
	stored, err := ValidateURL(originalURL)
	if err != nil {
		return nil, err
	}

	link, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	link.OriginalURL = stored
	if err := s.store.Save(ctx, link); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save link: %w", err)
	}

	s.logger.Info("short link updated", "id", link.ID, "owner", owner)
	return newLinkView(link, s.baseURL), nil
}

// Delete soft-deletes an owned link. Its code stays reserved.
func (s *OwnershipService) Delete(ctx context.Context, owner, id string) error {
	link, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}

	affected, err := s.store.SoftDelete(ctx, link.ID)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.Info("short link deleted", "id", link.ID, "owner", owner)
	return nil
}

func (s *OwnershipService) owned(ctx context.Context, owner, id string) (*db.Link, error) {
	if owner == "" || id == "" {
		return nil, ErrNotFound
	}
	link, err := s.store.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find owned link: %w", err)
	}
	return link, nil
}
