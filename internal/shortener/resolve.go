package shortener

import (
	"context"
	"errors"
	"fmt"

	"shortlink/internal/db"
)

// ResolveService turns short codes back into destination URLs.
type ResolveService struct {
	links  CodeLookup
	clicks ClickRecorder
}

// NewResolveService wires a resolution service.
func NewResolveService(links CodeLookup, clicks ClickRecorder) *ResolveService {
	return &ResolveService{links: links, clicks: clicks}
}

// Resolve returns the destination for code with an explicit protocol.
// The click is handed to the recorder without waiting; accounting failures
// never reach the caller.
func (s *ResolveService) Resolve(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", ErrNotFound
	}

	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find short code: %w", err)
	}

	s.clicks.Record(link.ID)

	return NormalizeProtocol(link.OriginalURL), nil
}
