package shortener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"shortlink/internal/db"
)

// stubGenerator returns the queued codes in order, then fails.
type stubGenerator struct {
	mu    sync.Mutex
	codes []string
	calls int
}

func (g *stubGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.codes) == 0 {
		return "", errors.New("stub generator exhausted")
	}
	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return code, nil
}

// fixedGenerator always returns the same code.
type fixedGenerator string

func (g fixedGenerator) Generate() (string, error) { return string(g), nil }

// fakeStore is an in-memory record store with a unique index on short
// codes that, like the real one, also covers soft-deleted rows.
type fakeStore struct {
	mu      sync.Mutex
	byID    map[string]*db.Link
	byCode  map[string]string
	nextID  int
	inserts int
	saves   int
	deletes int

	// hideFromCheck makes CodeExists report false for these codes, which
	// simulates a concurrent writer claiming them after the pre-check.
	hideFromCheck map[string]bool
	findErr       error
	insertErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:          make(map[string]*db.Link),
		byCode:        make(map[string]string),
		hideFromCheck: make(map[string]bool),
	}
}

func (s *fakeStore) seed(code, originalURL string, owner *string) *db.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	link := &db.Link{
		ID:          fmt.Sprintf("seed-%d", s.nextID),
		ShortCode:   code,
		OriginalURL: originalURL,
		OwnerID:     owner,
		CreatedAt:   time.Now().Add(time.Duration(s.nextID) * time.Second),
	}
	s.byID[link.ID] = link
	s.byCode[code] = link.ID
	return link
}

func (s *fakeStore) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideFromCheck[code] {
		return false, nil
	}
	_, ok := s.byCode[code]
	return ok, nil
}

func (s *fakeStore) Insert(_ context.Context, link *db.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.byCode[link.ShortCode]; ok {
		return fmt.Errorf("%w: short_code", db.ErrDuplicate)
	}
	s.nextID++
	s.inserts++
	link.ID = fmt.Sprintf("link-%d", s.nextID)
	link.CreatedAt = time.Now()
	link.UpdatedAt = link.CreatedAt
	stored := *link
	s.byID[link.ID] = &stored
	s.byCode[link.ShortCode] = link.ID
	return nil
}

func (s *fakeStore) FindByCode(_ context.Context, code string) (*db.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	id, ok := s.byCode[code]
	if !ok || s.byID[id].DeletedAt != nil {
		return nil, db.ErrNotFound
	}
	link := *s.byID[id]
	return &link, nil
}

func (s *fakeStore) FindByIDAndOwner(_ context.Context, id, owner string) (*db.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.byID[id]
	if !ok || link.DeletedAt != nil || link.OwnerID == nil || *link.OwnerID != owner {
		return nil, db.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (s *fakeStore) ListByOwner(_ context.Context, owner string) ([]db.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Link
	for _, link := range s.byID {
		if link.DeletedAt == nil && link.OwnerID != nil && *link.OwnerID == owner {
			out = append(out, *link)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) Save(_ context.Context, link *db.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[link.ID]
	if !ok || stored.DeletedAt != nil {
		return db.ErrNotFound
	}
	s.saves++
	stored.OriginalURL = link.OriginalURL
	stored.UpdatedAt = time.Now()
	link.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *fakeStore) SoftDelete(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.byID[id]
	if !ok || link.DeletedAt != nil {
		return 0, nil
	}
	s.deletes++
	now := time.Now()
	link.DeletedAt = &now
	return 1, nil
}

func (s *fakeStore) get(id string) db.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.byID[id]
}

func (s *fakeStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// recordingClicks is a synchronous ClickRecorder.
type recordingClicks struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingClicks) Record(linkID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, linkID)
}

func (r *recordingClicks) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func ptr(s string) *string { return &s }
