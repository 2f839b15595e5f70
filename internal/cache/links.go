package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"shortlink/internal/db"
)

const (
	keyPrefix   = "link:"
	missMarker  = "null"
	missTTL     = time.Minute
	fallbackTTL = time.Hour

	// maxFillTTL caps entries filled from a database read. A fill can race
	// with a concurrent Save or SoftDelete and put the old row back; the cap
	// bounds how long that row is served.
	maxFillTTL = 5 * time.Minute
)

// Backend is the authoritative link store.
type Backend interface {
	CodeExists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, link *db.Link) error
	FindByCode(ctx context.Context, code string) (*db.Link, error)
	FindByID(ctx context.Context, id string) (*db.Link, error)
	FindByIDAndOwner(ctx context.Context, id, owner string) (*db.Link, error)
	ListByOwner(ctx context.Context, owner string) ([]db.Link, error)
	Save(ctx context.Context, link *db.Link) error
	SoftDelete(ctx context.Context, id string) (int64, error)
	IncrementClicks(ctx context.Context, id string) error
}

// LinkCache is cache-aside over a Backend for lookups by short code.
// Every other call goes straight to the backend; writes that change what a
// code resolves to refresh or drop its key. Cached click counts are not
// kept current.
type LinkCache struct {
	Backend
	client Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewLinkCache wraps backend. A non-positive ttl falls back to one hour.
func NewLinkCache(backend Backend, client Client, ttl time.Duration, logger *slog.Logger) *LinkCache {
	if ttl <= 0 {
		ttl = fallbackTTL
	}
	return &LinkCache{Backend: backend, client: client, ttl: ttl, logger: logger}
}

func key(code string) string {
	return keyPrefix + code
}

// FindByCode serves from Redis when possible. Unknown codes are remembered
// for a minute so repeated misses do not reach the database.
func (c *LinkCache) FindByCode(ctx context.Context, code string) (*db.Link, error) {
	data, err := c.client.Get(ctx, key(code))
	switch {
	case err == nil && data == missMarker:
		return nil, db.ErrNotFound
	case err == nil:
		var link db.Link
		if jsonErr := json.Unmarshal([]byte(data), &link); jsonErr == nil {
			return &link, nil
		}
		c.logger.Debug("discarding unreadable cache entry", "code", code)
	case !errors.Is(err, ErrMiss):
		c.logger.Debug("cache read failed", "code", code, "error", err)
	}

	link, err := c.Backend.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.set(ctx, code, missMarker, missTTL)
		}
		return nil, err
	}
	c.storeFor(ctx, link, min(c.ttl, maxFillTTL))
	return link, nil
}

// Insert writes through, replacing any remembered miss for the code.
func (c *LinkCache) Insert(ctx context.Context, link *db.Link) error {
	if err := c.Backend.Insert(ctx, link); err != nil {
		return err
	}
	c.store(ctx, link)
	return nil
}

// Save updates the backend and drops the code's entry before and after
// the write.
func (c *LinkCache) Save(ctx context.Context, link *db.Link) error {
	c.invalidate(ctx, link.ShortCode)
	if err := c.Backend.Save(ctx, link); err != nil {
		return err
	}
	c.invalidate(ctx, link.ShortCode)
	return nil
}

// SoftDelete deletes in the backend and drops the code's entry before and
// after the write.
func (c *LinkCache) SoftDelete(ctx context.Context, id string) (int64, error) {
	link, err := c.Backend.FindByID(ctx, id)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return 0, err
	}

	if link != nil {
		c.invalidate(ctx, link.ShortCode)
	}
	affected, err := c.Backend.SoftDelete(ctx, id)
	if err != nil {
		return 0, err
	}
	if link != nil {
		c.invalidate(ctx, link.ShortCode)
	}
	return affected, nil
}

func (c *LinkCache) store(ctx context.Context, link *db.Link) {
	c.storeFor(ctx, link, c.ttl)
}

func (c *LinkCache) storeFor(ctx context.Context, link *db.Link, ttl time.Duration) {
	data, err := json.Marshal(link)
	if err != nil {
		c.logger.Debug("cache encode failed", "code", link.ShortCode, "error", err)
		return
	}
	c.set(ctx, link.ShortCode, string(data), ttl)
}

func (c *LinkCache) set(ctx context.Context, code, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key(code), value, ttl); err != nil {
		c.logger.Debug("cache write failed", "code", code, "error", err)
	}
}

func (c *LinkCache) invalidate(ctx context.Context, code string) {
	if err := c.client.Del(ctx, key(code)); err != nil {
		c.logger.Debug("cache invalidation failed", "code", code, "error", err)
	}
}
