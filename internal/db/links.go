package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
)

// LinkStore is the gorm-backed record store for links.
// Uniqueness and click increments are enforced by the database; the store
// keeps no in-process state.
type LinkStore struct {
	db *gorm.DB
}

// NewLinkStore wraps an open connection.
func NewLinkStore(conn *gorm.DB) *LinkStore {
	return &LinkStore{db: conn}
}

// CodeExists reports whether any row, soft-deleted or not, holds code.
func (s *LinkStore) CodeExists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var count int64
	err := s.db.Unscoped().Model(&Link{}).Where("short_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count short code: %w", err)
	}
	return count > 0, nil
}

// FindByCode retrieves the live link holding code.
func (s *LinkStore) FindByCode(ctx context.Context, code string) (*Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var link Link
	if err := s.db.Where("short_code = ?", code).First(&link).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

// FindByID retrieves a live link by its identifier.
func (s *LinkStore) FindByID(ctx context.Context, id string) (*Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var link Link
	if err := s.db.Where("id = ?", id).First(&link).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

// Insert creates a new link record. A taken short code yields ErrDuplicate.
func (s *LinkStore) Insert(ctx context.Context, link *Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Create(link).Error; err != nil {
		return translate(err)
	}
	return nil
}

// IncrementClicks adds one to the click counter in a single UPDATE.
// updated_at is left untouched.
func (s *LinkStore) IncrementClicks(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := s.db.Model(&Link{}).Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment clicks: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByIDAndOwner retrieves a live link only if owner holds it.
func (s *LinkStore) FindByIDAndOwner(ctx context.Context, id, owner string) (*Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var link Link
	if err := s.db.Where("id = ? AND owner_id = ?", id, owner).First(&link).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

// ListByOwner returns the owner's live links, newest first.
func (s *LinkStore) ListByOwner(ctx context.Context, owner string) ([]Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	links := []Link{}
	if err := s.db.Where("owner_id = ?", owner).Order("created_at desc").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// Save persists the mutable columns of link. Only original_url and
// updated_at are written so concurrent click increments survive.
func (s *LinkStore) Save(ctx context.Context, link *Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now()
	res := s.db.Model(&Link{}).Where("id = ?", link.ID).Updates(map[string]interface{}{
		"original_url": link.OriginalURL,
		"updated_at":   now,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	link.UpdatedAt = now
	return nil
}

// SoftDelete stamps deleted_at on a live link and returns the affected count.
func (s *LinkStore) SoftDelete(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res := s.db.Where("id = ?", id).Delete(&Link{})
	if res.Error != nil {
		return 0, fmt.Errorf("soft delete link: %w", res.Error)
	}
	return res.RowsAffected, nil
}
