package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
)

// AccountStore persists accounts.
type AccountStore struct {
	db *gorm.DB
}

// NewAccountStore wraps an open connection.
func NewAccountStore(conn *gorm.DB) *AccountStore {
	return &AccountStore{db: conn}
}

// FindByEmail retrieves a live account by email.
func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var account Account
	if err := s.db.Where("email = ?", email).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

// FindByID retrieves a live account by identifier.
func (s *AccountStore) FindByID(ctx context.Context, id string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var account Account
	if err := s.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

// Create inserts a new account. A taken email yields ErrDuplicate.
func (s *AccountStore) Create(ctx context.Context, account *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Create(account).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Update writes email and password hash.
func (s *AccountStore) Update(ctx context.Context, account *Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now()
	res := s.db.Model(&Account{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"email":         account.Email,
		"password_hash": account.PasswordHash,
		"updated_at":    now,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	account.UpdatedAt = now
	return nil
}

// SoftDelete stamps deleted_at on a live account and returns the affected count.
func (s *AccountStore) SoftDelete(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res := s.db.Where("id = ?", id).Delete(&Account{})
	if res.Error != nil {
		return 0, fmt.Errorf("soft delete account: %w", res.Error)
	}
	return res.RowsAffected, nil
}
