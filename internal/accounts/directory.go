// Package accounts registers, authenticates and maintains link owners.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shortlink/internal/db"
)

const minPasswordLength = 6

var (
	// ErrInvalidInput wraps every validation failure on email or password.
	ErrInvalidInput = errors.New("invalid account data")
	// ErrEmailTaken means another live account already uses the email.
	ErrEmailTaken = errors.New("the email provided is already in use")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound means no live account has the id.
	ErrNotFound = errors.New("user not found")
)

// Store is the persistence the directory needs.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*db.Account, error)
	FindByID(ctx context.Context, id string) (*db.Account, error)
	Create(ctx context.Context, account *db.Account) error
	Update(ctx context.Context, account *db.Account) error
	SoftDelete(ctx context.Context, id string) (int64, error)
}

// AccountView is an account without its credentials.
type AccountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAccountView(a *db.Account) *AccountView {
	return &AccountView{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}

// Directory is the account service.
type Directory struct {
	store    Store
	hashCost int
	logger   *slog.Logger
}

// NewDirectory builds a directory. hashCost outside bcrypt's range falls
// back to bcrypt.DefaultCost.
func NewDirectory(store Store, hashCost int, logger *slog.Logger) *Directory {
	if hashCost < bcrypt.MinCost || hashCost > bcrypt.MaxCost {
		hashCost = bcrypt.DefaultCost
	}
	return &Directory{store: store, hashCost: hashCost, logger: logger}
}

// Register creates an account.
func (d *Directory) Register(ctx context.Context, email, password string) (*AccountView, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	if _, err := d.store.FindByEmail(ctx, email); err == nil {
		d.logger.Warn("registration rejected, email in use", "email", email)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &db.Account{Email: email, PasswordHash: string(hash)}
	if err := d.store.Create(ctx, account); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	d.logger.Info("account registered", "id", account.ID)
	return newAccountView(account), nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (*AccountView, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := d.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			d.logger.Warn("login failed, unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		d.logger.Warn("login failed, wrong password", "id", account.ID)
		return nil, ErrInvalidCredentials
	}
	return newAccountView(account), nil
}

// Update changes the email, the password, or both. Nil fields are left alone.
func (d *Directory) Update(ctx context.Context, id string, email, password *string) (*AccountView, error) {
	if email == nil && password == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	account, err := d.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != nil {
		normalized, err := normalizeEmail(*email)
		if err != nil {
			return nil, err
		}
		if normalized != account.Email {
			if _, err := d.store.FindByEmail(ctx, normalized); err == nil {
				return nil, ErrEmailTaken
			} else if !errors.Is(err, db.ErrNotFound) {
				return nil, fmt.Errorf("look up email: %w", err)
			}
		}
		account.Email = normalized
	}

	if password != nil {
		if err := checkPassword(*password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), d.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = string(hash)
	}

	if err := d.store.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicate):
			return nil, ErrEmailTaken
		case errors.Is(err, db.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	d.logger.Info("account updated", "id", account.ID)
	return newAccountView(account), nil
}

// Delete soft-deletes an account. Links it owns are left in place.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	affected, err := d.store.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if affected == 0 {
		d.logger.Warn("account could not be deleted", "id", id)
		return ErrNotFound
	}
	d.logger.Info("account deleted", "id", id)
	return nil
}

func (d *Directory) find(ctx context.Context, id string) (*db.Account, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	account, err := d.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return "", fmt.Errorf("%w: email must be a valid address", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	// bcrypt ignores everything past 72 bytes and rejects longer input.
	if len(password) > 72 {
		return fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
	}
	return nil
}
