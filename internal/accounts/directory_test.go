package accounts

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shortlink/internal/db"
	"shortlink/internal/logging"
)

func setupDirectory(t *testing.T) (*Directory, *db.AccountStore) {
	t.Helper()
	conn, err := db.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	store := db.NewAccountStore(conn)
	return NewDirectory(store, bcrypt.MinCost, logging.Discard()), store
}

func strPtr(s string) *string { return &s }

func TestDirectory_Register(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "alice@example.com", password: "secret1"},
		{name: "email normalized", email: "  Bob@Example.COM ", password: "secret1"},
		{name: "invalid email", email: "not-an-email", password: "secret1", wantErr: ErrInvalidInput},
		{name: "display name rejected", email: "Carol <carol@example.com>", password: "secret1", wantErr: ErrInvalidInput},
		{name: "short password", email: "dave@example.com", password: "12345", wantErr: ErrInvalidInput},
		{name: "overlong password", email: "erin@example.com", password: strings.Repeat("p", 73), wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, store := setupDirectory(t)

			view, err := dir.Register(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, view)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, view.ID)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.email)), view.Email)

			stored, err := store.FindByID(context.Background(), view.ID)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, stored.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(tt.password)))
		})
	}
}

func TestDirectory_RegisterDuplicate(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()

	first, err := dir.Register(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = dir.Register(ctx, "ALICE@example.com", "another1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// A deleted account keeps its address reserved.
	require.NoError(t, dir.Delete(ctx, first.ID))
	_, err = dir.Register(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestDirectory_Authenticate(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()
	registered, err := dir.Register(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "correct credentials", email: "alice@example.com", password: "secret1"},
		{name: "email case ignored", email: "Alice@Example.com", password: "secret1"},
		{name: "wrong password", email: "alice@example.com", password: "wrong!!", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", password: "secret1", wantErr: ErrInvalidCredentials},
		{name: "empty password", email: "alice@example.com", password: "", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := dir.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, view)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, view.ID)
		})
	}
}

func TestDirectory_Update(t *testing.T) {
	dir, _ := setupDirectory(t)
	ctx := context.Background()
	alice, err := dir.Register(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	_, err = dir.Register(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)

	t.Run("nothing to update", func(t *testing.T) {
		_, err := dir.Update(ctx, alice.ID, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("email taken by another account", func(t *testing.T) {
		_, err := dir.Update(ctx, alice.ID, strPtr("bob@example.com"), nil)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := dir.Update(ctx, alice.ID, strPtr("nope"), nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := dir.Update(ctx, alice.ID, nil, strPtr("123"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := dir.Update(ctx, "missing", strPtr("x@example.com"), nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("change email and password", func(t *testing.T) {
		view, err := dir.Update(ctx, alice.ID, strPtr("Alice.New@example.com"), strPtr("newsecret"))
		require.NoError(t, err)
		assert.Equal(t, "alice.new@example.com", view.Email)

		_, err = dir.Authenticate(ctx, "alice@example.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		authed, err := dir.Authenticate(ctx, "alice.new@example.com", "newsecret")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, authed.ID)
	})

	t.Run("same email is not a conflict", func(t *testing.T) {
		_, err := dir.Update(ctx, alice.ID, strPtr("alice.new@example.com"), nil)
		assert.NoError(t, err)
	})
}

func TestDirectory_Delete(t *testing.T) {
	dir, store := setupDirectory(t)
	ctx := context.Background()
	alice, err := dir.Register(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, dir.Delete(ctx, alice.ID))
	assert.ErrorIs(t, dir.Delete(ctx, alice.ID), ErrNotFound)
	assert.ErrorIs(t, dir.Delete(ctx, ""), ErrNotFound)

	_, err = store.FindByID(ctx, alice.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = dir.Authenticate(ctx, "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewDirectory_HashCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewDirectory(nil, 0, logging.Discard()).hashCost)
	assert.Equal(t, bcrypt.MinCost, NewDirectory(nil, bcrypt.MinCost, logging.Discard()).hashCost)
}
