package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // SQLite driver for local runs and tests
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no live row matches.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert or update hits a unique index.
	ErrDuplicate = errors.New("unique constraint violation")
)

// Link represents the data model for a shortened URL.
//
// The unique index on short_code spans soft-deleted rows as well, so a code
// stays reserved after its link is deleted.
type Link struct {
	ID          string     `gorm:"primary_key;type:varchar(36)"`
	OriginalURL string     `gorm:"type:text;not null"`
	ShortCode   string     `gorm:"type:varchar(32);unique_index;not null"`
	ClickCount  int64      `gorm:"not null;default:0"`
	OwnerID     *string    `gorm:"type:varchar(36);index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time `sql:"index"`
}

// BeforeCreate assigns an opaque identifier to new links.
func (l *Link) BeforeCreate(scope *gorm.Scope) error {
	if l.ID == "" {
		return scope.SetColumn("ID", uuid.NewString())
	}
	return nil
}

// Account is a registered identity that can own links.
type Account struct {
	ID           string     `gorm:"primary_key;type:varchar(36)"`
	Email        string     `gorm:"type:varchar(255);unique_index;not null"`
	PasswordHash string     `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `sql:"index"`
}

// BeforeCreate assigns an opaque identifier to new accounts.
func (a *Account) BeforeCreate(scope *gorm.Scope) error {
	if a.ID == "" {
		return scope.SetColumn("ID", uuid.NewString())
	}
	return nil
}

// Open connects to the database and migrates the schema.
// driver is a gorm dialect name: "postgres" or "sqlite3".
func Open(driver, dataSourceName string) (*gorm.DB, error) {
	conn, err := gorm.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	conn.LogMode(false)

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&Link{}, &Account{}).Error; err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// translate maps driver and gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case gorm.IsRecordNotFoundError(err):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
