package shortener

import (
	"context"

	"shortlink/internal/db"
)

// CodeStore is what allocation and creation need from the record store.
type CodeStore interface {
	// CodeExists reports whether code is held by any record, deleted or not.
	CodeExists(ctx context.Context, code string) (bool, error)
	// Insert persists link; a taken code must surface as db.ErrDuplicate.
	Insert(ctx context.Context, link *db.Link) error
}

// CodeLookup finds live links by short code; misses are db.ErrNotFound.
type CodeLookup interface {
	FindByCode(ctx context.Context, code string) (*db.Link, error)
}

// OwnedStore is the owner-scoped part of the record store.
type OwnedStore interface {
	FindByIDAndOwner(ctx context.Context, id, owner string) (*db.Link, error)
	ListByOwner(ctx context.Context, owner string) ([]db.Link, error)
	Save(ctx context.Context, link *db.Link) error
	SoftDelete(ctx context.Context, id string) (int64, error)
}

// ClickRecorder accepts best-effort click accounting. Record must not block.
type ClickRecorder interface {
	Record(linkID string)
}
