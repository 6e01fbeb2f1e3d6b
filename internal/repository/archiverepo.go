package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// ArchiveRepository stores one opaque archive document per user.
type ArchiveRepository interface {
	// GetOrCreate returns the user's document. When none exists it stores
	// empty first and reports created=true.
	GetOrCreate(ctx context.Context, userID uuid.UUID, empty []byte) (doc []byte, created bool, err error)
	// Put replaces the user's document.
	Put(ctx context.Context, userID uuid.UUID, doc []byte) error
}
