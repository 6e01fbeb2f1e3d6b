package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ArchiveRepo keeps each user's archive document in one jsonb row.
type ArchiveRepo struct{ db *DB }

// NewArchiveRepo constructs an archive repository.
func NewArchiveRepo(db *DB) *ArchiveRepo { return &ArchiveRepo{db: db} }

// GetOrCreate inserts empty if the user has no row yet and returns the
// stored document.
func (r *ArchiveRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, empty []byte) (doc []byte, created bool, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("commit: %w", e)
		}
	}()

	const ins = `
INSERT INTO archives (user_id, document)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING`
	tag, err := tx.Exec(ctx, ins, userID, empty)
	if err != nil {
		return nil, false, fmt.Errorf("init archive: %w", err)
	}
	created = tag.RowsAffected() == 1

	const sel = `SELECT document FROM archives WHERE user_id=$1`
	if err = tx.QueryRow(ctx, sel, userID).Scan(&doc); err != nil {
		return nil, false, fmt.Errorf("select archive: %w", err)
	}
	return doc, created, nil
}

// Put upserts the user's document.
func (r *ArchiveRepo) Put(ctx context.Context, userID uuid.UUID, doc []byte) error {
	const q = `
INSERT INTO archives (user_id, document, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET document=EXCLUDED.document, updated_at=now()`
	if _, err := r.db.Pool.Exec(ctx, q, userID, doc); err != nil {
		return fmt.Errorf("put archive: %w", err)
	}
	return nil
}
