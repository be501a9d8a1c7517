package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipnote/internal/domain"
)

// CollectionRepositoryPG implements domain.CollectionRepository.
type CollectionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCollectionRepository creates a new collection repository backed by PostgreSQL.
func NewCollectionRepository(pool *pgxpool.Pool) *CollectionRepositoryPG {
	return &CollectionRepositoryPG{pool: pool}
}

// Create inserts a new collection.
func (r *CollectionRepositoryPG) Create(ctx context.Context, c *domain.Collection) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO collections (id, name, description, color)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at;
`, c.ID, c.Name, nullableString(c.Description), nullableString(c.Color))
	return row.Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByID fetches a collection with its member count.
func (r *CollectionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	row := r.pool.QueryRow(ctx, `
SELECT c.id, c.name, COALESCE(c.description, ''), COALESCE(c.color, ''),
       (SELECT count(*) FROM collection_memos cm WHERE cm.collection_id = c.id),
       c.created_at, c.updated_at
FROM collections c
WHERE c.id = $1;
`, id)
	c, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns all collections, newest first.
func (r *CollectionRepositoryPG) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := r.pool.Query(ctx, `
SELECT c.id, c.name, COALESCE(c.description, ''), COALESCE(c.color, ''),
       (SELECT count(*) FROM collection_memos cm WHERE cm.collection_id = c.id),
       c.created_at, c.updated_at
FROM collections c
ORDER BY c.created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []domain.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, *c)
	}
	return collections, rows.Err()
}

// Delete removes the collection and its join rows; member memos survive.
func (r *CollectionRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddMemo links a memo into a collection. Re-adding is a no-op.
func (r *CollectionRepositoryPG) AddMemo(ctx context.Context, collectionID, memoID string) (*domain.CollectionMemo, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO collection_memos (collection_id, memo_id)
VALUES ($1, $2)
ON CONFLICT (collection_id, memo_id) DO UPDATE SET memo_id = EXCLUDED.memo_id
RETURNING created_at;
`, collectionID, memoID)

	cm := &domain.CollectionMemo{CollectionID: collectionID, MemoID: memoID}
	if err := row.Scan(&cm.AddedAt); err != nil {
		return nil, notFoundOnFKViolation(err)
	}
	return cm, nil
}

// RemoveMemo unlinks a memo from a collection without touching the memo.
func (r *CollectionRepositoryPG) RemoveMemo(ctx context.Context, collectionID, memoID string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM collection_memos WHERE collection_id = $1 AND memo_id = $2;
`, collectionID, memoID)
	return err
}

// ListMemos returns the membership rows with member memos attached,
// in the order they were added.
func (r *CollectionRepositoryPG) ListMemos(ctx context.Context, collectionID string) ([]domain.CollectionMemo, error) {
	rows, err := r.pool.Query(ctx, `
SELECT cm.collection_id, cm.memo_id, cm.created_at, `+prefixedMemoColumns("m")+`
FROM collection_memos cm
JOIN memos m ON m.id = cm.memo_id
WHERE cm.collection_id = $1
ORDER BY cm.created_at ASC;
`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.CollectionMemo
	for rows.Next() {
		var cm domain.CollectionMemo
		memo, err := scanCollectionMemo(rows, &cm)
		if err != nil {
			return nil, err
		}
		cm.Memo = memo
		members = append(members, cm)
	}
	return members, rows.Err()
}

func scanCollection(row pgx.Row) (*domain.Collection, error) {
	var c domain.Collection
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.MemoCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
