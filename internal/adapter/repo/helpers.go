package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"clipnote/internal/domain"
)

// notFoundOnFKViolation rewrites a foreign key violation (23503) as
// domain.ErrNotFound: the referenced row was deleted concurrently.
func notFoundOnFKViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return domain.ErrNotFound
	}
	return err
}

// prefixedMemoColumns qualifies the shared memo column list with a table
// alias for use in joins.
func prefixedMemoColumns(alias string) string {
	cols := strings.Split(memoColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// scanCollectionMemo reads a collection_memos join row: the membership
// columns first, then the full memo column list.
func scanCollectionMemo(row pgx.Row, cm *domain.CollectionMemo) (*domain.Memo, error) {
	var (
		memo           domain.Memo
		oneLineSummary *string
		coverImage     *string
		metadata       []byte
		workerID       *string
	)
	if err := row.Scan(
		&cm.CollectionID,
		&cm.MemoID,
		&cm.AddedAt,
		&memo.ID,
		&memo.URL,
		&memo.Kind,
		&memo.Status,
		&memo.Title,
		&memo.Summary,
		&oneLineSummary,
		&memo.KeyPoints,
		&coverImage,
		&metadata,
		&workerID,
		&memo.CreatedAt,
		&memo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if oneLineSummary != nil {
		memo.OneLineSummary = *oneLineSummary
	}
	if coverImage != nil {
		memo.CoverImage = *coverImage
	}
	if workerID != nil {
		memo.WorkerID = *workerID
	}
	if len(metadata) > 0 {
		var m domain.MemoMetadata
		if err := json.Unmarshal(metadata, &m); err != nil {
			return nil, fmt.Errorf("decode memo metadata: %w", err)
		}
		memo.Metadata = &m
	}
	return &memo, nil
}
