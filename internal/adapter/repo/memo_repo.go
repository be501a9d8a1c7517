package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipnote/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const memoColumns = `id, url, kind, status, title, summary, one_line_summary,
	key_points, cover_image, metadata, worker_id, created_at, updated_at`

// MemoRepositoryPG implements domain.MemoRepository.
type MemoRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewMemoRepository creates a new memo repository backed by PostgreSQL.
func NewMemoRepository(pool *pgxpool.Pool) *MemoRepositoryPG {
	return &MemoRepositoryPG{pool: pool}
}

// Create inserts a new memo record.
func (r *MemoRepositoryPG) Create(ctx context.Context, memo *domain.Memo) error {
	metadata, err := marshalMetadata(memo.Metadata)
	if err != nil {
		return err
	}
	query := `
INSERT INTO memos (id, url, kind, status, title, summary, one_line_summary, key_points, cover_image, metadata, worker_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`
	_, err = r.pool.Exec(ctx, query,
		memo.ID,
		memo.URL,
		memo.Kind,
		memo.Status,
		memo.Title,
		memo.Summary,
		nullableString(memo.OneLineSummary),
		memo.KeyPoints,
		nullableString(memo.CoverImage),
		metadata,
		nullableString(memo.WorkerID),
	)
	return err
}

// GetByID fetches a memo along with its translations.
func (r *MemoRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Memo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+memoColumns+` FROM memos WHERE id = $1;`, id)
	memo, err := scanMemo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachTranslations(ctx, memo); err != nil {
		return nil, err
	}
	return memo, nil
}

// List returns all memos, newest first, without translations.
func (r *MemoRepositoryPG) List(ctx context.Context) ([]domain.Memo, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memoColumns+` FROM memos ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memos []domain.Memo
	for rows.Next() {
		memo, err := scanMemo(rows)
		if err != nil {
			return nil, err
		}
		memos = append(memos, *memo)
	}
	return memos, rows.Err()
}

// UpdateFields applies a partial update built from the non-nil fields of
// the update struct. ErrNotFound means the row vanished; background
// writers absorb that instead of resurrecting the id.
func (r *MemoRepositoryPG) UpdateFields(ctx context.Context, id string, update domain.MemoUpdate) (*domain.Memo, error) {
	if update.Empty() {
		return r.GetByID(ctx, id)
	}

	query, args, err := buildMemoUpdate(id, update)
	if err != nil {
		return nil, err
	}

	memo, err := scanMemo(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return memo, nil
}

func buildMemoUpdate(id string, update domain.MemoUpdate) (string, []any, error) {
	builder := psql.Update("memos").Set("updated_at", sq.Expr("now()"))
	if update.Title != nil {
		builder = builder.Set("title", *update.Title)
	}
	if update.Summary != nil {
		builder = builder.Set("summary", *update.Summary)
	}
	if update.OneLineSummary != nil {
		builder = builder.Set("one_line_summary", *update.OneLineSummary)
	}
	if update.KeyPoints != nil {
		builder = builder.Set("key_points", update.KeyPoints)
	}
	if update.CoverImage != nil {
		builder = builder.Set("cover_image", *update.CoverImage)
	}
	if update.Metadata != nil {
		metadata, err := marshalMetadata(update.Metadata)
		if err != nil {
			return "", nil, err
		}
		builder = builder.Set("metadata", metadata)
	}
	if update.Status != nil {
		builder = builder.Set("status", *update.Status)
	}
	if update.WorkerID != nil {
		builder = builder.Set("worker_id", *update.WorkerID)
	}

	query, args, err := builder.
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + memoColumns).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build memo update: %w", err)
	}
	return query, args, nil
}

// Delete removes a memo; translations and collection joins cascade.
func (r *MemoRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM memos WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetTranslation returns a single language slot, ErrNotFound when unset.
func (r *MemoRepositoryPG) GetTranslation(ctx context.Context, memoID string, lang domain.Language) (*domain.Translation, error) {
	row := r.pool.QueryRow(ctx, `
SELECT language, summary, one_line_summary, key_points, created_at
FROM memo_translations
WHERE memo_id = $1 AND language = $2;
`, memoID, lang)

	var tr domain.Translation
	if err := row.Scan(&tr.Language, &tr.Summary, &tr.OneLineSummary, &tr.KeyPoints, &tr.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &tr, nil
}

// UpsertTranslation writes a full language slot in one statement so the
// three fields are never observed partially set.
func (r *MemoRepositoryPG) UpsertTranslation(ctx context.Context, memoID string, tr *domain.Translation) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO memo_translations (memo_id, language, summary, one_line_summary, key_points)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (memo_id, language) DO UPDATE
SET summary = EXCLUDED.summary,
    one_line_summary = EXCLUDED.one_line_summary,
    key_points = EXCLUDED.key_points;
`, memoID, tr.Language, tr.Summary, tr.OneLineSummary, tr.KeyPoints)
	if err != nil {
		// Losing the race against a concurrent delete trips the
		// memo_translations FK.
		return notFoundOnFKViolation(err)
	}
	return nil
}

func (r *MemoRepositoryPG) attachTranslations(ctx context.Context, memo *domain.Memo) error {
	rows, err := r.pool.Query(ctx, `
SELECT language, summary, one_line_summary, key_points, created_at
FROM memo_translations
WHERE memo_id = $1;
`, memo.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tr domain.Translation
		if err := rows.Scan(&tr.Language, &tr.Summary, &tr.OneLineSummary, &tr.KeyPoints, &tr.CreatedAt); err != nil {
			return err
		}
		if memo.Translations == nil {
			memo.Translations = make(map[domain.Language]domain.Translation)
		}
		memo.Translations[tr.Language] = tr
	}
	return rows.Err()
}

func scanMemo(row pgx.Row) (*domain.Memo, error) {
	var (
		memo           domain.Memo
		oneLineSummary *string
		coverImage     *string
		metadata       []byte
		workerID       *string
	)
	if err := row.Scan(
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

func marshalMetadata(m *domain.MemoMetadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode memo metadata: %w", err)
	}
	return b, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
