package repo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipnote/internal/domain"
)

const noteColumns = `id, title, content, status, COALESCE(summary, ''),
	COALESCE(one_line_summary, ''), key_points, created_at, updated_at`

// NoteRepositoryPG implements domain.NoteRepository.
type NoteRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new note repository backed by PostgreSQL.
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepositoryPG {
	return &NoteRepositoryPG{pool: pool}
}

// Create inserts a new note.
func (r *NoteRepositoryPG) Create(ctx context.Context, note *domain.Note) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO notes (id, title, content, status)
VALUES ($1, $2, $3, $4)
RETURNING created_at, updated_at;
`, note.ID, note.Title, note.Content, note.Status)
	return row.Scan(&note.CreatedAt, &note.UpdatedAt)
}

// GetByID fetches a note by id.
func (r *NoteRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1;`, id)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return note, nil
}

// List returns all notes, newest first.
func (r *NoteRepositoryPG) List(ctx context.Context) ([]domain.Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}

// UpdateFields applies a partial update built from the non-nil fields.
func (r *NoteRepositoryPG) UpdateFields(ctx context.Context, id string, update domain.NoteUpdate) (*domain.Note, error) {
	builder := psql.Update("notes").Set("updated_at", sq.Expr("now()"))
	if update.Title != nil {
		builder = builder.Set("title", *update.Title)
	}
	if update.Content != nil {
		builder = builder.Set("content", *update.Content)
	}
	if update.Status != nil {
		builder = builder.Set("status", *update.Status)
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

	query, args, err := builder.
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + noteColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build note update: %w", err)
	}

	note, err := scanNote(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return note, nil
}

// Delete removes a note.
func (r *NoteRepositoryPG) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var note domain.Note
	if err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.Status,
		&note.Summary,
		&note.OneLineSummary,
		&note.KeyPoints,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &note, nil
}
