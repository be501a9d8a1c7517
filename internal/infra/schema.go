package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements are applied in order at startup. Everything is
// IF NOT EXISTS so restarts are safe without a migration tool.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS memos (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		one_line_summary TEXT,
		key_points TEXT[],
		cover_image TEXT,
		metadata JSONB,
		worker_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS memo_translations (
		memo_id UUID NOT NULL REFERENCES memos(id) ON DELETE CASCADE,
		language TEXT NOT NULL,
		summary TEXT NOT NULL,
		one_line_summary TEXT NOT NULL,
		key_points TEXT[] NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (memo_id, language)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY,
		parent_id UUID NOT NULL,
		parent_kind TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_parent_idx
		ON chat_messages (parent_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS collections (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		color TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS collection_memos (
		collection_id UUID NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		memo_id UUID NOT NULL REFERENCES memos(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection_id, memo_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notes (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		summary TEXT,
		one_line_summary TEXT,
		key_points TEXT[],
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// ApplySchema creates the tables the service needs if they are missing.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
