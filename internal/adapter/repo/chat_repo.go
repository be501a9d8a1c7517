package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"clipnote/internal/domain"
)

// ChatRepositoryPG implements domain.ChatRepository.
type ChatRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new chat message repository backed by PostgreSQL.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepositoryPG {
	return &ChatRepositoryPG{pool: pool}
}

// Append stores a new message at the end of its thread.
func (r *ChatRepositoryPG) Append(ctx context.Context, msg *domain.ChatMessage) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO chat_messages (id, parent_id, parent_kind, role, content)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;
`, msg.ID, msg.ParentID, msg.ParentKind, msg.Role, msg.Content)
	return row.Scan(&msg.CreatedAt)
}

// ListByParent returns a thread's messages oldest first.
func (r *ChatRepositoryPG) ListByParent(ctx context.Context, parentID string) ([]domain.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, parent_id, parent_kind, role, content, created_at
FROM chat_messages
WHERE parent_id = $1
ORDER BY created_at ASC;
`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.ParentID, &msg.ParentKind, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeleteByParent drops a whole thread when its parent entity goes away.
func (r *ChatRepositoryPG) DeleteByParent(ctx context.Context, parentID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chat_messages WHERE parent_id = $1;`, parentID)
	return err
}
