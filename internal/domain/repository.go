package domain

import "context"

// MemoRepository defines persistence for memos and their translations.
type MemoRepository interface {
	Create(ctx context.Context, memo *Memo) error
	GetByID(ctx context.Context, id string) (*Memo, error)
	List(ctx context.Context) ([]Memo, error)
	// UpdateFields applies a partial update and returns the updated
	// memo, or ErrNotFound if the id no longer exists.
	UpdateFields(ctx context.Context, id string, update MemoUpdate) (*Memo, error)
	Delete(ctx context.Context, id string) error
	GetTranslation(ctx context.Context, memoID string, lang Language) (*Translation, error)
	UpsertTranslation(ctx context.Context, memoID string, tr *Translation) error
}

// ChatRepository defines persistence for append-only message threads.
type ChatRepository interface {
	Append(ctx context.Context, msg *ChatMessage) error
	ListByParent(ctx context.Context, parentID string) ([]ChatMessage, error)
	DeleteByParent(ctx context.Context, parentID string) error
}

// CollectionRepository defines persistence for collections and their
// memo memberships.
type CollectionRepository interface {
	Create(ctx context.Context, c *Collection) error
	GetByID(ctx context.Context, id string) (*Collection, error)
	List(ctx context.Context) ([]Collection, error)
	Delete(ctx context.Context, id string) error
	AddMemo(ctx context.Context, collectionID, memoID string) (*CollectionMemo, error)
	RemoveMemo(ctx context.Context, collectionID, memoID string) error
	ListMemos(ctx context.Context, collectionID string) ([]CollectionMemo, error)
}

// NoteRepository defines persistence for user-authored notes.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	GetByID(ctx context.Context, id string) (*Note, error)
	List(ctx context.Context) ([]Note, error)
	UpdateFields(ctx context.Context, id string, update NoteUpdate) (*Note, error)
	Delete(ctx context.Context, id string) error
}
