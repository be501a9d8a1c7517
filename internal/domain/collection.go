package domain

import "time"

// Collection is a named, user-created grouping of memos. Its lifecycle
// is independent of its members: deleting a collection removes only the
// join rows, never the memos themselves.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	MemoCount   int       `json:"memo_count"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CollectionMemo is a membership row joined with the member memo.
type CollectionMemo struct {
	CollectionID string    `json:"collection_id"`
	MemoID       string    `json:"memo_id"`
	AddedAt      time.Time `json:"createdAt"`
	Memo         *Memo     `json:"memo"`
}
