package domain

import "time"

// ParentKind discriminates which entity a chat thread belongs to.
type ParentKind string

const (
	ParentKindMemo       ParentKind = "memo"
	ParentKindCollection ParentKind = "collection"
	ParentKindNote       ParentKind = "note"
)

// Valid reports whether the kind names a chattable entity.
func (k ParentKind) Valid() bool {
	return k == ParentKindMemo || k == ParentKindCollection || k == ParentKindNote
}

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in an append-only thread. Messages are never
// edited or removed individually; they go away only when their parent
// is deleted.
type ChatMessage struct {
	ID         string     `json:"id"`
	ParentID   string     `json:"memoId"`
	ParentKind ParentKind `json:"-"`
	Role       ChatRole   `json:"role"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"timestamp"`
}
