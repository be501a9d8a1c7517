package domain

import "time"

// NoteStatus enumerates the editing states of a user-written note.
type NoteStatus string

const (
	NoteStatusDraft     NoteStatus = "draft"
	NoteStatusPublished NoteStatus = "published"
)

// Note is user-authored content, as opposed to a Memo which is ingested
// from an external source. Summary fields are filled on demand.
type Note struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Status         NoteStatus `json:"status"`
	Summary        string     `json:"summary,omitempty"`
	OneLineSummary string     `json:"oneLineSummary,omitempty"`
	KeyPoints      []string   `json:"keyPoints,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NoteUpdate is a partial update; nil fields are left untouched.
type NoteUpdate struct {
	Title          *string
	Content        *string
	Status         *NoteStatus
	Summary        *string
	OneLineSummary *string
	KeyPoints      []string
}
