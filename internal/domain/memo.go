package domain

import "time"

// MemoKind enumerates supported content sources.
type MemoKind string

const (
	MemoKindWebsite MemoKind = "website"
	MemoKindYouTube MemoKind = "youtube"
)

// Valid reports whether the kind is one of the supported sources.
func (k MemoKind) Valid() bool {
	return k == MemoKindWebsite || k == MemoKindYouTube
}

// MemoStatus enumerates the ingestion lifecycle states.
type MemoStatus string

const (
	MemoStatusProcessing MemoStatus = "processing"
	MemoStatusCompleted  MemoStatus = "completed"
	MemoStatusFailed     MemoStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s MemoStatus) Terminal() bool {
	return s == MemoStatusCompleted || s == MemoStatusFailed
}

// Sentinel values shown to clients while a memo is still processing.
const (
	PlaceholderTitle   = "Processing..."
	PlaceholderSummary = "Processing..."
)

// MemoMetadata carries optional source details captured during a fetch.
type MemoMetadata struct {
	Author             string `json:"author,omitempty"`
	PublishedDate      string `json:"publishedDate,omitempty"`
	Description        string `json:"description,omitempty"`
	Duration           string `json:"duration,omitempty"`
	Thumbnail          string `json:"thumbnail,omitempty"`
	Channel            string `json:"channel,omitempty"`
	TranscriptLanguage string `json:"transcriptLanguage,omitempty"`
}

// Memo is a tracked unit of ingested content. It is created as a
// placeholder with status processing and filled in by the background
// ingestion run; the status moves exactly once to completed or failed.
type Memo struct {
	ID             string                   `json:"id"`
	URL            string                   `json:"url"`
	Kind           MemoKind                 `json:"type"`
	Status         MemoStatus               `json:"status"`
	Title          string                   `json:"title"`
	Summary        string                   `json:"summary"`
	OneLineSummary string                   `json:"oneLineSummary,omitempty"`
	KeyPoints      []string                 `json:"keyPoints,omitempty"`
	CoverImage     string                   `json:"coverImage,omitempty"`
	Metadata       *MemoMetadata            `json:"metadata,omitempty"`
	Translations   map[Language]Translation `json:"translations,omitempty"`
	WorkerID       string                   `json:"-"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// Translation is a per-language copy of the summary triple. A slot is
// either fully populated or absent; the three fields are written together.
type Translation struct {
	Language       Language  `json:"language"`
	Summary        string    `json:"summary"`
	OneLineSummary string    `json:"oneLineSummary"`
	KeyPoints      []string  `json:"keyPoints"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MemoUpdate is a partial update; nil fields are left untouched.
type MemoUpdate struct {
	Title          *string
	Summary        *string
	OneLineSummary *string
	KeyPoints      []string
	CoverImage     *string
	Metadata       *MemoMetadata
	Status         *MemoStatus
	WorkerID       *string
}

// Empty reports whether the update carries no field changes.
func (u MemoUpdate) Empty() bool {
	return u.Title == nil && u.Summary == nil && u.OneLineSummary == nil &&
		u.KeyPoints == nil && u.CoverImage == nil && u.Metadata == nil &&
		u.Status == nil && u.WorkerID == nil
}
