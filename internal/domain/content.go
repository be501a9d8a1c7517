package domain

// SourceContent is the result of fetching a URL: extracted text plus
// whatever presentation details the source exposed. The website variant
// fills Author/PublishedDate/Description, the video variant fills
// Duration/Thumbnail/Channel/TranscriptLanguage.
type SourceContent struct {
	Title      string
	Text       string
	URL        string
	CoverImage string
	Metadata   *MemoMetadata
}
