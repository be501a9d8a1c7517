package summarize

import (
	"context"

	"clipnote/internal/domain"
)

// Source is the text handed to the summarizer together with where it
// came from, which shapes the prompt wording.
type Source struct {
	Title string
	URL   string
	Text  string
	Kind  domain.MemoKind
}

// Result is the summary triple produced for one language.
type Result struct {
	Summary        string
	OneLineSummary string
	KeyPoints      []string
}

// Client produces summaries and answers questions over already-summarized
// content. Implementations are stateless; both calls block until the
// upstream service responds.
type Client interface {
	Summarize(ctx context.Context, src Source, lang domain.Language) (*Result, error)
	Answer(ctx context.Context, contextText, question string) (string, error)
}
