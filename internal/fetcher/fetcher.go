package fetcher

import (
	"context"
	"fmt"

	"clipnote/internal/domain"
)

// Fetcher retrieves the text content of a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.SourceContent, error)
}

// Registry dispatches a fetch to the variant registered for the memo kind.
type Registry struct {
	fetchers map[domain.MemoKind]Fetcher
}

// NewRegistry builds a registry over the given kind/fetcher pairs.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[domain.MemoKind]Fetcher)}
}

// Register binds a fetcher to a memo kind.
func (r *Registry) Register(kind domain.MemoKind, f Fetcher) {
	r.fetchers[kind] = f
}

// Fetch runs the fetcher registered for kind.
func (r *Registry) Fetch(ctx context.Context, kind domain.MemoKind, url string) (*domain.SourceContent, error) {
	f, ok := r.fetchers[kind]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for kind %q", kind)
	}
	return f.Fetch(ctx, url)
}
