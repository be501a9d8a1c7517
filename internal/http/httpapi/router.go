package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"clipnote/internal/http/handlers"
	"clipnote/internal/middleware"
)

// RouterOptions carries the cross-cutting settings the router needs.
type RouterOptions struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/summarize", app.SummarizeCreate)

	r.Route("/v1/memos", func(r chi.Router) {
		r.Get("/", app.MemosList)
		r.Get("/{id}", app.MemosGet)
		r.Put("/{id}", app.MemosUpdate)
		r.Delete("/{id}", app.MemosDelete)
		r.Post("/{id}/language", app.MemosGenerateLanguage)
	})

	r.Route("/v1/chat", func(r chi.Router) {
		r.Post("/", app.ChatCreate)
		r.Get("/{threadId}", app.ChatHistory)
	})

	r.Route("/v1/collections", func(r chi.Router) {
		r.Get("/", app.CollectionsList)
		r.Post("/", app.CollectionsCreate)
		r.Get("/{id}", app.CollectionsGet)
		r.Delete("/{id}", app.CollectionsDelete)
		r.Get("/{id}/memos", app.CollectionsListMemos)
		r.Post("/{id}/memos", app.CollectionsAddMemo)
		r.Delete("/{id}/memos/{memoId}", app.CollectionsRemoveMemo)
		r.Post("/{id}/chat", app.CollectionsChatCreate)
		r.Get("/{id}/chat", app.CollectionsChatHistory)
	})

	r.Route("/v1/notes", func(r chi.Router) {
		r.Get("/", app.NotesList)
		r.Post("/", app.NotesCreate)
		r.Get("/{id}", app.NotesGet)
		r.Put("/{id}", app.NotesUpdate)
		r.Delete("/{id}", app.NotesDelete)
		r.Post("/{id}/summarize", app.NotesSummarize)
	})

	return r
}
