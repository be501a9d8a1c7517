package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"clipnote/internal/chat"
	"clipnote/internal/domain"
	"clipnote/internal/ingest"
)

// App holds the handler dependencies. Every handler is a method on App.
type App struct {
	Memos       domain.MemoRepository
	Chats       domain.ChatRepository
	Collections domain.CollectionRepository
	Notes       domain.NoteRepository
	Ingest      *ingest.Orchestrator
	Responder   *chat.Responder
	Log         zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ok wraps a payload in the success envelope.
func (a *App) ok(w http.ResponseWriter, code int, v any) {
	a.json(w, code, map[string]any{"success": true, "data": v})
}

func (a *App) fail(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]any{"success": false, "error": message})
}

// failErr maps domain sentinel errors onto HTTP statuses.
func (a *App) failErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.fail(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrValidation):
		a.fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		a.fail(w, http.StatusBadRequest, "unsupported language")
	case errors.Is(err, domain.ErrPrecondition):
		a.fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrMissingAPIKey):
		a.fail(w, http.StatusServiceUnavailable, "AI provider is not configured")
	default:
		a.Log.Error().Err(err).Msg("request failed")
		a.fail(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
