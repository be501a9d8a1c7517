package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clipnote/internal/domain"
)

const maxWaitSeconds = 30

func (a *App) MemosList(w http.ResponseWriter, r *http.Request) {
	memos, err := a.Memos.List(r.Context())
	if err != nil {
		a.failErr(w, err)
		return
	}
	if memos == nil {
		memos = []domain.Memo{}
	}
	a.ok(w, http.StatusOK, memos)
}

// MemosGet returns one memo. `?wait=N` blocks up to N seconds for the
// memo to reach a terminal status before responding, saving the client
// a polling loop.
func (a *App) MemosGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if waitRaw := r.URL.Query().Get("wait"); waitRaw != "" {
		seconds, err := strconv.Atoi(waitRaw)
		if err != nil || seconds < 0 || seconds > maxWaitSeconds {
			a.fail(w, http.StatusBadRequest, "wait must be between 0 and 30 seconds")
			return
		}
		memo, err := a.Ingest.PollStatus(r.Context(), id, seconds*2, 500*time.Millisecond)
		if err != nil && memo == nil {
			a.failErr(w, err)
			return
		}
		a.ok(w, http.StatusOK, memo)
		return
	}

	memo, err := a.Memos.GetByID(r.Context(), id)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, memo)
}

type memoUpdateRequest struct {
	Title      *string  `json:"title"`
	Summary    *string  `json:"summary"`
	KeyPoints  []string `json:"keyPoints"`
	CoverImage *string  `json:"coverImage"`
}

// MemosUpdate applies a partial edit to the user-visible fields. Status
// and lifecycle fields are owned by the ingestion run and not exposed.
func (a *App) MemosUpdate(w http.ResponseWriter, r *http.Request) {
	var req memoUpdateRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	update := domain.MemoUpdate{
		Title:      req.Title,
		Summary:    req.Summary,
		KeyPoints:  req.KeyPoints,
		CoverImage: req.CoverImage,
	}
	if update.Empty() {
		a.fail(w, http.StatusBadRequest, "no fields to update")
		return
	}
	memo, err := a.Memos.UpdateFields(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, memo)
}

// MemosDelete cancels any in-flight ingestion for the memo, then removes
// the row. Translations, chat messages, and collection memberships go
// with it.
func (a *App) MemosDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.Ingest.Cancel(id)
	if err := a.Memos.Delete(r.Context(), id); err != nil {
		a.failErr(w, err)
		return
	}
	if err := a.Chats.DeleteByParent(r.Context(), id); err != nil {
		a.Log.Warn().Err(err).Str("memo_id", id).Msg("delete chat thread")
	}
	a.ok(w, http.StatusOK, map[string]string{"id": id})
}

type languageRequest struct {
	Language string `json:"language"`
}

// MemosGenerateLanguage produces the summary triple in another language,
// serving a cached translation when one exists.
func (a *App) MemosGenerateLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		a.failErr(w, err)
		return
	}
	tr, err := a.Ingest.GenerateTranslation(r.Context(), chi.URLParam(r, "id"), lang)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, tr)
}
