package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipnote/internal/domain"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

func (a *App) NotesList(w http.ResponseWriter, r *http.Request) {
	notes, err := a.Notes.List(r.Context())
	if err != nil {
		a.failErr(w, err)
		return
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	a.ok(w, http.StatusOK, notes)
}

func (a *App) NotesCreate(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Content) == "" {
		a.fail(w, http.StatusBadRequest, "title or content is required")
		return
	}
	status := domain.NoteStatusDraft
	if req.Status != "" {
		status = domain.NoteStatus(req.Status)
		if status != domain.NoteStatusDraft && status != domain.NoteStatusPublished {
			a.fail(w, http.StatusBadRequest, "invalid status")
			return
		}
	}
	now := time.Now().UTC()
	note := &domain.Note{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.Notes.Create(r.Context(), note); err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusCreated, note)
}

func (a *App) NotesGet(w http.ResponseWriter, r *http.Request) {
	note, err := a.Notes.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, note)
}

type noteUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

func (a *App) NotesUpdate(w http.ResponseWriter, r *http.Request) {
	var req noteUpdateRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	update := domain.NoteUpdate{Title: req.Title, Content: req.Content}
	if req.Status != nil {
		status := domain.NoteStatus(*req.Status)
		if status != domain.NoteStatusDraft && status != domain.NoteStatusPublished {
			a.fail(w, http.StatusBadRequest, "invalid status")
			return
		}
		update.Status = &status
	}
	if update.Title == nil && update.Content == nil && update.Status == nil {
		a.fail(w, http.StatusBadRequest, "no fields to update")
		return
	}
	note, err := a.Notes.UpdateFields(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, note)
}

func (a *App) NotesDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Notes.Delete(r.Context(), id); err != nil {
		a.failErr(w, err)
		return
	}
	if err := a.Chats.DeleteByParent(r.Context(), id); err != nil {
		a.Log.Warn().Err(err).Str("note_id", id).Msg("delete chat thread")
	}
	a.ok(w, http.StatusOK, map[string]string{"id": id})
}

type noteSummarizeRequest struct {
	Language string `json:"language"`
}

// NotesSummarize generates the summary triple for a note synchronously;
// notes are local text, there is nothing to fetch.
func (a *App) NotesSummarize(w http.ResponseWriter, r *http.Request) {
	var req noteSummarizeRequest
	if r.ContentLength > 0 {
		if err := decode(r, &req); err != nil {
			a.fail(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}
	lang := domain.LanguageEnglish
	if req.Language != "" {
		parsed, err := domain.ParseLanguage(req.Language)
		if err != nil {
			a.failErr(w, err)
			return
		}
		lang = parsed
	}

	note, err := a.Notes.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failErr(w, err)
		return
	}
	if strings.TrimSpace(note.Content) == "" {
		a.fail(w, http.StatusBadRequest, "note has no content to summarize")
		return
	}

	res, err := a.Ingest.SummarizeText(r.Context(), note.Title, note.Content, lang)
	if err != nil {
		a.failErr(w, err)
		return
	}
	updated, err := a.Notes.UpdateFields(r.Context(), note.ID, domain.NoteUpdate{
		Summary:        &res.Summary,
		OneLineSummary: &res.OneLineSummary,
		KeyPoints:      res.KeyPoints,
	})
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, updated)
}
