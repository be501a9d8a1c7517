package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clipnote/internal/domain"
)

type chatRequest struct {
	MemoID  string `json:"memoId"`
	Message string `json:"message"`
}

// ChatCreate answers one question about a memo or a note. The thread id
// is the parent's id; the assistant is grounded in the stored summary.
func (a *App) ChatCreate(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.MemoID) == "" {
		a.fail(w, http.StatusBadRequest, "memoId is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		a.fail(w, http.StatusBadRequest, "message is required")
		return
	}

	kind, contextText, err := a.chatContext(r, req.MemoID)
	if err != nil {
		a.failErr(w, err)
		return
	}
	userMsg, assistantMsg, err := a.Responder.Respond(r.Context(), kind, req.MemoID, contextText, req.Message)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, []domain.ChatMessage{*userMsg, *assistantMsg})
}

// chatContext resolves the chat parent: a memo first, then a note.
func (a *App) chatContext(r *http.Request, id string) (domain.ParentKind, string, error) {
	memo, err := a.Memos.GetByID(r.Context(), id)
	if err == nil {
		return domain.ParentKindMemo, memoContext(memo), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", "", err
	}
	note, err := a.Notes.GetByID(r.Context(), id)
	if err != nil {
		return "", "", err
	}
	return domain.ParentKindNote, noteContext(note), nil
}

func (a *App) ChatHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := a.Responder.History(r.Context(), chi.URLParam(r, "threadId"))
	if err != nil {
		a.failErr(w, err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	a.ok(w, http.StatusOK, messages)
}

func memoContext(memo *domain.Memo) string {
	var b strings.Builder
	b.WriteString("Title: " + memo.Title + "\n")
	b.WriteString("Summary: " + memo.Summary)
	if len(memo.KeyPoints) > 0 {
		b.WriteString("\nKey points: " + strings.Join(memo.KeyPoints, "; "))
	}
	return b.String()
}

func noteContext(note *domain.Note) string {
	var b strings.Builder
	b.WriteString("Title: " + note.Title + "\n")
	if note.Summary != "" {
		b.WriteString("Summary: " + note.Summary + "\n")
	}
	b.WriteString("Content: " + note.Content)
	return b.String()
}
