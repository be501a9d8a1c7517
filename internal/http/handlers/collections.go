package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clipnote/internal/domain"
)

type collectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (a *App) CollectionsList(w http.ResponseWriter, r *http.Request) {
	collections, err := a.Collections.List(r.Context())
	if err != nil {
		a.failErr(w, err)
		return
	}
	if collections == nil {
		collections = []domain.Collection{}
	}
	a.ok(w, http.StatusOK, collections)
}

func (a *App) CollectionsCreate(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		a.fail(w, http.StatusBadRequest, "name is required")
		return
	}
	now := time.Now().UTC()
	c := &domain.Collection{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Color:       req.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.Collections.Create(r.Context(), c); err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusCreated, c)
}

func (a *App) CollectionsGet(w http.ResponseWriter, r *http.Request) {
	c, err := a.Collections.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, c)
}

func (a *App) CollectionsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Collections.Delete(r.Context(), id); err != nil {
		a.failErr(w, err)
		return
	}
	if err := a.Chats.DeleteByParent(r.Context(), id); err != nil {
		a.Log.Warn().Err(err).Str("collection_id", id).Msg("delete chat thread")
	}
	a.ok(w, http.StatusOK, map[string]string{"id": id})
}

func (a *App) CollectionsListMemos(w http.ResponseWriter, r *http.Request) {
	members, err := a.Collections.ListMemos(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failErr(w, err)
		return
	}
	if members == nil {
		members = []domain.CollectionMemo{}
	}
	a.ok(w, http.StatusOK, members)
}

type collectionMemoRequest struct {
	MemoID string `json:"memoId"`
}

func (a *App) CollectionsAddMemo(w http.ResponseWriter, r *http.Request) {
	var req collectionMemoRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.MemoID) == "" {
		a.fail(w, http.StatusBadRequest, "memoId is required")
		return
	}
	member, err := a.Collections.AddMemo(r.Context(), chi.URLParam(r, "id"), req.MemoID)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusCreated, member)
}

func (a *App) CollectionsRemoveMemo(w http.ResponseWriter, r *http.Request) {
	if err := a.Collections.RemoveMemo(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "memoId")); err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, map[string]string{"memoId": chi.URLParam(r, "memoId")})
}

type collectionChatRequest struct {
	Message string `json:"message"`
}

// CollectionsChatCreate answers a question across every memo in the
// collection. An empty collection has nothing to ground on and is
// rejected.
func (a *App) CollectionsChatCreate(w http.ResponseWriter, r *http.Request) {
	var req collectionChatRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := a.Collections.GetByID(r.Context(), id); err != nil {
		a.failErr(w, err)
		return
	}
	members, err := a.Collections.ListMemos(r.Context(), id)
	if err != nil {
		a.failErr(w, err)
		return
	}
	if len(members) == 0 {
		a.fail(w, http.StatusBadRequest, "collection has no memos to chat about")
		return
	}

	var b strings.Builder
	for i, m := range members {
		if m.Memo == nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Title: " + m.Memo.Title + "\n")
		b.WriteString("Summary: " + m.Memo.Summary)
	}

	userMsg, assistantMsg, err := a.Responder.Respond(r.Context(), domain.ParentKindCollection, id, b.String(), req.Message)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, []domain.ChatMessage{*userMsg, *assistantMsg})
}

func (a *App) CollectionsChatHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := a.Responder.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.failErr(w, err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	a.ok(w, http.StatusOK, messages)
}
