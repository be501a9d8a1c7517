package handlers_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clipnote/internal/chat"
	"clipnote/internal/domain"
	"clipnote/internal/fetcher"
	"clipnote/internal/http/handlers"
	"clipnote/internal/http/httpapi"
	"clipnote/internal/ingest"
	"clipnote/internal/summarize"
)

type memStore struct {
	mu           sync.Mutex
	memos        map[string]*domain.Memo
	translations map[string]*domain.Translation
	messages     []domain.ChatMessage
	collections  map[string]*domain.Collection
	members      map[string][]string
	notes        map[string]*domain.Note
}

func newMemStore() *memStore {
	return &memStore{
		memos:        make(map[string]*domain.Memo),
		translations: make(map[string]*domain.Translation),
		collections:  make(map[string]*domain.Collection),
		members:      make(map[string][]string),
		notes:        make(map[string]*domain.Note),
	}
}

type memoStore struct{ s *memStore }

func (r memoStore) Create(_ context.Context, memo *domain.Memo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *memo
	r.s.memos[memo.ID] = &cp
	return nil
}

func (r memoStore) GetByID(_ context.Context, id string) (*domain.Memo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	memo, ok := r.s.memos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *memo
	return &cp, nil
}

func (r memoStore) List(_ context.Context) ([]domain.Memo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Memo, 0, len(r.s.memos))
	for _, m := range r.s.memos {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memoStore) UpdateFields(_ context.Context, id string, update domain.MemoUpdate) (*domain.Memo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	memo, ok := r.s.memos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if update.Title != nil {
		memo.Title = *update.Title
	}
	if update.Summary != nil {
		memo.Summary = *update.Summary
	}
	if update.OneLineSummary != nil {
		memo.OneLineSummary = *update.OneLineSummary
	}
	if update.KeyPoints != nil {
		memo.KeyPoints = update.KeyPoints
	}
	if update.CoverImage != nil {
		memo.CoverImage = *update.CoverImage
	}
	if update.Metadata != nil {
		memo.Metadata = update.Metadata
	}
	if update.Status != nil {
		memo.Status = *update.Status
	}
	memo.UpdatedAt = time.Now().UTC()
	cp := *memo
	return &cp, nil
}

func (r memoStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.memos[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.memos, id)
	return nil
}

func (r memoStore) GetTranslation(_ context.Context, memoID string, lang domain.Language) (*domain.Translation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tr, ok := r.s.translations[memoID+"/"+string(lang)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *tr
	return &cp, nil
}

func (r memoStore) UpsertTranslation(_ context.Context, memoID string, tr *domain.Translation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *tr
	r.s.translations[memoID+"/"+string(tr.Language)] = &cp
	return nil
}

type chatStore struct{ s *memStore }

func (r chatStore) Append(_ context.Context, msg *domain.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages = append(r.s.messages, *msg)
	return nil
}

func (r chatStore) ListByParent(_ context.Context, parentID string) ([]domain.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range r.s.messages {
		if m.ParentID == parentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r chatStore) DeleteByParent(_ context.Context, parentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.ParentID != parentID {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

type collectionStore struct{ s *memStore }

func (r collectionStore) Create(_ context.Context, c *domain.Collection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	r.s.collections[c.ID] = &cp
	return nil
}

func (r collectionStore) GetByID(_ context.Context, id string) (*domain.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.collections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	cp.MemoCount = len(r.s.members[id])
	return &cp, nil
}

func (r collectionStore) List(_ context.Context) ([]domain.Collection, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Collection, 0, len(r.s.collections))
	for id, c := range r.s.collections {
		cp := *c
		cp.MemoCount = len(r.s.members[id])
		out = append(out, cp)
	}
	return out, nil
}

func (r collectionStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collections[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.collections, id)
	delete(r.s.members, id)
	return nil
}

func (r collectionStore) AddMemo(_ context.Context, collectionID, memoID string) (*domain.CollectionMemo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collections[collectionID]; !ok {
		return nil, domain.ErrNotFound
	}
	if _, ok := r.s.memos[memoID]; !ok {
		return nil, domain.ErrNotFound
	}
	for _, id := range r.s.members[collectionID] {
		if id == memoID {
			return &domain.CollectionMemo{CollectionID: collectionID, MemoID: memoID}, nil
		}
	}
	r.s.members[collectionID] = append(r.s.members[collectionID], memoID)
	return &domain.CollectionMemo{CollectionID: collectionID, MemoID: memoID, AddedAt: time.Now().UTC()}, nil
}

func (r collectionStore) RemoveMemo(_ context.Context, collectionID, memoID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := r.s.members[collectionID]
	for i, id := range ids {
		if id == memoID {
			r.s.members[collectionID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r collectionStore) ListMemos(_ context.Context, collectionID string) ([]domain.CollectionMemo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.collections[collectionID]; !ok {
		return nil, domain.ErrNotFound
	}
	var out []domain.CollectionMemo
	for _, memoID := range r.s.members[collectionID] {
		memo := r.s.memos[memoID]
		if memo == nil {
			continue
		}
		cp := *memo
		out = append(out, domain.CollectionMemo{CollectionID: collectionID, MemoID: memoID, Memo: &cp})
	}
	return out, nil
}

type noteStore struct{ s *memStore }

func (r noteStore) Create(_ context.Context, note *domain.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *note
	r.s.notes[note.ID] = &cp
	return nil
}

func (r noteStore) GetByID(_ context.Context, id string) (*domain.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	note, ok := r.s.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *note
	return &cp, nil
}

func (r noteStore) List(_ context.Context) ([]domain.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Note, 0, len(r.s.notes))
	for _, n := range r.s.notes {
		out = append(out, *n)
	}
	return out, nil
}

func (r noteStore) UpdateFields(_ context.Context, id string, update domain.NoteUpdate) (*domain.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	note, ok := r.s.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if update.Title != nil {
		note.Title = *update.Title
	}
	if update.Content != nil {
		note.Content = *update.Content
	}
	if update.Status != nil {
		note.Status = *update.Status
	}
	if update.Summary != nil {
		note.Summary = *update.Summary
	}
	if update.OneLineSummary != nil {
		note.OneLineSummary = *update.OneLineSummary
	}
	if update.KeyPoints != nil {
		note.KeyPoints = update.KeyPoints
	}
	note.UpdatedAt = time.Now().UTC()
	cp := *note
	return &cp, nil
}

func (r noteStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.notes, id)
	return nil
}

type stubFetcher struct {
	content *domain.SourceContent
	err     error
}

func (f stubFetcher) Fetch(context.Context, string) (*domain.SourceContent, error) {
	return f.content, f.err
}

type stubAI struct {
	result *summarize.Result
	reply  string
	err    error
}

func (a stubAI) Summarize(context.Context, summarize.Source, domain.Language) (*summarize.Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func (a stubAI) Answer(context.Context, string, string) (string, error) {
	return a.reply, a.err
}

type testServer struct {
	store  *memStore
	server *httptest.Server
}

func newTestServer(ai summarize.Client, fetch fetcher.Fetcher) *testServer {
	store := newMemStore()
	memos := memoStore{store}

	registry := fetcher.NewRegistry()
	if fetch != nil {
		registry.Register(domain.MemoKindWebsite, fetch)
		registry.Register(domain.MemoKindYouTube, fetch)
	}

	orchestrator := ingest.NewOrchestrator(ingest.Options{
		Memos:    memos,
		Fetchers: registry,
		AI:       ai,
		Logger:   zerolog.Nop(),
	})
	app := &handlers.App{
		Memos:       memos,
		Chats:       chatStore{store},
		Collections: collectionStore{store},
		Notes:       noteStore{store},
		Ingest:      orchestrator,
		Responder:   chat.NewResponder(chatStore{store}, ai, zerolog.Nop()),
		Log:         zerolog.Nop(),
	}
	router := httpapi.NewRouter(app, httpapi.RouterOptions{Logger: zerolog.Nop()})
	return &testServer{store: store, server: httptest.NewServer(router)}
}

func (ts *testServer) Close() { ts.server.Close() }

func (ts *testServer) URL() string { return ts.server.URL }

func (ts *testServer) addMemo(memo *domain.Memo) {
	ts.store.mu.Lock()
	defer ts.store.mu.Unlock()
	cp := *memo
	ts.store.memos[memo.ID] = &cp
}

func (ts *testServer) addCollection(c *domain.Collection) {
	ts.store.mu.Lock()
	defer ts.store.mu.Unlock()
	cp := *c
	ts.store.collections[c.ID] = &cp
}

func (ts *testServer) addNote(n *domain.Note) {
	ts.store.mu.Lock()
	defer ts.store.mu.Unlock()
	cp := *n
	ts.store.notes[n.ID] = &cp
}

func (ts *testServer) addMember(collectionID, memoID string) {
	ts.store.mu.Lock()
	defer ts.store.mu.Unlock()
	ts.store.members[collectionID] = append(ts.store.members[collectionID], memoID)
}

func (ts *testServer) getMemo(id string) (*domain.Memo, error) {
	return memoStore{ts.store}.GetByID(context.Background(), id)
}

var errMemoGone = errors.New("memo gone")

func (ts *testServer) waitForTerminal(id string) (*domain.Memo, error) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		memo, err := ts.getMemo(id)
		if err != nil {
			return nil, errMemoGone
		}
		if memo.Status.Terminal() {
			return memo, nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil, errors.New("memo never reached a terminal status")
}
