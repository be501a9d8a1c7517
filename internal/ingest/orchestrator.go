package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clipnote/internal/domain"
	"clipnote/internal/fetcher"
	"clipnote/internal/summarize"
)

const (
	defaultFetchTimeout     = 60 * time.Second
	defaultSummarizeTimeout = 90 * time.Second
)

// Options configures an Orchestrator.
type Options struct {
	Memos            domain.MemoRepository
	Fetchers         *fetcher.Registry
	AI               summarize.Client
	Logger           zerolog.Logger
	WorkerID         string
	FetchTimeout     time.Duration
	SummarizeTimeout time.Duration
}

// Orchestrator runs the asynchronous ingestion pipeline. Submit inserts
// a processing placeholder and returns immediately; a background run
// fetches the source, summarizes it, and moves the memo to completed or
// failed exactly once. Deleting a memo cancels its run.
type Orchestrator struct {
	memos            domain.MemoRepository
	fetchers         *fetcher.Registry
	ai               summarize.Client
	log              zerolog.Logger
	workerID         string
	fetchTimeout     time.Duration
	summarizeTimeout time.Duration

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// NewOrchestrator builds an orchestrator over the given dependencies.
func NewOrchestrator(opts Options) *Orchestrator {
	workerID := opts.WorkerID
	if workerID == "" {
		workerID = uuid.NewString()
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	summarizeTimeout := opts.SummarizeTimeout
	if summarizeTimeout <= 0 {
		summarizeTimeout = defaultSummarizeTimeout
	}
	return &Orchestrator{
		memos:            opts.Memos,
		fetchers:         opts.Fetchers,
		ai:               opts.AI,
		log:              opts.Logger,
		workerID:         workerID,
		fetchTimeout:     fetchTimeout,
		summarizeTimeout: summarizeTimeout,
		running:          make(map[string]context.CancelFunc),
	}
}

// Submit validates the request, persists a processing placeholder, and
// starts the background run. It returns the placeholder without waiting
// for the run to make progress.
func (o *Orchestrator) Submit(ctx context.Context, rawURL string, kind domain.MemoKind, lang domain.Language) (*domain.Memo, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid url", domain.ErrValidation)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: invalid type %q", domain.ErrValidation, kind)
	}
	if lang == "" {
		lang = domain.LanguageEnglish
	}
	if !lang.Valid() {
		return nil, domain.ErrUnsupportedLanguage
	}

	now := time.Now().UTC()
	memo := &domain.Memo{
		ID:        uuid.NewString(),
		URL:       rawURL,
		Kind:      kind,
		Status:    domain.MemoStatusProcessing,
		Title:     domain.PlaceholderTitle,
		Summary:   domain.PlaceholderSummary,
		WorkerID:  o.workerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.memos.Create(ctx, memo); err != nil {
		return nil, fmt.Errorf("create memo: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		cancel()
		return memo, nil
	}
	o.running[memo.ID] = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	go o.process(runCtx, memo.ID, memo.URL, kind, lang)

	return memo, nil
}

// Cancel stops the background run for the given memo, if one is active.
// It does not touch the stored record; callers delete the row themselves.
func (o *Orchestrator) Cancel(id string) {
	o.mu.Lock()
	cancel, ok := o.running[id]
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

// Close cancels all active runs and waits for them to drain, up to the
// context deadline.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	for _, cancel := range o.running {
		cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PollStatus reads the memo until it reaches a terminal status or the
// attempts are exhausted; the last read is returned either way.
func (o *Orchestrator) PollStatus(ctx context.Context, id string, attempts int, interval time.Duration) (*domain.Memo, error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts-1; i++ {
		memo, err := o.memos.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if memo.Status.Terminal() {
			return memo, nil
		}
		select {
		case <-ctx.Done():
			return memo, ctx.Err()
		case <-time.After(interval):
		}
	}
	return o.memos.GetByID(ctx, id)
}

// GenerateTranslation produces (or returns the cached) summary triple in
// the requested language. The memo must already be completed.
func (o *Orchestrator) GenerateTranslation(ctx context.Context, id string, lang domain.Language) (*domain.Translation, error) {
	if !lang.Valid() {
		return nil, domain.ErrUnsupportedLanguage
	}
	memo, err := o.memos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if memo.Status != domain.MemoStatusCompleted {
		return nil, fmt.Errorf("%w: memo is %s", domain.ErrPrecondition, memo.Status)
	}
	if tr, err := o.memos.GetTranslation(ctx, id, lang); err == nil {
		return tr, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	res, err := o.ai.Summarize(ctx, summarize.Source{
		Title: memo.Title,
		URL:   memo.URL,
		Text:  memo.Summary,
		Kind:  memo.Kind,
	}, lang)
	if err != nil {
		return nil, err
	}
	tr := &domain.Translation{
		Language:       lang,
		Summary:        res.Summary,
		OneLineSummary: res.OneLineSummary,
		KeyPoints:      res.KeyPoints,
		CreatedAt:      time.Now().UTC(),
	}
	if err := o.memos.UpsertTranslation(ctx, id, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// SummarizeText runs one synchronous summarization over text the caller
// already holds, with the usual timeout applied.
func (o *Orchestrator) SummarizeText(ctx context.Context, title, text string, lang domain.Language) (*summarize.Result, error) {
	if !lang.Valid() {
		return nil, domain.ErrUnsupportedLanguage
	}
	sctx, cancel := context.WithTimeout(ctx, o.summarizeTimeout)
	defer cancel()
	return o.ai.Summarize(sctx, summarize.Source{
		Title: title,
		Text:  text,
		Kind:  domain.MemoKindWebsite,
	}, lang)
}

func (o *Orchestrator) process(ctx context.Context, id, rawURL string, kind domain.MemoKind, lang domain.Language) {
	defer func() {
		o.mu.Lock()
		if cancel, ok := o.running[id]; ok {
			cancel()
			delete(o.running, id)
		}
		o.mu.Unlock()
		o.wg.Done()
	}()

	log := o.log.With().Str("memo_id", id).Str("kind", string(kind)).Logger()
	log.Info().Str("url", rawURL).Msg("ingestion started")

	if !o.stillWanted(ctx, id, log) {
		return
	}

	fetchCtx, cancelFetch := context.WithTimeout(ctx, o.fetchTimeout)
	content, err := o.fetchers.Fetch(fetchCtx, kind, rawURL)
	cancelFetch()
	if err != nil {
		o.fail(ctx, id, log, fmt.Errorf("fetch content: %w", err))
		return
	}
	if !o.stillWanted(ctx, id, log) {
		return
	}

	sumCtx, cancelSum := context.WithTimeout(ctx, o.summarizeTimeout)
	res, err := o.ai.Summarize(sumCtx, summarize.Source{
		Title: content.Title,
		URL:   rawURL,
		Text:  content.Text,
		Kind:  kind,
	}, lang)
	cancelSum()
	if err != nil {
		o.fail(ctx, id, log, fmt.Errorf("summarize content: %w", err))
		return
	}
	if !o.stillWanted(ctx, id, log) {
		return
	}

	completed := domain.MemoStatusCompleted
	update := domain.MemoUpdate{
		Title:          &content.Title,
		Summary:        &res.Summary,
		OneLineSummary: &res.OneLineSummary,
		KeyPoints:      res.KeyPoints,
		Status:         &completed,
	}
	if content.CoverImage != "" {
		update.CoverImage = &content.CoverImage
	}
	if content.Metadata != nil {
		update.Metadata = content.Metadata
	}
	if _, err := o.memos.UpdateFields(context.Background(), id, update); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug().Msg("memo deleted before completion write")
			return
		}
		log.Error().Err(err).Msg("persist completed memo")
		return
	}
	log.Info().Msg("ingestion completed")
}

// stillWanted reports whether the run should continue. It stops on
// cancellation and when the memo row has been deleted mid-flight.
func (o *Orchestrator) stillWanted(ctx context.Context, id string, log zerolog.Logger) bool {
	select {
	case <-ctx.Done():
		log.Info().Msg("ingestion cancelled")
		return false
	default:
	}
	if _, err := o.memos.GetByID(context.Background(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info().Msg("memo deleted, abandoning ingestion")
		} else {
			log.Warn().Err(err).Msg("recheck memo")
		}
		return false
	}
	return true
}

// fail records the terminal failed status with the error text in the
// summary field. The placeholder title and any partial fields are left
// as they are. A deleted or cancelled memo is not written.
func (o *Orchestrator) fail(ctx context.Context, id string, log zerolog.Logger, cause error) {
	log.Error().Err(cause).Msg("ingestion failed")
	select {
	case <-ctx.Done():
		return
	default:
	}
	failed := domain.MemoStatusFailed
	msg := fmt.Sprintf("Failed to process content: %v", cause)
	_, err := o.memos.UpdateFields(context.Background(), id, domain.MemoUpdate{
		Summary: &msg,
		Status:  &failed,
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Msg("persist failed memo")
	}
}
