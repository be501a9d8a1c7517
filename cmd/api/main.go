package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clipnote/internal/adapter/repo"
	"clipnote/internal/chat"
	"clipnote/internal/domain"
	"clipnote/internal/fetcher"
	"clipnote/internal/http/handlers"
	"clipnote/internal/http/httpapi"
	"clipnote/internal/infra"
	"clipnote/internal/ingest"
	"clipnote/internal/summarize"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := infra.ApplySchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	memos := repo.NewMemoRepository(dbpool)
	chats := repo.NewChatRepository(dbpool)
	collections := repo.NewCollectionRepository(dbpool)
	notes := repo.NewNoteRepository(dbpool)

	fetchers := fetcher.NewRegistry()
	fetchers.Register(domain.MemoKindWebsite, fetcher.NewWebFetcher(&http.Client{Timeout: cfg.FetchTimeout}))
	fetchers.Register(domain.MemoKindYouTube, fetcher.NewVideoFetcher(cfg.YtDlpPath))

	ai := summarize.NewOpenAIClient(summarize.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		SummaryModel: cfg.OpenAIModel,
		ChatModel:    cfg.OpenAIChatModel,
		Temperature:  cfg.OpenAITemp,
	})
	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY is not set, summarization and chat will fail")
	}

	orchestrator := ingest.NewOrchestrator(ingest.Options{
		Memos:            memos,
		Fetchers:         fetchers,
		AI:               ai,
		Logger:           logger,
		FetchTimeout:     cfg.FetchTimeout,
		SummarizeTimeout: cfg.SummarizeTimeout,
	})
	responder := chat.NewResponder(chats, ai, logger)

	app := &handlers.App{
		Memos:       memos,
		Chats:       chats,
		Collections: collections,
		Notes:       notes,
		Ingest:      orchestrator,
		Responder:   responder,
		Log:         logger,
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := orchestrator.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("ingestion runs did not drain in time")
	}
	logger.Info().Msg("server stopped")
}
