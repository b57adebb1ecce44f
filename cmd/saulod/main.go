// Command saulod runs the Saulo agent HTTP service.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pablomtz/saulo-agent/internal/brain"
	"github.com/pablomtz/saulo-agent/internal/chat"
	"github.com/pablomtz/saulo-agent/internal/config"
	"github.com/pablomtz/saulo-agent/internal/models"
	"github.com/pablomtz/saulo-agent/internal/server"
	"github.com/pablomtz/saulo-agent/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store.Store
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.HistoryCap)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pg.Close()
		st = pg
		slog.Info("using postgres store")
	} else {
		st = store.NewMemoryStore(cfg.HistoryCap)
		slog.Info("using in-memory store")
	}

	llm, err := models.New(ctx, cfg.Provider, models.Options{
		Model:        cfg.Model,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		GoogleAPIKey: cfg.GoogleAPIKey,
		LocalBaseURL: cfg.LocalLLMURL,
	})
	if err != nil {
		log.Fatalf("failed to create model provider: %v", err)
	}

	var embedder store.Embedder
	if cfg.EmbeddingModel != "" {
		genaiEmbedder, err := store.NewGenAIEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			log.Fatalf("failed to create embedder: %v", err)
		}
		embedder = genaiEmbedder
	}

	orchestrator := chat.New(st, llm, embedder, brain.NewFallbackResponder(nil), chat.Options{
		HistoryLimit:        cfg.HistoryLimit,
		InsightLimit:        cfg.InsightLimit,
		Timeout:             cfg.LLMTimeout,
		MaxOutputTokens:     cfg.MaxOutputTokens,
		Temperature:         cfg.Temperature,
		TopK:                cfg.TopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		DefaultUserID:       cfg.DefaultUserID,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(orchestrator).Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err.Error())
		}
		cancel()
	}()

	slog.Info("saulo agent listening", "addr", cfg.ListenAddr, "provider", cfg.Provider, "model", cfg.Model)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}
