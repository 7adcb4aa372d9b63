package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/gethelp/internal/api"
	"github.com/nikhilbhutani/gethelp/internal/api/handlers"
	"github.com/nikhilbhutani/gethelp/internal/cache"
	"github.com/nikhilbhutani/gethelp/internal/config"
	"github.com/nikhilbhutani/gethelp/internal/conversation"
	"github.com/nikhilbhutani/gethelp/internal/database"
	"github.com/nikhilbhutani/gethelp/internal/intake"
	"github.com/nikhilbhutani/gethelp/internal/intent"
	"github.com/nikhilbhutani/gethelp/internal/llm"
	"github.com/nikhilbhutani/gethelp/internal/multimodal/stt"
	"github.com/nikhilbhutani/gethelp/internal/multimodal/tts"
	"github.com/nikhilbhutani/gethelp/internal/pipeline"
	"github.com/nikhilbhutani/gethelp/internal/prompt"
	"github.com/nikhilbhutani/gethelp/internal/queue"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	checks := map[string]handlers.Pinger{}

	// Database is only probed for readiness here; the worker owns the writes.
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, running without DB", "error", err)
	} else {
		defer db.Close()
		checks["database"] = db
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var (
		resultCache handlers.ResultCache
		taskAudit   pipeline.AuditRecorder
		usage       conversation.UsageRecorder
	)
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without idempotency cache or audit queue", "error", err)
	} else {
		c := cache.NewCache(rdb, "gethelp:")
		resultCache = c
		checks["redis"] = c

		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		rec := queue.NewRecorder(qc)
		taskAudit, usage = rec, rec
	}

	registry := tasks.NewRegistry(tasks.Builtin()...)
	orch, err := buildPipeline(cfg, registry, taskAudit, usage)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(cfg, api.Deps{
		Pipeline: orch,
		Tasks:    registry,
		Cache:    resultCache,
		Checks:   checks,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Timeouts.Transcription + cfg.Timeouts.Completion + cfg.Timeouts.Synthesis + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func buildPipeline(cfg *config.Config, registry *tasks.Registry, taskAudit pipeline.AuditRecorder, usage conversation.UsageRecorder) (*pipeline.Orchestrator, error) {
	store, err := intake.NewDiskStore(cfg.Intake.Dir, cfg.Intake.MaxBytes)
	if err != nil {
		return nil, err
	}

	sttProvider, err := stt.NewProvider(cfg.STT)
	if err != nil {
		return nil, err
	}
	ttsProvider, err := tts.NewProvider(cfg.TTS)
	if err != nil {
		return nil, err
	}

	caps := make([]prompt.Capability, 0)
	for _, d := range registry.List() {
		caps = append(caps, prompt.Capability{Name: d.ID, Description: d.Capability})
	}
	system, err := prompt.SystemPrompt(cfg.Conversation.AssistantName, caps)
	if err != nil {
		return nil, err
	}

	gw := llm.NewGateway(cfg.LLM)
	engine := conversation.New(gw, system, conversation.Options{
		Provider:    cfg.LLM.DefaultProvider,
		Model:       cfg.LLM.DefaultModel,
		MaxTokens:   cfg.Conversation.MaxTokens,
		Temperature: cfg.Conversation.Temperature,
		Timeout:     cfg.Timeouts.Completion,
		Usage:       usage,
	})

	deps := pipeline.Deps{
		Store:       store,
		Transcriber: stt.NewService(sttProvider, cfg.STT.Language, cfg.Timeouts.Transcription),
		Responder:   engine,
		Synthesizer: tts.NewService(ttsProvider, cfg.Timeouts.Synthesis),
		Tasks:       registry,
		Audit:       taskAudit,
	}
	if cfg.Intent.Enabled {
		deps.Intents = intent.NewDetector(gw, registry.List(), intent.Options{
			Model:         cfg.Intent.Model,
			MinConfidence: cfg.Intent.MinConfidence,
			Timeout:       cfg.Timeouts.Intent,
			Usage:         usage,
		})
	}

	slog.Info("pipeline ready",
		"stt", sttProvider.Name(),
		"tts", ttsProvider.Name(),
		"llm", cfg.LLM.DefaultProvider,
		"intent_detection", cfg.Intent.Enabled,
	)
	return pipeline.New(deps, cfg.Timeouts.Task), nil
}
