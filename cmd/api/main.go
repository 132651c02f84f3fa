// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/config"
	"github.com/capitalize-ai/theology-chat/internal/handler"
	"github.com/capitalize-ai/theology-chat/internal/history"
	"github.com/capitalize-ai/theology-chat/internal/lessonstore"
	"github.com/capitalize-ai/theology-chat/internal/llm"
	natsclient "github.com/capitalize-ai/theology-chat/internal/nats"
	"github.com/capitalize-ai/theology-chat/internal/service"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
	"github.com/capitalize-ai/theology-chat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server", zap.String("port", cfg.ServerPort))

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "theology-chat-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	checks := map[string]handler.Checker{}

	// Conversation history: JetStream when NATS is configured, memory otherwise
	var historyStore history.Store = history.NewMemoryStore()
	if cfg.NATSURL != "" {
		natsClient, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
			Name:     "theology-chat-api",
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		stream := natsclient.NewHistoryStore(natsClient, 0)
		if err := stream.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		historyStore = stream
	} else {
		log.Info("NATS_URL not set, keeping conversation history in memory")
	}

	// Initialize LLM client
	llmClient, err := llm.NewClient(llm.Options{
		Provider:        llm.Provider(cfg.DefaultLLM),
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		Model:           cfg.LLMModel,
	})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("no LLM API key configured, chat and lessons will fail until one is set")
	case err != nil:
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	default:
		log.Info("LLM client ready", zap.String("provider", llmClient.Name()), zap.String("model", llmClient.DefaultModel()))
	}

	// Lesson archive
	lessons, err := lessonstore.Open(cfg.LessonDBPath)
	if err != nil {
		log.Error("failed to open lesson archive", zap.String("path", cfg.LessonDBPath), zap.Error(err))
		os.Exit(1)
	}
	defer lessons.Close()
	checks["lessons"] = handler.CheckerFunc(lessons.Ping)

	// Initialize services
	chatSvc := service.NewChatService(llmClient, historyStore, log)
	lessonSvc := service.NewLessonService(llmClient, lessons, log)
	checks["history"] = chatSvc

	// Create router
	r := handler.NewRouter(handler.RouterOptions{
		Chat:              handler.NewChatHandler(chatSvc, log),
		Lessons:           handler.NewLessonsHandler(lessonSvc, log),
		Health:            handler.NewHealthHandler(checks),
		PWA:               cfg.PWA,
		Logger:            log,
		ClientURL:         cfg.ClientURL,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
