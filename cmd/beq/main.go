// BeQ server — serves the conversational assistant API, the schedule
// planners, and calendar sync.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/beq-project/beq/pkg/api"
	"github.com/beq-project/beq/pkg/calendar"
	"github.com/beq-project/beq/pkg/config"
	"github.com/beq-project/beq/pkg/conversation"
	"github.com/beq-project/beq/pkg/database"
	"github.com/beq-project/beq/pkg/llm"
	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/orchestrator"
	"github.com/beq-project/beq/pkg/planner"
	"github.com/beq-project/beq/pkg/repository"
	"github.com/beq-project/beq/pkg/tools"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	}

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	clock := models.SystemClock{}

	// Repositories: PostgreSQL when DB_HOST is set, in-memory otherwise.
	// The in-memory store keeps local development and demos dependency-free.
	var store *repository.Store
	if os.Getenv("DB_HOST") != "" {
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			slog.Error("Failed to load database config", "error", err)
			os.Exit(1)
		}
		dbClient, err := database.NewClient(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		store = repository.NewPostgresStore(dbClient.DB(), clock)
		slog.Info("Connected to PostgreSQL database", "host", dbConfig.Host)
	} else {
		store = repository.NewMemoryStore(clock)
		slog.Warn("DB_HOST not set, using in-memory store; data will not survive restarts")
	}

	provider, err := llm.NewOpenAIProvider(cfg.LLM, logger)
	if err != nil {
		slog.Error("Failed to initialize LLM provider", "error", err)
		os.Exit(1)
	}
	slog.Info("LLM provider initialized", "model", cfg.LLM.Model)

	// Calendar is optional. A static bearer token is the simplest credential;
	// OAuth refresh flows plug in through the same TokenSource seam.
	var calendarProvider calendar.Provider
	var syncService *calendar.SyncService
	if token := os.Getenv("GOOGLE_CALENDAR_TOKEN"); token != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		calendarProvider = calendar.NewGoogleClient(source, cfg.Calendar.BaseURL, cfg.Calendar.RequestTimeout, logger)
		syncService = calendar.NewSyncService(calendarProvider, clock, logger)
		slog.Info("Calendar provider initialized")
	} else {
		slog.Info("GOOGLE_CALENDAR_TOKEN not set, calendar tools disabled")
	}

	plnr := planner.New(cfg.Planner.Engine, provider, clock, cfg.Planner.LLMDeadline, logger)

	registry := tools.NewDefaultRegistry(tools.Deps{
		Store:       store,
		Planner:     plnr,
		Calendar:    calendarProvider,
		Sync:        syncService,
		Clock:       clock,
		HorizonDays: cfg.Planner.HorizonDays,
	}, logger)
	slog.Info("Tool registry initialized", "tools", len(registry.Names()))

	orch := orchestrator.New(provider, registry, store.Messages, cfg.Orchestrator, logger)
	turns := conversation.NewSerializer(orch, logger)

	server := api.NewServer(turns, plnr, calendarProvider, syncService, clock, cfg.Planner.HorizonDays, logger)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.API.ListenAddr)
		if err := server.Start(cfg.API.ListenAddr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
