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

	"github.com/kjannette/maichez-backend/internal/api"
	"github.com/kjannette/maichez-backend/internal/assistant"
	"github.com/kjannette/maichez-backend/internal/config"
	"github.com/kjannette/maichez-backend/internal/db"
	"github.com/kjannette/maichez-backend/internal/logger"
	"github.com/kjannette/maichez-backend/internal/notifications"
	"github.com/kjannette/maichez-backend/internal/realtime"
	"github.com/kjannette/maichez-backend/internal/repository"
	"github.com/kjannette/maichez-backend/internal/rules"
	"github.com/kjannette/maichez-backend/internal/transcript"
	"github.com/kjannette/maichez-backend/internal/validator"
)

const version = "0.3.0"

const banner = `
╔══════════════════════════════════════╗
║     MAICHEZ Trade Assistant v0.3     ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	if err := logger.Init(logger.LogConfig{
		Level:          cfg.LogLevel,
		Format:         cfg.LogFormat,
		TracingEnabled: cfg.LogTracing,
		ServiceVersion: version,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	logger.Info(ctx, "Connecting to database", "host", cfg.DBHost, "port", cfg.DBPort, "name", cfg.DBName)
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.ErrorWithErr(ctx, "Database connection failed", err)
		os.Exit(1)
	}
	defer func() {
		pool.Close()
		logger.Info(context.Background(), "Database pool closed")
	}()

	if err := db.TestConnection(ctx, pool); err != nil {
		logger.ErrorWithErr(ctx, "Database test query failed", err)
		os.Exit(1)
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.ErrorWithErr(ctx, "Schema setup failed", err)
		os.Exit(1)
	}

	// Repos
	ruleRepo := repository.NewRuleRepo(pool)
	journalRepo := repository.NewJournalRepo(pool)
	todoRepo := repository.NewTodoRepo(pool)
	analyticsRepo := repository.NewAnalyticsRepo(pool)
	studentRepo := repository.NewStudentRepo(pool)

	// Rule cache and its change source
	ruleCache := rules.NewCache(ruleRepo)
	var changes rules.ChangeSource
	switch cfg.RulesChangeMode {
	case "listen":
		changes = realtime.NewListener(cfg.DSN(), db.RuleChangesChannel)
	case "poll":
		changes = rules.NewPoller(ruleRepo, ruleCache.Users, time.Duration(cfg.RulesPollSeconds)*time.Second)
	}
	if changes != nil {
		go func() {
			if err := ruleCache.Run(ctx, changes); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorWithErr(ctx, "Rule change stream stopped", err, "mode", cfg.RulesChangeMode)
			}
		}()
	} else {
		logger.Warn(ctx, "Rule change stream disabled; only API writes refresh the cache")
	}

	// Trade validator
	val, err := validator.New(validator.Options{
		Provider:     cfg.AIProvider,
		APIKey:       cfg.AIAPIKey,
		Model:        cfg.AIModel,
		BaseURL:      cfg.AIBaseURL,
		MaxTokens:    cfg.AIMaxTokens,
		Temperature:  cfg.AITemperature,
		Timeout:      cfg.AITimeout(),
		SystemPrompt: cfg.Prompts.SystemPrompt,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Validator setup failed", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Trade validator ready", "validator", val.Name())

	// Transcript archive
	var archive transcript.Archive = transcript.Nop{}
	if cfg.TranscriptTable != "" {
		dyn, err := transcript.NewDynamoArchive(ctx, transcript.DynamoOptions{
			Table:    cfg.TranscriptTable,
			Region:   cfg.AWSRegion,
			Endpoint: cfg.DynamoEndpoint,
		})
		if err != nil {
			logger.ErrorWithErr(ctx, "Transcript archive setup failed", err)
			os.Exit(1)
		}
		if err := dyn.EnsureTable(ctx); err != nil {
			logger.ErrorWithErr(ctx, "Transcript table setup failed", err, "table", cfg.TranscriptTable)
			os.Exit(1)
		}
		archive = dyn
	}

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)
	var notifier assistant.Notifier
	if notify.Enabled() {
		notifier = notify
	}

	// Assistant
	svc := assistant.New(val, ruleCache, journalRepo, notifier, archive, assistant.Config{
		Prompts:         cfg.Prompts.Assistant,
		ValidateTimeout: cfg.AITimeout(),
		IdleTTL:         cfg.SessionIdleTTL(),
	})
	go svc.Run(ctx)

	// API server
	srv := api.NewServer(api.Deps{
		Assistant:   svc,
		Rules:       ruleRepo,
		RuleCache:   apiRuleCache(cfg.RulesChangeMode, ruleCache),
		Journal:     journalRepo,
		Todos:       todoRepo,
		Analytics:   analyticsRepo,
		Students:    studentRepo,
		Transcripts: archive,
		DB:          pool,
		Validator:   val.Name(),
	}, api.Options{
		Port:          cfg.APIPort,
		APIKey:        cfg.APIKey,
		JWTSecret:     cfg.SupabaseJWTSecret,
		CORSOrigin:    cfg.CORSAllowOrigin,
		MaxImageBytes: cfg.MaxImageBytes,
		WriteTimeout:  cfg.AITimeout() + 30*time.Second,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithErr(ctx, "API server error", err)
			os.Exit(1)
		}
	}()

	logger.Info(ctx, "All services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(shutdownCtx, "API shutdown error", err)
	}
	if err := logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "tracer shutdown error: %v\n", err)
	}
	fmt.Println("Shutdown complete")
}

// apiRuleCache returns the cache the API should notify about its own rule
// writes. In listen mode the NOTIFY trigger already reports them.
func apiRuleCache(mode string, c *rules.Cache) api.RuleCache {
	if mode == "listen" {
		return nil
	}
	return c
}
