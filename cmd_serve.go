package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/datachat/internal/adapter/assistant"
	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/config"
	"github.com/xiaot623/gogo/datachat/internal/logging"
	"github.com/xiaot623/gogo/datachat/internal/policy"
	"github.com/xiaot623/gogo/datachat/internal/repository"
	"github.com/xiaot623/gogo/datachat/internal/service"
	"github.com/xiaot623/gogo/datachat/internal/session"
	"github.com/xiaot623/gogo/datachat/internal/sqlexec"
	"github.com/xiaot623/gogo/datachat/internal/tools"
	transport "github.com/xiaot623/gogo/datachat/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting datachat",
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("database", cfg.DatabaseURL),
		zap.String("storage_dir", cfg.StorageDir),
		zap.String("uploads_dir", cfg.UploadsDir),
		zap.String("mode", cfg.Mode))
	if cfg.Mode != assistant.ModeMock && cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; upstream calls will fail")
	}
	if cfg.AssistantID == "" {
		logger.Warn("ASSISTANT_ID is not set; chat requests will fail")
	}

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	// Initialize policy engine and tools
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}
	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry, sqlexec.New(policyEngine, logger)); err != nil {
		return err
	}

	// Initialize upstream clients
	llmClient := llm.NewLLMClient(cfg.Mode, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMTimeout, logger)
	assistantClient := assistant.NewAssistantClient(cfg.Mode, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMTimeout, logger)

	// Initialize service
	sessions := session.NewRegistry(logger)
	svc := service.New(db, sessions, assistantClient, llmClient, registry, cfg, logger)
	if n := svc.SweepStaleRuns(ctx); n > 0 {
		logger.Info("marked interrupted runs", zap.Int("count", n))
	}

	janitor, err := session.NewJanitor(sessions, cfg.JanitorSchedule, cfg.SessionTTL, logger, svc.ExpireSession)
	if err != nil {
		return err
	}
	janitor.Start()

	server := transport.NewServer(svc, cfg.StaticDir, cfg.MaxUploadBytes, logger)

	// Run until a signal arrives or the server fails.
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info("HTTP API started", zap.Int("port", cfg.HTTPPort))
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down datachat")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown HTTP server gracefully", zap.Error(err))
		}
		janitor.Stop(shutdownCtx)
		return nil
	})

	err = g.Wait()
	logger.Info("datachat stopped")
	return err
}
