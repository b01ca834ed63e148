package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quillon/acatflow/internal/audit"
	"github.com/quillon/acatflow/internal/common"
	"github.com/quillon/acatflow/internal/learning"
	"github.com/quillon/acatflow/internal/llm"
	"github.com/quillon/acatflow/internal/server"
	"github.com/quillon/acatflow/internal/tracking"
)

// subscribableStore is what serve needs beyond the plain Store contract:
// both backends support event fan-out and audit sinks.
type subscribableStore interface {
	tracking.Store
	Subscribe(tracking.Subscriber)
	SetAuditSink(tracking.AuditSink)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the validation API server",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("storage", "memory", "tracking storage driver (memory, sqlite)")
	cmd.Flags().String("db", "", "sqlite database path (default: $HOME/.local/share/acatflow/acatflow.db)")

	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("storage.driver", cmd.Flags().Lookup("storage"))
	_ = viper.BindPFlag("storage.path", cmd.Flags().Lookup("db"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := buildTrackingStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close tracking store", "error", closeErr)
		}
	}()

	learningStore := learning.NewStore()
	auditLog := audit.NewLog()
	store.Subscribe(learningStore)
	store.SetAuditSink(auditLog)

	analyzer, err := createAnalyzer()
	if err != nil {
		return err
	}
	if analyzer == nil {
		slog.Info("No LLM provider configured, validation stops at the rule engine")
	}

	addr := viper.GetString("server.addr")
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.New(store, learningStore, auditLog, analyzer, version).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

func buildTrackingStore(ctx context.Context) (subscribableStore, error) {
	return openTrackingStore(ctx, viper.GetString("storage.driver"), viper.GetString("storage.path"))
}

func openTrackingStore(ctx context.Context, driver, dbPath string) (subscribableStore, error) {
	switch driver {
	case "", "memory":
		return tracking.NewMemoryStore(), nil

	case "sqlite":
		if dbPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			dbPath = filepath.Join(home, ".local", "share", "acatflow", "acatflow.db")
		}

		store, err := tracking.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open tracking database: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to migrate tracking database: %w", err)
		}
		slog.Info("Using sqlite tracking store", "path", dbPath)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

// createAnalyzer builds the AI escalation client from configuration. A
// missing provider is not an error: the server degrades to rule-only
// validation.
func createAnalyzer() (*llm.Analyzer, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		return nil, nil
	}

	config := llm.Config{
		Provider:    provider,
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}

	// Get API key based on provider
	switch provider {
	case "anthropic":
		apiKey := viper.GetString("llm.anthropic_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, common.NewUserError("anthropic API key not found in config or ANTHROPIC_API_KEY environment variable", common.ErrMissingConfig)
		}
		config.APIKey = apiKey

	case "openai":
		apiKey := viper.GetString("llm.openai_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, common.NewUserError("OpenAI API key not found in config or OPENAI_API_KEY environment variable", common.ErrMissingConfig)
		}
		config.APIKey = apiKey

	default:
		return nil, common.NewUserError(fmt.Sprintf("unsupported LLM provider: %s", provider), common.ErrInvalidConfig)
	}

	client, err := llm.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return llm.NewAnalyzer(client), nil
}
