package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/memgate-go/internal/consent"
	"github.com/raphaelgruber/memgate-go/internal/embedding"
	"github.com/raphaelgruber/memgate-go/internal/llm"
	"github.com/raphaelgruber/memgate-go/internal/metrics"
	"github.com/raphaelgruber/memgate-go/internal/recognition"
	"github.com/raphaelgruber/memgate-go/internal/retry"
	"github.com/raphaelgruber/memgate-go/internal/risk"
	"github.com/raphaelgruber/memgate-go/internal/router"
	"github.com/raphaelgruber/memgate-go/internal/server"
	"github.com/raphaelgruber/memgate-go/internal/significance"
	"github.com/raphaelgruber/memgate-go/internal/store"
	"github.com/raphaelgruber/memgate-go/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Starts the memgate MCP server on stdio transport. The server exposes
the routing pipeline, consent resolution and retrieval as MCP tools.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("memgate starting",
		"version", Version,
		"surrealdb_url", cfg.SurrealDBURL,
		"embedding_model", cfg.EmbeddingModel,
		"llm_provider", cfg.LLMProvider,
	)

	collector := metrics.NewCollector()

	embedder, err := embedding.NewOllamaClient(cfg.EmbeddingModel, cfg.EmbeddingDimension)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}
	logger.Info("embedder initialized", "model", embedder.Model(), "dimension", embedder.Dimension())

	model, err := llm.NewModel(llm.Config{
		Provider:        llm.Provider(cfg.LLMProvider),
		Model:           cfg.LLMModel,
		OllamaHost:      cfg.OllamaHost,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})
	if err != nil {
		return fmt.Errorf("create scoring model: %w", err)
	}

	retryPolicy := retry.Default()
	scorer := significance.NewLLMScorer(model, retryPolicy, collector)
	decomposer := significance.NewDecomposer(scorer, cfg.ScoringTimeout, logger)
	classifier := risk.NewClassifier(
		recognition.NewPatternDetector(),
		risk.DefaultPolicy(),
		retryPolicy,
		logger,
		collector,
	)

	ephemeral := store.NewMemoryEphemeralStore(cfg.EphemeralCapacity)
	durable := store.NewSurrealDurableStore(dbClient, embedder, collector)
	pending := store.NewSurrealPendingStore(dbClient)

	engine := router.New(classifier, decomposer, ephemeral, durable, pending, logger, collector)
	lifecycle := consent.NewLifecycle(pending, durable, ephemeral, logger).
		WithWindow(cfg.ConsentWindow())

	srv := server.New(Version, logger)
	srv.Setup()

	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Router:    engine,
		Lifecycle: lifecycle,
		Ephemeral: ephemeral,
		Durable:   durable,
		Pending:   pending,
		Metrics:   collector,
		Logger:    logger,
	})

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("memgate stopped")
	return nil
}
