// Package cli provides the command-line interface for memgate.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/memgate-go/internal/config"
	"github.com/raphaelgruber/memgate-go/internal/db"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global config, logger and db client, set up in PersistentPreRunE.
	cfg      config.Config
	logger   *slog.Logger
	logClose func() error
	dbClient *db.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "memgate",
	Short: "Consent-aware dual-storage memory engine",
	Long: `Memgate routes conversational memory into an ephemeral session tier and
a durable long-term tier. High-risk personal information is redacted or
held back pending explicit consent before anything durable is written.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, logClose = config.SetupLogger(cfg.LogFile, cfg.LogLevel)

		ctx := context.Background()
		dbClient, err = db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbeddingDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logClose != nil {
			_ = logClose()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd)
}
