package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/memgate-go/internal/consent"
	"github.com/raphaelgruber/memgate-go/internal/store"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire stale pending consent records",
	Long: `Expires pending consent records older than the consent window.
Expiry is an implicit deny: the deferred content is never durably stored.
Run periodically, for example from cron.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pending := store.NewSurrealPendingStore(dbClient)

	// The sweep never writes durable records and has no access to any
	// live session's ephemeral tier.
	lifecycle := consent.NewLifecycle(pending, nil, nil, logger).
		WithWindow(cfg.ConsentWindow())

	expired, err := lifecycle.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	fmt.Printf("Expired %d pending consent record(s)\n", expired)
	return nil
}
