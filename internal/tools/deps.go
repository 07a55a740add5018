// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/raphaelgruber/memgate-go/internal/consent"
	"github.com/raphaelgruber/memgate-go/internal/metrics"
	"github.com/raphaelgruber/memgate-go/internal/router"
	"github.com/raphaelgruber/memgate-go/internal/store"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Router    *router.Router
	Lifecycle *consent.Lifecycle
	Ephemeral store.EphemeralStore
	Durable   store.DurableStore
	Pending   store.PendingStore
	Metrics   *metrics.Collector
	Logger    *slog.Logger
}
