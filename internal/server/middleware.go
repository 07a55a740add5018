package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool arguments can carry whole conversation turns; cap what lands in
// the log so raw PII exposure stays bounded.
const maxLoggedParams = 160

const slowCallThreshold = 250 * time.Millisecond

// LoggingMiddleware logs every MCP request with its duration. Calls
// slower than slowCallThreshold are promoted to WARN.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			elapsed := time.Since(start)

			attrs := []any{"method", method, "duration_ms", elapsed.Milliseconds()}
			if params := req.GetParams(); params != nil {
				attrs = append(attrs, "params", clip(fmt.Sprintf("%+v", params)))
			}

			switch {
			case err != nil:
				logger.Error("request failed", append(attrs, "error", err.Error())...)
			case elapsed > slowCallThreshold:
				logger.Warn("slow request", attrs...)
			default:
				logger.Debug("request completed", attrs...)
			}

			return result, err
		}
	}
}

func clip(s string) string {
	if len(s) <= maxLoggedParams {
		return s
	}
	return s[:maxLoggedParams] + "..."
}
