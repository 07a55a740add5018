// Package server hosts the MCP surface of the routing engine.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "memgate"

const instructions = `memgate routes conversational memory between an ephemeral ` +
	`session tier and durable storage. Send items through process_message; ` +
	`high-risk content is held in a pending queue until resolve_consent ` +
	`approves or denies it.`

// Server wraps the MCP server with lifecycle management.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates the MCP server for the given engine version.
func New(version string, logger *slog.Logger) *Server {
	impl := &mcp.Implementation{Name: serverName, Version: version}
	opts := &mcp.ServerOptions{Instructions: instructions}

	return &Server{
		mcp:    mcp.NewServer(impl, opts),
		logger: logger,
	}
}

// Setup installs the request logging middleware.
func (s *Server) Setup() {
	s.mcp.AddReceivingMiddleware(LoggingMiddleware(s.logger))
}

// MCPServer returns the underlying MCP server for tool registration.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves on stdio and blocks until disconnect or context
// cancellation. Stdout belongs to the transport; all logging goes to
// stderr and the log file.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", "name", serverName, "transport", "stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
