package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/metriculator/pkg/config"
)

// Server wraps the MCP server and registers the scope analysis tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration tool calls start from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger passed to the analysis service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server with all tools and prompts registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		server: mcp.NewServer(
			&mcp.Implementation{
				Name:    "metriculator",
				Version: version,
			},
			nil,
		),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}

	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolScopeTree,
		Description: describeScopeTree(),
	}, s.handleScopeTree)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolScopeMetrics,
		Description: describeScopeMetrics(),
	}, s.handleScopeMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolScopeLinkage,
		Description: describeScopeLinkage(),
	}, s.handleScopeLinkage)
}
