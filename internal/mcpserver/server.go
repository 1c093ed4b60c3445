package mcpserver

import (
	"context"

	"github.com/akolanti/localrag/internal/adapter/utils"
	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/rag"
	"github.com/akolanti/localrag/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName = "local-rag"
	Version    = "0.1.0"
)

var logger = logger_i.NewLogger("MCP")

type Server struct {
	rag    rag.Service
	server *mcp.Server
}

func NewServer(ragService rag.Service) *Server {
	s := &Server{
		rag:    ragService,
		server: mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: Version}, nil),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is cancelled or the client goes away.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server listening on stdio", "name", ServerName)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// withTrace gives each tool call its own trace id for the logs.
func withTrace(ctx context.Context) context.Context {
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok && trace != "" {
		return ctx
	}
	return context.WithValue(ctx, config.TRACE_ID_KEY, utils.GetNewUUID())
}
