// Package mcpserver exposes every genomics capability over the Model Context
// Protocol.
package mcpserver

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/tools"
)

// Name is the advertised server name.
const Name = "GenomeMCP"

// Invoker is the capability registry as seen by the server.
type Invoker interface {
	Specs() []core.CapabilitySpec
	InvokeJSON(ctx context.Context, name, argsJSON string) tools.Result
}

// Server wraps the MCP SDK server.
type Server struct {
	MCPServer *sdkmcp.Server

	tools  Invoker
	logger *zap.Logger
}

// NewServer registers one MCP tool per capability.
func NewServer(inv Invoker, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if version == "" {
		version = "dev"
	}
	s := &Server{tools: inv, logger: logger}
	s.MCPServer = sdkmcp.NewServer(&sdkmcp.Implementation{Name: Name, Version: version}, nil)
	for _, spec := range inv.Specs() {
		s.MCPServer.AddTool(&sdkmcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.Schema(),
		}, s.handler(spec.Name))
	}
	return s
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) handler(name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var args string
		if req.Params != nil {
			args = string(req.Params.Arguments)
		}
		res := s.tools.InvokeJSON(ctx, name, args)
		if res.IsError() {
			s.logger.Info("tool error", zap.String("tool", name), zap.String("error", res.Err))
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: res.Content()}},
			IsError: res.IsError(),
		}, nil
	}
}
