package server

import (
	"errors"
	"fmt"

	"github.com/brizzai/mcp-openapi-hub/internal/metrics"
	"github.com/brizzai/mcp-openapi-hub/internal/registry"
	"github.com/brizzai/mcp-openapi-hub/internal/server/tool"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ErrToolNotPublished is returned when retracting a name the MCP server does not know
var ErrToolNotPublished = errors.New("tool not published")

// ToolHost publishes registry tools on an MCP server
type ToolHost struct {
	mcp     *mcpserver.MCPServer
	tools   *tool.Handler
	metrics *metrics.Collector
}

// NewToolHost creates a ToolHost backed by s
func NewToolHost(s *mcpserver.MCPServer, tools *tool.Handler, m *metrics.Collector) *ToolHost {
	return &ToolHost{mcp: s, tools: tools, metrics: m}
}

// Publish adds the tool to the MCP server, replacing any tool of the same name
func (h *ToolHost) Publish(t registry.Tool) error {
	if t.Name == "" {
		return errors.New("tool name is empty")
	}
	if len(t.InputSchema) == 0 {
		return fmt.Errorf("tool %s has no input schema", t.Name)
	}

	replaced := h.mcp.GetTool(t.Name) != nil
	h.mcp.AddTool(
		mcp.NewToolWithRawSchema(t.Name, t.Description, t.InputSchema),
		h.tools.CreateHandler(t.OperationID),
	)
	if !replaced {
		h.metrics.ToolPublished()
	}
	return nil
}

// Retract removes the named tool from the MCP server
func (h *ToolHost) Retract(name string) error {
	if h.mcp.GetTool(name) == nil {
		return fmt.Errorf("%w: %s", ErrToolNotPublished, name)
	}
	h.mcp.DeleteTools(name)
	h.metrics.ToolRetracted()
	return nil
}
