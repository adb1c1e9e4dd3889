// Package tool adapts operation invocations to MCP tool calls.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/requester"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Handler builds MCP tool handlers that dispatch to the backend operation
type Handler struct {
	invoker requester.Invoker
}

// NewHandler creates a new tool handler
func NewHandler(invoker requester.Invoker) *Handler {
	return &Handler{invoker: invoker}
}

// CreateHandler creates the handler of the tool bound to operationID.
// Invocation failures are reported as error results, never as protocol errors.
func (h *Handler) CreateHandler(operationID string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		logger.Debug("Tool called",
			zap.String("tool", request.Params.Name),
			zap.String("operation", operationID),
			zap.Int("arguments", len(args)),
		)

		result, err := h.invoker.Invoke(ctx, operationID, args)
		if err != nil {
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return NewResult(result), nil
	}
}

// NewResult wraps a backend value: objects become structured content with a
// JSON text fallback, strings are returned as text, other values as JSON text
func NewResult(value any) *mcp.CallToolResult {
	switch v := value.(type) {
	case nil:
		return mcp.NewToolResultText("")
	case string:
		return mcp.NewToolResultText(v)
	case map[string]any:
		text, err := json.Marshal(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: failed to encode result: %v", err))
		}
		return mcp.NewToolResultStructured(v, string(text))
	default:
		text, err := json.Marshal(v)
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprint(v))
		}
		return mcp.NewToolResultText(string(text))
	}
}
