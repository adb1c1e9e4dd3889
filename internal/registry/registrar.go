package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/brizzai/mcp-openapi-hub/internal/catalog"
	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"github.com/brizzai/mcp-openapi-hub/internal/schema"
	"go.uber.org/zap"
)

// Registrar keeps at most one published tool per operation id. Registration
// and retraction are serialized by a single lock.
type Registrar struct {
	mu        sync.Mutex
	host      ToolHost
	converter *schema.Converter
	tools     map[string]Tool
}

// NewRegistrar creates a Registrar publishing to host
func NewRegistrar(host ToolHost, converter *schema.Converter) *Registrar {
	return &Registrar{
		host:      host,
		converter: converter,
		tools:     make(map[string]Tool),
	}
}

// RegisterOperation builds and publishes the tool for op. An already
// registered operation id is logged and skipped.
func (r *Registrar) RegisterOperation(op *catalog.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[op.ID]; ok {
		logger.Warn("Tool already registered, skipping",
			zap.String("operation", op.ID),
			zap.String("document", op.Document),
		)
		return nil
	}

	tool, err := r.buildTool(op)
	if err != nil {
		return err
	}

	if err := r.host.Publish(tool); err != nil {
		return fmt.Errorf("failed to publish tool %s: %w", tool.Name, err)
	}
	r.tools[op.ID] = tool

	logger.Debug("Registered tool",
		zap.String("tool", tool.Name),
		zap.String("document", op.Document),
		zap.String("method", op.Method),
		zap.String("path", op.Path),
	)
	return nil
}

// UnregisterOperation retracts the tool of operationID and drops its bookkeeping.
// It is safe to call for operations that were never fully registered.
func (r *Registrar) UnregisterOperation(operationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, registered := r.tools[operationID]
	delete(r.tools, operationID)

	if err := r.host.Retract(operationID); err != nil {
		if !registered {
			logger.Debug("Retract of unregistered tool failed", zap.String("operation", operationID), zap.Error(err))
			return nil
		}
		return fmt.Errorf("failed to retract tool %s: %w", operationID, err)
	}
	return nil
}

func (r *Registrar) buildTool(op *catalog.Operation) (Tool, error) {
	inputSchema, err := json.Marshal(r.BuildInputSchema(op))
	if err != nil {
		return Tool{}, fmt.Errorf("failed to encode input schema for %s: %w", op.ID, err)
	}
	return Tool{
		Name:        op.ID,
		Description: op.ToolDescription(),
		InputSchema: inputSchema,
		OperationID: op.ID,
	}, nil
}

// Has reports whether a tool is registered for operationID
func (r *Registrar) Has(operationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tools[operationID]
	return ok
}

// Get returns the registered tool of operationID
func (r *Registrar) Get(operationID string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tool, ok := r.tools[operationID]
	return tool, ok
}

// Tools returns the registered tools sorted by name
func (r *Registrar) Tools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
