// Package registry publishes one tool per cataloged operation to the tool host.
package registry

import "encoding/json"

// Tool is a callable unit bound one-to-one to an operation
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	OperationID string          `json:"operationId"`
}

// ToolHost is the protocol layer that exposes tools to external callers
type ToolHost interface {
	Publish(tool Tool) error
	Retract(name string) error
}
