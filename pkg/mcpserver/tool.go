package mcpserver

import "context"

// ToolHandler is the interface for MCP tools.
type ToolHandler interface {
	// Name returns the unique tool name.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// InputSchema returns the JSON Schema for the tool's input.
	InputSchema() *Schema

	// Execute runs the tool with arguments that already passed InputSchema validation.
	Execute(ctx context.Context, args map[string]any) (*ToolCallResult, error)
}

// BaseTool provides a base implementation for common tool fields.
// Embed this in your tool structs and implement Execute().
type BaseTool struct {
	ToolName        string
	ToolDescription string
	ToolSchema      *Schema

	// Category groups tools for display, e.g. "Articles".
	Category string
}

func (t *BaseTool) Name() string         { return t.ToolName }
func (t *BaseTool) Description() string  { return t.ToolDescription }
func (t *BaseTool) InputSchema() *Schema { return t.ToolSchema }
func (t *BaseTool) ToolCategory() string { return t.Category }

// Middleware is a function that wraps a request handler.
type Middleware func(next HandlerFunc) HandlerFunc

// HandlerFunc is a function that handles a JSON-RPC request.
type HandlerFunc func(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse
