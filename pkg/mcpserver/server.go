// Package mcpserver provides a reusable MCP (Model Context Protocol) server framework.
//
// It supports stdio and HTTP/SSE transports, JSON-RPC 2.0, session management,
// middleware chains, schema-checked tool arguments and an ordered tool registry.
//
// Quick Start:
//
//	server := mcpserver.New("my-server", "1.0.0")
//	server.RegisterTool(&MyTool{})
//	server.RunStdio(ctx) // or server.RunHTTP(ctx, ":8080")
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Server is the core MCP server that manages tools and handles JSON-RPC requests.
type Server struct {
	name            string
	version         string
	protocolVersion string
	tools           map[string]ToolHandler
	order           []string
	sessions        map[string]time.Time
	sessionMu       sync.RWMutex
	middleware      []Middleware
	jwtSecret       []byte
	logger          *slog.Logger
}

// New creates a new MCP server with the given name and version.
func New(name, version string) *Server {
	return &Server{
		name:            name,
		version:         version,
		protocolVersion: "2024-11-05",
		tools:           make(map[string]ToolHandler),
		sessions:        make(map[string]time.Time),
		logger:          slog.Default(),
	}
}

// SetLogger replaces the server's logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// RegisterTool adds a tool to the server. Registering a name twice replaces
// the handler but keeps its original position in tools/list.
func (s *Server) RegisterTool(tool ToolHandler) {
	if _, exists := s.tools[tool.Name()]; !exists {
		s.order = append(s.order, tool.Name())
	}
	s.tools[tool.Name()] = tool
	s.logger.Debug("registered tool", "name", tool.Name())
}

// RegisterTools adds multiple tools to the server.
func (s *Server) RegisterTools(tools ...ToolHandler) {
	for _, tool := range tools {
		s.RegisterTool(tool)
	}
}

// Use adds middleware to the server's processing chain.
func (s *Server) Use(mw Middleware) {
	s.middleware = append(s.middleware, mw)
}

// Tools returns the registered tool definitions in registration order.
func (s *Server) Tools() []ToolDef {
	tools := make([]ToolDef, 0, len(s.order))
	for _, name := range s.order {
		h := s.tools[name]
		tools = append(tools, ToolDef{
			Name:        h.Name(),
			Description: h.Description(),
			InputSchema: h.InputSchema(),
		})
	}
	return tools
}

// RunStdio starts the server using stdin/stdout (stdio transport).
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server (stdio)", "name", s.name, "version", s.version, "tools", len(s.tools))
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads JSON-RPC requests from r and writes responses to w, one request
// at a time, until r reaches EOF or ctx is cancelled. Cancellation is noticed
// while waiting for input; the blocked read is abandoned.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	requests := make(chan decoded)
	done := make(chan struct{})
	defer close(done)
	go readRequests(r, requests, done)

	encoder := json.NewEncoder(w)
	for {
		var in decoded
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in = <-requests:
		}

		if in.err != nil {
			if errors.Is(in.err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode request: %w", in.err)
		}

		resp := s.HandleRequest(ctx, in.req)
		if resp == nil {
			continue // Notification, no response needed
		}

		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	}
}

type decoded struct {
	req *JSONRPCRequest
	err error
}

// readRequests decodes requests from r until a decode error, which is sent
// last. It stops early once done is closed.
func readRequests(r io.Reader, out chan<- decoded, done <-chan struct{}) {
	decoder := json.NewDecoder(r)
	for {
		var req JSONRPCRequest
		err := decoder.Decode(&req)
		in := decoded{req: &req, err: err}
		select {
		case out <- in:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// HandleRequest processes a single JSON-RPC request and returns a response.
func (s *Server) HandleRequest(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	handler := s.coreHandler
	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](handler)
	}
	return handler(ctx, req)
}

func (s *Server) coreHandler(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	resp := &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	switch {
	case req.Method == "initialize":
		resp.Result = s.handleInitialize()
	case req.Method == "notifications/initialized":
		s.logger.Info("client initialized")
		return nil
	case strings.HasPrefix(req.Method, "notifications/"):
		return nil
	case req.Method == "ping":
		resp.Result = struct{}{}
	case req.Method == "tools/list":
		resp.Result = &ToolsListResult{Tools: s.Tools()}
	case req.Method == "tools/call":
		params, err := decodeCallParams(req.Params)
		if err != nil {
			resp.Error = &RPCError{Code: CodeInvalidParams, Message: err.Error()}
			return resp
		}
		resp.Result = s.CallTool(ctx, params.Name, params.Arguments)
	default:
		resp.Error = &RPCError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}

	return resp
}

func (s *Server) handleInitialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: s.protocolVersion,
		Capabilities: ServerCapabilities{
			Tools: ToolsCapability{ListChanged: false},
		},
		ServerInfo: ServerInfo{
			Name:    s.name,
			Version: s.version,
		},
		SessionID: s.createSession(),
	}
}

func decodeCallParams(params any) (*CallToolParams, error) {
	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("parse params: %w", err)
	}
	var callParams CallToolParams
	if err := json.Unmarshal(paramsBytes, &callParams); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return &callParams, nil
}

// CallTool coerces and validates args against the named tool's schema and
// executes it.
// Every failure is rendered as an error result; CallTool never returns nil.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) *ToolCallResult {
	tool, ok := s.tools[name]
	if !ok {
		return ErrorResult(&UnknownToolError{Name: name})
	}
	if args == nil {
		args = map[string]any{}
	}

	if schema := tool.InputSchema(); schema != nil {
		args = schema.Coerce(args)
		if err := schema.Validate(args); err != nil {
			s.logger.Debug("tool arguments rejected", "tool", name, "error", err)
			return ErrorResult(err)
		}
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		s.logger.Warn("tool failed", "tool", name, "error", err)
		return ErrorResult(err)
	}
	if result == nil {
		return TextResult("")
	}
	return result
}

// Session management

func (s *Server) createSession() string {
	id := uuid.NewString()
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	s.sessions[id] = time.Now()
	return id
}

// CheckSession verifies if a session ID is valid.
func (s *Server) CheckSession(id string) bool {
	s.sessionMu.RLock()
	defer s.sessionMu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}
