package mcpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/RobinCoderZhao/intercom-mcp/pkg/mcpserver"
)

// EchoTool is a simple tool for testing that echoes back its input.
type EchoTool struct {
	mcpserver.BaseTool
	calls int
}

func NewEchoTool() *EchoTool {
	return &EchoTool{
		BaseTool: mcpserver.BaseTool{
			ToolName:        "echo",
			ToolDescription: "Echoes back the input message",
			ToolSchema: &mcpserver.Schema{
				Type: "object",
				Properties: map[string]*mcpserver.Schema{
					"message": {Type: "string", Description: "Message to echo"},
					"tone":    {Type: "string", Enum: []string{"plain", "loud"}},
				},
				Required: []string{"message"},
			},
		},
	}
}

func (t *EchoTool) Execute(ctx context.Context, args map[string]any) (*mcpserver.ToolCallResult, error) {
	t.calls++
	msg, _ := args["message"].(string)
	if msg == "fail" {
		return nil, errors.New("echo refused")
	}
	if args["tone"] == "loud" {
		msg = strings.ToUpper(msg)
	}
	return mcpserver.TextResult("Echo: " + msg), nil
}

func namedTool(name string) *EchoTool {
	t := NewEchoTool()
	t.ToolName = name
	return t
}

func callTool(t *testing.T, s *mcpserver.Server, name string, args map[string]any) *mcpserver.ToolCallResult {
	t.Helper()
	resp := s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params: map[string]any{
			"name":      name,
			"arguments": args,
		},
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(*mcpserver.ToolCallResult)
	if !ok {
		t.Fatal("expected ToolCallResult")
	}
	return result
}

func TestServer_Initialize(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.RegisterTool(NewEchoTool())

	resp := s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
	})

	if resp == nil {
		t.Fatal("expected response")
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(*mcpserver.InitializeResult)
	if !ok {
		t.Fatal("expected InitializeResult")
	}
	if result.ServerInfo.Name != "test-server" {
		t.Fatalf("expected 'test-server', got '%s'", result.ServerInfo.Name)
	}
	if result.SessionID == "" {
		t.Fatal("expected non-empty session ID")
	}
}

func TestServer_ToolsListKeepsRegistrationOrder(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.RegisterTools(namedTool("zeta"), namedTool("alpha"), namedTool("mid"))
	s.RegisterTool(namedTool("alpha")) // re-register keeps position

	for i := 0; i < 3; i++ {
		resp := s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
			JSONRPC: "2.0",
			ID:      2,
			Method:  "tools/list",
		})
		if resp.Error != nil {
			t.Fatalf("unexpected error: %v", resp.Error)
		}
		result, ok := resp.Result.(*mcpserver.ToolsListResult)
		if !ok {
			t.Fatal("expected ToolsListResult")
		}
		var names []string
		for _, tool := range result.Tools {
			names = append(names, tool.Name)
		}
		if got := strings.Join(names, ","); got != "zeta,alpha,mid" {
			t.Fatalf("expected zeta,alpha,mid, got %s", got)
		}
	}
}

func TestServer_ToolCall(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.RegisterTool(NewEchoTool())

	result := callTool(t, s, "echo", map[string]any{"message": "hello world"})
	if result.IsError {
		t.Fatal("expected no error")
	}
	if len(result.Content) != 1 || result.Content[0].Text != "Echo: hello world" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestServer_ToolNotFound(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")

	result := callTool(t, s, "nonexistent", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if result.Content[0].Text != "Error: Unknown tool: nonexistent" {
		t.Fatalf("unexpected text: %q", result.Content[0].Text)
	}
}

func TestServer_ToolErrorIsWrapped(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.RegisterTool(NewEchoTool())

	result := callTool(t, s, "echo", map[string]any{"message": "fail"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if result.Content[0].Text != "Error: echo refused" {
		t.Fatalf("unexpected text: %q", result.Content[0].Text)
	}
}

func TestServer_RequiredArgumentRejectedBeforeExecute(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	echo := NewEchoTool()
	s.RegisterTool(echo)

	for _, args := range []map[string]any{nil, {}, {"message": ""}, {"message": nil}} {
		result := callTool(t, s, "echo", args)
		if !result.IsError {
			t.Fatalf("expected error result for %v", args)
		}
		if !strings.Contains(result.Content[0].Text, "message is required") {
			t.Fatalf("unexpected text: %q", result.Content[0].Text)
		}
	}
	if echo.calls != 0 {
		t.Fatalf("expected Execute not to run, ran %d times", echo.calls)
	}
}

func TestServer_EnumRejected(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.RegisterTool(NewEchoTool())

	result := callTool(t, s, "echo", map[string]any{"message": "hi", "tone": "whisper"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(result.Content[0].Text, "tone must be one of: plain, loud") {
		t.Fatalf("unexpected text: %q", result.Content[0].Text)
	}

	result = callTool(t, s, "echo", map[string]any{"message": "hi", "tone": "loud"})
	if result.IsError || result.Content[0].Text != "Echo: HI" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestServer_MethodNotFound(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")

	resp := s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      5,
		Method:  "unknown/method",
	})

	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != mcpserver.CodeMethodNotFound {
		t.Fatalf("expected code -32601, got %d", resp.Error.Code)
	}
}

func TestServer_NotificationHasNoResponse(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")

	for _, method := range []string{"notifications/initialized", "notifications/cancelled"} {
		resp := s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
			JSONRPC: "2.0",
			Method:  method,
		})
		if resp != nil {
			t.Fatalf("expected no response for %s, got %+v", method, resp)
		}
	}
}

func TestServer_Middleware(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.RegisterTool(NewEchoTool())

	calls := 0
	s.Use(func(next mcpserver.HandlerFunc) mcpserver.HandlerFunc {
		return func(ctx context.Context, req *mcpserver.JSONRPCRequest) *mcpserver.JSONRPCResponse {
			calls++
			return next(ctx, req)
		}
	})

	s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      6,
		Method:  "tools/list",
	})

	if calls != 1 {
		t.Fatalf("expected middleware to be called once, got %d", calls)
	}
}

func TestServer_RecoveryMiddleware(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.Use(mcpserver.RecoveryMiddleware(discardLogger()))
	s.Use(func(next mcpserver.HandlerFunc) mcpserver.HandlerFunc {
		return func(ctx context.Context, req *mcpserver.JSONRPCRequest) *mcpserver.JSONRPCResponse {
			panic("boom")
		}
	})

	resp := s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      9,
		Method:  "tools/list",
	})
	if resp == nil || resp.Error == nil {
		t.Fatal("expected internal error response")
	}
	if resp.Error.Code != mcpserver.CodeInternalError {
		t.Fatalf("expected code -32603, got %d", resp.Error.Code)
	}
}

func TestServer_Session(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")

	resp := s.HandleRequest(context.Background(), &mcpserver.JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      7,
		Method:  "initialize",
	})

	result := resp.Result.(*mcpserver.InitializeResult)
	if !s.CheckSession(result.SessionID) {
		t.Fatal("expected session to be valid")
	}
	if s.CheckSession("invalid-session") {
		t.Fatal("expected invalid session to fail")
	}
}

func TestServer_ServeStdio(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	s.RegisterTool(NewEchoTool())

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}
{"jsonrpc":"2.0","method":"notifications/initialized"}
{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}
`)
	var out bytes.Buffer
	if err := s.Serve(context.Background(), in, &out); err != nil {
		t.Fatalf("serve: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 responses, got %d: %s", len(lines), out.String())
	}

	var resp struct {
		ID     int                      `json:"id"`
		Result mcpserver.ToolCallResult `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != 2 || resp.Result.Content[0].Text != "Echo: hi" {
		t.Fatalf("unexpected response: %s", lines[1])
	}
}

func TestServer_ServeStopsOnCancelledContext(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`), &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestServer_ServeStopsWhileWaitingForInput(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, pr, io.Discard)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel while stdin was idle")
	}
}

func TestServer_ServeAnswersBeforeCancel(t *testing.T) {
	s := mcpserver.New("test-server", "1.0.0")
	pr, pw := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, pr, outW)
	}()

	go io.WriteString(pw, `{"jsonrpc":"2.0","id":7,"method":"ping"}`+"\n")

	var resp mcpserver.JSONRPCResponse
	if err := json.NewDecoder(outR).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != nil || resp.ID != float64(7) {
		t.Fatalf("unexpected response: %+v", resp)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	pw.Close()
}

func TestSuccessResult_PreservesRawKeyOrder(t *testing.T) {
	raw := json.RawMessage(`{"zeta":1,"alpha":{"b":2,"a":3}}`)
	result := mcpserver.SuccessResult(raw)
	want := "{\n  \"zeta\": 1,\n  \"alpha\": {\n    \"b\": 2,\n    \"a\": 3\n  }\n}"
	if result.IsError || result.Content[0].Text != want {
		t.Fatalf("unexpected text:\n%s", result.Content[0].Text)
	}
}

func TestTextResult_KeepsEmptyText(t *testing.T) {
	data, err := json.Marshal(mcpserver.TextResult(""))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"content":[{"type":"text","text":""}]}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}
