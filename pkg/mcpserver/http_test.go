package mcpserver_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RobinCoderZhao/intercom-mcp/pkg/mcpserver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHTTPTestServer(t *testing.T, secret string) *httptest.Server {
	t.Helper()
	s := mcpserver.New("test-server", "1.0.0")
	s.SetLogger(discardLogger())
	s.SetHTTPAuthSecret(secret)
	s.RegisterTool(NewEchoTool())
	ts := httptest.NewServer(s.NewHTTPServer("").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func signToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "tester",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func postJSON(t *testing.T, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHTTP_SessionFlow(t *testing.T) {
	ts := newHTTPTestServer(t, "")

	resp := postJSON(t, ts.URL+"/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, nil)
	resp.Body.Close()
	sessionID := resp.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("expected Mcp-Session-Id header")
	}

	resp = postJSON(t, ts.URL+"/mcp", `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 without session, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/mcp", `{"jsonrpc":"2.0","id":3,"method":"tools/list"}`,
		map[string]string{"Mcp-Session-Id": sessionID})
	defer resp.Body.Close()
	var rpc struct {
		Result mcpserver.ToolsListResult `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		t.Fatal(err)
	}
	if len(rpc.Result.Tools) != 1 || rpc.Result.Tools[0].Name != "echo" {
		t.Fatalf("unexpected tools: %+v", rpc.Result.Tools)
	}
}

func TestHTTP_ParseError(t *testing.T) {
	ts := newHTTPTestServer(t, "")

	resp := postJSON(t, ts.URL+"/mcp", `{not json`, nil)
	defer resp.Body.Close()
	var rpc mcpserver.JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		t.Fatal(err)
	}
	if rpc.Error == nil || rpc.Error.Code != mcpserver.CodeParseError {
		t.Fatalf("expected parse error, got %+v", rpc)
	}
}

func TestHTTP_RESTToolCall(t *testing.T) {
	ts := newHTTPTestServer(t, "")

	resp := postJSON(t, ts.URL+"/api/tools/echo", `{"message":"rest"}`, nil)
	defer resp.Body.Close()
	var result mcpserver.ToolCallResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.IsError || result.Content[0].Text != "Echo: rest" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestHTTP_JWTAuth(t *testing.T) {
	const secret = "test-secret"
	ts := newHTTPTestServer(t, secret)

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, secret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, secret, time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/tools", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestHTTP_HealthSkipsAuth(t *testing.T) {
	ts := newHTTPTestServer(t, "test-secret")

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHTTP_SSEResponseIsSingleDataEvent(t *testing.T) {
	ts := newHTTPTestServer(t, "")

	resp := postJSON(t, ts.URL+"/mcp", `{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		map[string]string{"Accept": "text/event-stream"})
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	text := string(body)
	if strings.Contains(text, "event:") {
		t.Fatalf("unexpected named event in %q", text)
	}
	payload, ok := strings.CutPrefix(strings.TrimSpace(text), "data: ")
	if !ok {
		t.Fatalf("expected a data line, got %q", text)
	}
	var rpc struct {
		Result mcpserver.InitializeResult `json:"result"`
	}
	if err := json.Unmarshal([]byte(payload), &rpc); err != nil {
		t.Fatal(err)
	}
	if rpc.Result.ServerInfo.Name != "test-server" {
		t.Fatalf("unexpected result: %+v", rpc.Result)
	}
}
