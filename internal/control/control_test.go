package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/domspect/internal/command"
	"github.com/hazyhaar/domspect/internal/config"
	"github.com/hazyhaar/domspect/internal/sink"
	"github.com/hazyhaar/domspect/internal/style"
)

type fakeController struct {
	scanning bool
}

func (f *fakeController) Toggle(context.Context) (bool, error) {
	f.scanning = !f.scanning
	return f.scanning, nil
}

func (f *fakeController) Scanning() bool { return f.scanning }

func testServer(t *testing.T, cfg config.ControlConfig, last func() *sink.Record) *httptest.Server {
	t.Helper()
	cmds := command.New()
	command.RegisterScanCommands(cmds, &fakeController{})
	srv := httptest.NewServer(New(cmds, last, cfg, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHTTP_Health(t *testing.T) {
	srv := testServer(t, config.ControlConfig{}, nil)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body map[string]string
	getJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status: got %q", body["status"])
	}
}

func TestHTTP_ToggleAndStatus(t *testing.T) {
	srv := testServer(t, config.ControlConfig{}, nil)

	resp, err := http.Post(srv.URL+"/api/scan/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var toggle command.ToggleResponse
	getJSON(t, resp, &toggle)
	if !toggle.Success || !toggle.IsScanning {
		t.Errorf("toggle: got %+v", toggle)
	}

	resp, err = http.Get(srv.URL + "/api/scan/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var status command.StatusResponse
	getJSON(t, resp, &status)
	if !status.IsScanning {
		t.Error("status: got scanning=false after toggle")
	}
}

func TestHTTP_UnknownCommandIs404(t *testing.T) {
	srv := testServer(t, config.ControlConfig{}, nil)

	resp, err := http.Post(srv.URL+"/api/command/selfDestruct", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status code: got %d, want 404", resp.StatusCode)
	}
}

func TestHTTP_LastInspection(t *testing.T) {
	rec := &sink.Record{
		ID:         "insp_x",
		PageURL:    "https://example.com",
		Inspection: style.Inspection{Selector: "#hero"},
		At:         time.Now(),
	}
	srv := testServer(t, config.ControlConfig{}, func() *sink.Record { return rec })

	resp, err := http.Get(srv.URL + "/api/inspect/last")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got sink.Record
	getJSON(t, resp, &got)
	if got.ID != "insp_x" || got.Inspection.Selector != "#hero" {
		t.Errorf("last: got %+v", got)
	}
}

func TestHTTP_LastInspectionEmpty(t *testing.T) {
	srv := testServer(t, config.ControlConfig{}, func() *sink.Record { return nil })

	resp, err := http.Get(srv.URL + "/api/inspect/last")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status code: got %d, want 404", resp.StatusCode)
	}
}

func TestHTTP_TokenAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	srv := testServer(t, config.ControlConfig{TokenHash: string(hash)}, nil)

	// Health stays public.
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("health: got %d, want 200", resp.StatusCode)
	}

	// Missing token.
	resp, err = http.Get(srv.URL + "/api/scan/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Errorf("no token: got %d, want 401", resp.StatusCode)
	}

	// Wrong token.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/scan/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Errorf("wrong token: got %d, want 401", resp.StatusCode)
	}

	// Correct token.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/api/scan/status", nil)
	req.Header.Set("Authorization", "Bearer sesame")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("good token: got %d, want 200", resp.StatusCode)
	}
}

var testMCPImpl = &mcp.Implementation{Name: "domspect-test", Version: "0.1.0"}

func mcpSession(t *testing.T, last func() *sink.Record) *mcp.ClientSession {
	t.Helper()
	cmds := command.New()
	command.RegisterScanCommands(cmds, &fakeController{})
	ctl := New(cmds, last, config.ControlConfig{}, nil)

	srv := mcp.NewServer(testMCPImpl, nil)
	ctl.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %v", name, result.Content)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_ToggleScan(t *testing.T) {
	session := mcpSession(t, nil)

	text := mcpCallTool(t, session, "domspect_toggle_scan")
	var resp command.ToggleResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || !resp.IsScanning {
		t.Errorf("toggle: got %+v", resp)
	}
}

func TestMCP_LastInspection(t *testing.T) {
	rec := &sink.Record{ID: "insp_y", Inspection: style.Inspection{Selector: ".card.featured"}}
	session := mcpSession(t, func() *sink.Record { return rec })

	text := mcpCallTool(t, session, "domspect_last_inspection")
	if !strings.Contains(text, ".card.featured") {
		t.Errorf("last inspection: got %s", text)
	}
}

func TestMCP_LastInspectionEmptyIsToolError(t *testing.T) {
	session := mcpSession(t, func() *sink.Record { return nil })

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "domspect_last_inspection",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Fatal("want tool error for empty last inspection")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent in the error result")
	}
	if !strings.Contains(tc.Text, "nothing pinned") {
		t.Errorf("error text: got %q", tc.Text)
	}
}
