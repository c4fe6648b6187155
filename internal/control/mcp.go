package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// RegisterMCP registers the inspection tools on an MCP server. Every
// tool is a thin shim over the command router, so MCP callers and HTTP
// callers see identical behaviour.
func (s *Server) RegisterMCP(srv *mcp.Server) {
	s.registerCommandTool(srv, &mcp.Tool{
		Name:        "domspect_toggle_scan",
		Description: "Toggle element scanning on the inspected page. Returns the resulting state.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, "toggleScan")

	s.registerCommandTool(srv, &mcp.Tool{
		Name:        "domspect_scan_status",
		Description: "Report whether element scanning is currently active.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, "getScanStatus")

	s.registerLastTool(srv)
}

// registerCommandTool bridges one router command to one MCP tool.
func (s *Server) registerCommandTool(srv *mcp.Server, tool *mcp.Tool, cmd string) {
	srv.AddTool(tool, func(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := s.cmds.Dispatch(ctx, cmd, nil)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(out)}},
		}, nil
	})
}

func (s *Server) registerLastTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domspect_last_inspection",
		Description: "Return the most recently pinned inspection: selector, computed styles by category, inline styles.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	srv.AddTool(tool, func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if s.last == nil {
			var res mcp.CallToolResult
			res.SetError(errors.New("no inspector attached"))
			return &res, nil
		}
		rec := s.last()
		if rec == nil {
			var res mcp.CallToolResult
			res.SetError(errors.New("nothing pinned yet"))
			return &res, nil
		}

		data, err := json.Marshal(rec)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}
