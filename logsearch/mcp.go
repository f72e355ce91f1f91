package logsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/logsearch/logsearch/internal/message"
)

// RegisterMCP exposes the Finder as MCP tools. Each tool is a thin shell
// over Dispatch, so tools and the HTTP API answer identically.
func (f *Finder) RegisterMCP(srv *mcp.Server) {
	term := map[string]any{"type": "string", "description": "Text to find; matched literally, ignoring case"}

	f.addTool(srv, &mcp.Tool{
		Name:        "logsearch_search",
		Description: "Search every page of the log for a term, highlight each match and return them tagged with their page.",
		InputSchema: inputSchema(map[string]any{"searchTerm": term}, []string{"searchTerm"}),
	}, message.KindSearch)

	f.addTool(srv, &mcp.Tool{
		Name:        "logsearch_scan_once",
		Description: "Search only the log page currently displayed.",
		InputSchema: inputSchema(map[string]any{"searchTerm": term}, []string{"searchTerm"}),
	}, message.KindScanOnce)

	f.addTool(srv, &mcp.Tool{
		Name:        "logsearch_clear",
		Description: "Remove every search highlight from the displayed page.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, message.KindClearHighlights)

	f.addTool(srv, &mcp.Tool{
		Name:        "logsearch_page_info",
		Description: "Report the page URL, title, whether it is a log page, and its pagination.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, message.KindGetPageInfo)
}

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

func (f *Finder) addTool(srv *mcp.Server, tool *mcp.Tool, kind message.Kind) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp := f.Dispatch(ctx, Request{Action: kind, Payload: req.Params.Arguments})
		if resp.Error != "" {
			var res mcp.CallToolResult
			res.SetError(errors.New(resp.Error))
			return &res, nil
		}

		data, err := json.Marshal(resp.Result)
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
