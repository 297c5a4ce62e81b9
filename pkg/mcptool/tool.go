// Package mcptool exposes the multi-model comparison runtime as an MCP
// tool: a stable tool name, a compact description, a strict JSON-schema
// parameter set, and a handler that rejects an empty question or workspace
// before delegating to the core.
package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sipeed/modelcompare/pkg/modelcompare"
)

// CompareArgs is the MCP-visible input schema for the `compare` tool.
type CompareArgs struct {
	Question  string   `json:"question"`
	Workspace string   `json:"workspace"`
	Files     []string `json:"files,omitempty"`
}

// CompareResult mirrors modelcompare.CompareRuntimeOutput in a JSON-friendly
// shape; the context pack is not included.
type CompareResult struct {
	Mode            string                         `json:"mode"`
	Metadata        map[string]any                 `json:"metadata"`
	Results         []modelcompare.NormalizedResult `json:"results"`
	FallbackReasons []string                        `json:"fallback_reasons"`
}

// Runtime is whatever can run a single compare invocation — satisfied by a
// closure over modelcompare.Compare plus the caller's config/candidates.
type Runtime func(ctx context.Context, question, workspace string, files []string) modelcompare.CompareRuntimeOutput

// Register attaches the `compare` tool to server, backed by run.
func Register(server *mcp.Server, run Runtime) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compare",
		Description: "Dispatch a question to several comparison models in parallel and return their answers",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CompareArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Question) == "" {
			return errorResult("question is required"), nil, nil
		}
		if strings.TrimSpace(args.Workspace) == "" {
			return errorResult("workspace is required"), nil, nil
		}

		out := run(ctx, args.Question, args.Workspace, args.Files)
		result := CompareResult{
			Mode:            out.Mode,
			Metadata:        out.Metadata,
			Results:         out.Results,
			FallbackReasons: out.FallbackReasons,
		}
		body, err := json.Marshal(result)
		if err != nil {
			return errorResult(fmt.Sprintf("marshal result: %v", err)), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
		}, nil, nil
	})
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
