package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"onemcp/internal/onemcp/orchestrator"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunToolName is the single MCP tool this server exposes: a free-text prompt
// in, a state-machine-terminal response out.
const RunToolName = "onemcp.run"

type runArgs struct {
	Prompt string `json:"prompt"`
	// Options is accepted but unused: the orchestrator's request shape has
	// no per-call knobs yet, so this is reserved for future use.
	Options map[string]any `json:"options,omitempty"`
}

// RegisterTools adds onemcp.run to server, delegating to orch for every call.
func RegisterTools(server *mcp.Server, orch *orchestrator.Orchestrator) {
	tool := &mcp.Tool{
		Name:        RunToolName,
		Description: "Answer a natural-language request against the configured APIs by normalizing it, planning an execution, compiling and running the plan in a sandbox, and summarizing the result.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"prompt": {
					Type:        "string",
					Description: "The user's request in plain language, e.g. \"what were our total sales in 2024?\"",
				},
				"options": {
					Type:        "object",
					Description: "Reserved for future per-call options; currently unused.",
				},
			},
			Required: []string{"prompt"},
		},
	}

	server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := extractRunArgs(req)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid arguments: %s", err)), nil
		}
		if args.Prompt == "" {
			return errorResult("prompt is required"), nil
		}

		resp := orch.HandleRequest(ctx, args.Prompt)
		if resp.Error != nil {
			return errorResult(fmt.Sprintf("%s: %s", resp.Error.Code, resp.Error.Message)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: resp.Summary}},
		}, nil
	})
}

func extractRunArgs(req *mcp.CallToolRequest) (runArgs, error) {
	var args runArgs
	if len(req.Params.Arguments) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return args, fmt.Errorf("arguments must be a valid JSON object: %w", err)
	}
	return args, nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}
