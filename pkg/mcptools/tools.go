// Package mcptools exposes MagicPrompt actions and model listing as Model
// Context Protocol tools.
package mcptools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/magicprompt"
	"github.com/papercomputeco/magicprompt/pkg/models"
)

const (
	serverName    = "magicprompt"
	serverVersion = "0.1.0"

	RunActionTool  = "run_action"
	ListModelsTool = "list_models"
)

// RunActionArgs are the arguments of the run_action tool.
type RunActionArgs struct {
	Action string `json:"action" jsonschema:"one of chat, vision, prompt, caption or generate-instruction"`
	Input  string `json:"input,omitempty" jsonschema:"user text for the action"`
	Image  string `json:"image,omitempty" jsonschema:"base64 image data, a data URL or an http(s) URL"`
	Seed   *int   `json:"seed,omitempty" jsonschema:"sampling seed; omit to let the backend choose"`
}

// ListModelsArgs are the arguments of the list_models tool.
type ListModelsArgs struct {
	Backend string `json:"backend" jsonschema:"backend identifier such as ollama or openaiapi"`
}

type tools struct {
	service  *magicprompt.Service
	lister   *models.Lister
	settings func() *config.Config
	logger   *zap.Logger
}

// NewServer registers the MagicPrompt tools on a new MCP server.
func NewServer(service *magicprompt.Service, lister *models.Lister, settings func() *config.Config, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &tools{service: service, lister: lister, settings: settings, logger: logger}

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        RunActionTool,
		Description: "Run one MagicPrompt action (" + strings.Join(magicprompt.Actions(), ", ") + ") against the configured backend and return its text.",
	}, t.runAction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ListModelsTool,
		Description: "List the models a backend currently serves.",
	}, t.listModels)

	return server
}

func (t *tools) runAction(ctx context.Context, _ *mcp.CallToolRequest, args RunActionArgs) (*mcp.CallToolResult, any, error) {
	res := t.service.Run(ctx, magicprompt.Request{
		Action: args.Action,
		Input:  args.Input,
		Image:  args.Image,
		Seed:   args.Seed,
	})
	if !res.Success {
		t.logger.Debug("tool call failed",
			zap.String("tool", RunActionTool),
			zap.String("action", args.Action),
			zap.String("message", res.Message()),
		)
		return errorResult(res.Message()), nil, nil
	}
	return textResult(res.Text()), nil, nil
}

func (t *tools) listModels(ctx context.Context, _ *mcp.CallToolRequest, args ListModelsArgs) (*mcp.CallToolResult, any, error) {
	names, err := t.lister.List(ctx, t.settings(), args.Backend)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(strings.Join(names, "\n")), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
