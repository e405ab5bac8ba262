package mcpcmder

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/dispatch"
	"github.com/papercomputeco/magicprompt/pkg/imaging"
	"github.com/papercomputeco/magicprompt/pkg/logger"
	"github.com/papercomputeco/magicprompt/pkg/magicprompt"
	"github.com/papercomputeco/magicprompt/pkg/mcptools"
	"github.com/papercomputeco/magicprompt/pkg/models"
	"github.com/papercomputeco/magicprompt/pkg/translate"
	"github.com/papercomputeco/magicprompt/pkg/transport"
)

const mcpLongDesc string = `Serve MagicPrompt as a Model Context Protocol server over stdio.

Two tools are exposed: run_action runs one action (chat, vision,
prompt, caption, generate-instruction) and list_models lists the
models a backend serves. Logs go to stderr; stdout carries the
protocol.

Examples:
  magicprompt mcp
  magicprompt mcp --config ./magicprompt.toml --debug`

const mcpShortDesc string = "Serve actions as MCP tools over stdio"

type mcpCommander struct {
	configPath string
	debug      bool

	// transport defaults to stdio.
	transport mcp.Transport
}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *mcpCommander) run(ctx context.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(c.debug || cfg.Debug, os.Stderr)
	defer log.Sync() //nolint:errcheck

	settings := func() *config.Config { return cfg }
	httpTransport := transport.New(nil, log)
	dispatcher := dispatch.New(translate.New(imaging.NewCompressor(log)), httpTransport, log)
	service := magicprompt.NewService(dispatcher, settings, log)
	lister := models.NewLister(httpTransport, log)

	t := c.transport
	if t == nil {
		t = &mcp.StdioTransport{}
	}

	log.Info("starting MCP server", zap.String("config", c.configPath))
	return mcptools.NewServer(service, lister, settings, log).Run(ctx, t)
}
