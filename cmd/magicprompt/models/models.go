package modelscmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/llm"
	"github.com/papercomputeco/magicprompt/pkg/logger"
	"github.com/papercomputeco/magicprompt/pkg/models"
	"github.com/papercomputeco/magicprompt/pkg/transport"
)

const modelsLongDesc string = `List the models a backend serves.

Backends: ollama, openai, openaiapi, openrouter, anthropic, grok.

Examples:
  magicprompt models ollama
  magicprompt models openrouter --config ./magicprompt.toml`

const modelsShortDesc string = "List models served by a backend"

type modelsCommander struct {
	configPath string
	debug      bool
}

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	backends := make([]string, 0, len(llm.Backends()))
	for _, b := range llm.Backends() {
		backends = append(backends, string(b))
	}

	cmd := &cobra.Command{
		Use:       "models <backend>",
		Short:     modelsShortDesc,
		Long:      modelsLongDesc,
		Args:      cobra.ExactArgs(1),
		ValidArgs: backends,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *modelsCommander) run(ctx context.Context, cmd *cobra.Command, backend string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(c.debug || cfg.Debug, os.Stderr)
	defer log.Sync() //nolint:errcheck

	lister := models.NewLister(transport.New(nil, log), log)
	names, err := lister.List(ctx, cfg, backend)
	if err != nil {
		return fmt.Errorf("could not list models for %s: %w", backend, err)
	}

	if len(names) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No models found for %s.\n", backend)
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
