package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpcmder "github.com/papercomputeco/magicprompt/cmd/magicprompt/mcp"
	mergecmder "github.com/papercomputeco/magicprompt/cmd/magicprompt/merge"
	modelscmder "github.com/papercomputeco/magicprompt/cmd/magicprompt/models"
	pushcmder "github.com/papercomputeco/magicprompt/cmd/magicprompt/push"
	sendcmder "github.com/papercomputeco/magicprompt/cmd/magicprompt/send"
	servecmder "github.com/papercomputeco/magicprompt/cmd/magicprompt/serve"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "magicprompt",
		Short:        "Prompt enhancement, captioning and chat over pluggable LLM backends",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		servecmder.NewServeCmd(),
		sendcmder.NewSendCmd(),
		modelscmder.NewModelsCmd(),
		mergecmder.NewMergeCmd(),
		pushcmder.NewPushCmd(),
		mcpcmder.NewMCPCmd(),
	)

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
