package sendcmder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/dispatch"
	"github.com/papercomputeco/magicprompt/pkg/imaging"
	"github.com/papercomputeco/magicprompt/pkg/logger"
	"github.com/papercomputeco/magicprompt/pkg/magicprompt"
	"github.com/papercomputeco/magicprompt/pkg/translate"
	"github.com/papercomputeco/magicprompt/pkg/transport"
)

const sendLongDesc string = `Run one MagicPrompt action against the configured backend.

The action is one of chat, vision, prompt, caption or
generate-instruction. The response is printed to stdout and rendered
as markdown when stdout is a terminal.

Examples:
  magicprompt send prompt "a lighthouse at dusk"
  magicprompt send caption --image ./photo.png
  magicprompt send vision "what breed is this?" --image https://example.com/dog.jpg
  magicprompt send prompt "a fox" --seed 42 --config ./magicprompt.toml`

const sendShortDesc string = "Run one action and print the response"

type sendCommander struct {
	configPath string
	imagePath  string
	seed       int
	debug      bool
}

func NewSendCmd() *cobra.Command {
	cmder := &sendCommander{}

	cmd := &cobra.Command{
		Use:       "send <action> [input...]",
		Short:     sendShortDesc,
		Long:      sendLongDesc,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: magicprompt.Actions(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0], strings.Join(args[1:], " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.imagePath, "image", "i", "", "Image file or http(s) URL to attach")
	cmd.Flags().IntVar(&cmder.seed, "seed", translate.NoSeed, "Sampling seed (-1 lets the backend choose)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *sendCommander) run(ctx context.Context, cmd *cobra.Command, action, input string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	image, err := c.image()
	if err != nil {
		return err
	}

	log := logger.NewLogger(c.debug || cfg.Debug, os.Stderr)
	defer log.Sync() //nolint:errcheck

	dispatcher := dispatch.New(
		translate.New(imaging.NewCompressor(log)),
		transport.New(nil, log),
		log,
	)
	service := magicprompt.NewService(dispatcher, func() *config.Config { return cfg }, log)

	req := magicprompt.Request{
		Action: action,
		Input:  input,
		Image:  image,
	}
	if cmd.Flags().Changed("seed") {
		req.Seed = &c.seed
	}

	res := service.Run(ctx, req)
	if !res.Success {
		return errors.New(res.Message())
	}

	return render(cmd.OutOrStdout(), res.Text())
}

// image returns the --image value as a URL or as base64 of the file's bytes.
func (c *sendCommander) image() (string, error) {
	if c.imagePath == "" {
		return "", nil
	}
	if strings.HasPrefix(c.imagePath, "http://") || strings.HasPrefix(c.imagePath, "https://") {
		return c.imagePath, nil
	}

	data, err := os.ReadFile(c.imagePath)
	if err != nil {
		return "", fmt.Errorf("could not read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// render writes text, as styled markdown when out is a terminal.
func render(out io.Writer, text string) error {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := fmt.Fprintln(out, text)
		return err
	}

	width := 100
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		_, err = fmt.Fprintln(out, text)
		return err
	}

	styled, err := r.Render(text)
	if err != nil {
		_, err = fmt.Fprintln(out, text)
		return err
	}
	_, err = fmt.Fprint(out, styled)
	return err
}
