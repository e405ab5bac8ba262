package servecmder

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/logger"
	"github.com/papercomputeco/magicprompt/server"
)

const serveLongDesc string = `Run the MagicPrompt HTTP API.

Settings come from a TOML file; flags override it. When a config
file is given it is watched and reloaded on change, so backends and
actions can be switched without a restart.

Examples:
  magicprompt serve
  magicprompt serve --config ~/.magicprompt/config.toml --listen :9090
  magicprompt serve --db ~/.magicprompt/magicprompt.db --debug`

const serveShortDesc string = "Run the MagicPrompt HTTP API"

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	configPath string
	listenAddr string
	dbPath     string
	debug      bool

	// listener, when set, is used instead of listening on listenAddr.
	listener net.Listener
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "", "Address to listen on (default \":8080\")")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite transcript database (default: in-memory)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.applyFlags(cfg)

	log := logger.NewLogger(cfg.Debug, nil)
	defer log.Sync() //nolint:errcheck

	srv, err := server.New(cfg, log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.configPath != "" {
		err := config.Watch(ctx, c.configPath, log, func(next *config.Config) {
			c.applyFlags(next)
			srv.SetSettings(next)
		})
		if err != nil {
			log.Warn("config changes will not be picked up", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if c.listener != nil {
			errCh <- srv.RunWithListener(c.listener)
			return
		}
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

// applyFlags lets explicit flags win over the file, including after a reload.
func (c *serveCommander) applyFlags(cfg *config.Config) {
	if c.listenAddr != "" {
		cfg.ListenAddr = c.listenAddr
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if c.debug {
		cfg.Debug = true
	}
}
