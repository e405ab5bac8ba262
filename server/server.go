// Package server exposes the MagicPrompt actions, model lists and chat
// transcripts over HTTP.
package server

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/config"
	"github.com/papercomputeco/magicprompt/pkg/dispatch"
	"github.com/papercomputeco/magicprompt/pkg/imaging"
	"github.com/papercomputeco/magicprompt/pkg/magicprompt"
	"github.com/papercomputeco/magicprompt/pkg/merkle"
	"github.com/papercomputeco/magicprompt/pkg/models"
	"github.com/papercomputeco/magicprompt/pkg/translate"
	"github.com/papercomputeco/magicprompt/pkg/transport"
)

const requestIDHeader = "X-Request-ID"

// actionStats counts outcomes per action as "<action>.success" and
// "<action>.failure", published at /debug/vars.
var actionStats = expvar.NewMap("magicprompt_actions")

// Server is the MagicPrompt HTTP API. Handlers read the settings snapshot
// once per request; SetSettings swaps it without locking.
type Server struct {
	settings atomic.Pointer[config.Config]
	service  *magicprompt.Service
	lister   *models.Lister
	storer   merkle.Storer
	logger   *zap.Logger
	app      *fiber.App
}

// New creates a Server. Transcripts go to SQLite when cfg.DBPath is set and
// stay in memory otherwise.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server needs a config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var storer merkle.Storer
	if cfg.DBPath != "" {
		s, err := merkle.NewSQLiteStorer(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		storer = s
		logger.Info("using SQLite storage", zap.String("path", cfg.DBPath))
	} else {
		storer = merkle.NewMemoryStorer()
		logger.Info("using in-memory storage")
	}

	return NewWithStorer(cfg, storer, &http.Client{Timeout: transport.DefaultTimeout}, logger), nil
}

// NewWithStorer wires a Server around an existing storer and HTTP client.
func NewWithStorer(cfg *config.Config, storer merkle.Storer, client *http.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpTransport := transport.New(client, logger)
	dispatcher := dispatch.New(
		translate.New(imaging.NewCompressor(logger)),
		httpTransport,
		logger,
	)

	s := &Server{
		lister: models.NewLister(httpTransport, logger),
		storer: storer,
		logger: logger,
	}
	s.settings.Store(cfg)
	s.service = magicprompt.NewService(dispatcher, s.Settings, logger)

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Images arrive inline as base64
		BodyLimit: 32 * 1024 * 1024,
	})
	app.Use(s.requestID)

	app.Post("/api/magicprompt/:action", s.handleAction)
	app.Get("/api/models/:backend", s.handleModels)
	app.Get("/api/history", s.handleListHistories)
	app.Post("/api/history", s.handleImportNodes)
	app.Get("/api/history/:hash", s.handleGetHistory)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Get("/debug/vars", adaptor.HTTPHandler(expvar.Handler()))

	s.app = app
	return s
}

// Settings returns the current snapshot.
func (s *Server) Settings() *config.Config {
	return s.settings.Load()
}

// SetSettings replaces the snapshot used by subsequent requests.
func (s *Server) SetSettings(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.settings.Store(cfg)
	s.logger.Info("settings updated", zap.Int("actions", len(cfg.Actions)))
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the server on the snapshot's listen address.
func (s *Server) Run() error {
	addr := s.Settings().ListenAddr
	s.logger.Info("starting magicprompt server", zap.String("listen", addr))

	return s.app.Listen(addr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting magicprompt server", zap.String("listen", ln.Addr().String()))

	return s.app.Listener(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Close releases the transcript store.
func (s *Server) Close() error {
	return s.storer.Close()
}

// requestID tags every request with a uuid, echoed in the response header
// and attached to the request's log lines.
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Locals(requestIDHeader, id)
	c.Set(requestIDHeader, id)
	return c.Next()
}

func (s *Server) log(c *fiber.Ctx) *zap.Logger {
	id, _ := c.Locals(requestIDHeader).(string)
	return s.logger.With(
		zap.String("request_id", id),
		zap.String("path", c.Path()),
	)
}
