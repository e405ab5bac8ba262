// Package dispatch runs one chat or vision request end to end: resolve the
// endpoint, translate, send, normalize. It never returns an error; every
// failure comes back as an unsuccessful llm.NormalizedResult.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/llm"
	"github.com/papercomputeco/magicprompt/pkg/normalize"
	"github.com/papercomputeco/magicprompt/pkg/translate"
)

// Transport sends a JSON body and returns the raw JSON response.
type Transport interface {
	Post(ctx context.Context, endpoint llm.Endpoint, body any) ([]byte, error)
}

// Endpoints resolves where a backend lives. *config.Config implements it.
type Endpoints interface {
	Resolve(backend llm.Backend, kind llm.EndpointKind) (llm.Endpoint, error)
}

// Translator builds backend request bodies.
type Translator interface {
	Translate(backendID string, content *llm.MessageContent, model string, kind llm.MessageKind, seed int) (translate.RequestBody, error)
}

// Dispatcher is stateless apart from its dependencies and safe for concurrent use.
type Dispatcher struct {
	translator Translator
	transport  Transport
	logger     *zap.Logger
}

// New creates a Dispatcher.
func New(translator Translator, transport Transport, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		translator: translator,
		transport:  transport,
		logger:     logger,
	}
}

// Send resolves the chat endpoint from endpoints, builds the wire body and
// posts it. Translation failures return before any network call.
func (d *Dispatcher) Send(ctx context.Context, endpoints Endpoints, backendID string, content *llm.MessageContent, model string, kind llm.MessageKind, seed int) llm.NormalizedResult {
	startTime := time.Now()

	backend, err := llm.ParseBackend(backendID)
	if err != nil {
		return d.fail(err, backendID, model, kind)
	}

	if endpoints == nil {
		return d.fail(fmt.Errorf("%w: no endpoint map", llm.ErrConfiguration), backendID, model, kind)
	}
	endpoint, err := endpoints.Resolve(backend, llm.EndpointChat)
	if err != nil {
		return d.fail(err, backendID, model, kind)
	}

	body, err := d.translator.Translate(string(backend), content, model, kind, seed)
	if err != nil {
		return d.fail(err, backendID, model, kind)
	}

	d.logger.Debug("sending request",
		zap.String("backend", string(backend)),
		zap.String("model", model),
		zap.Stringer("kind", kind),
		zap.String("url", endpoint.URL),
	)

	raw, err := d.transport.Post(ctx, endpoint, body)
	if err != nil {
		return d.fail(err, backendID, model, kind)
	}

	result := normalize.Normalize(string(backend), raw)
	if !result.Success {
		d.logger.Warn("backend response rejected",
			zap.String("backend", string(backend)),
			zap.String("model", model),
			zap.String("error", result.Message()),
		)
		return result
	}

	d.logger.Info("request completed",
		zap.String("backend", string(backend)),
		zap.String("model", model),
		zap.Stringer("kind", kind),
		zap.Int("response_len", len(result.Text())),
		zap.Duration("duration", time.Since(startTime)),
	)
	return result
}

func (d *Dispatcher) fail(err error, backendID, model string, kind llm.MessageKind) llm.NormalizedResult {
	d.logger.Warn("request failed",
		zap.String("backend", backendID),
		zap.String("model", model),
		zap.Stringer("kind", kind),
		zap.Error(err),
	)
	return llm.Fail(err)
}
