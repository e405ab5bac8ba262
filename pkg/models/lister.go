// Package models lists the models a backend currently serves.
package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// Getter fetches a JSON document from an endpoint.
type Getter interface {
	Get(ctx context.Context, endpoint llm.Endpoint) ([]byte, error)
}

// Endpoints resolves where a backend lists its models.
type Endpoints interface {
	Resolve(backend llm.Backend, kind llm.EndpointKind) (llm.Endpoint, error)
}

// FetchTimeout bounds one shared upstream fetch.
const FetchTimeout = 30 * time.Second

// Lister fetches model lists. Concurrent calls for the same backend and URL
// share one upstream request.
type Lister struct {
	getter Getter
	logger *zap.Logger
	group  singleflight.Group
}

// NewLister creates a Lister.
func NewLister(getter Getter, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{getter: getter, logger: logger}
}

// List returns the sorted model names for backendID.
func (l *Lister) List(ctx context.Context, endpoints Endpoints, backendID string) ([]string, error) {
	backend, err := llm.ParseBackend(backendID)
	if err != nil {
		return nil, err
	}
	if endpoints == nil {
		return nil, fmt.Errorf("%w: no endpoint map", llm.ErrConfiguration)
	}

	endpoint, err := endpoints.Resolve(backend, llm.EndpointModels)
	if err != nil {
		return nil, err
	}

	key := string(backend) + " " + endpoint.URL
	ch := l.group.DoChan(key, func() (any, error) {
		// Shared by every caller; detached from the first caller's cancellation.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()

		raw, err := l.getter.Get(fetchCtx, endpoint)
		if err != nil {
			return nil, err
		}
		return parse(backend, raw)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}

	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		l.logger.Warn("listing models failed",
			zap.String("backend", string(backend)),
			zap.Error(err),
		)
		return nil, err
	}

	names := v.([]string)
	l.logger.Debug("listed models",
		zap.String("backend", string(backend)),
		zap.Int("count", len(names)),
		zap.Bool("shared", shared),
	)

	// Callers sharing a flight each get their own slice.
	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}

func parse(backend llm.Backend, raw []byte) ([]string, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: model list is not JSON", llm.ErrMalformedResponse)
	}

	path := "data.#.id"
	if backend.Family() == llm.FamilyOllama {
		path = "models.#.name"
	}

	result := gjson.GetBytes(raw, path)
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: model list has no %s", llm.ErrMalformedResponse, path)
	}

	names := make([]string, 0, len(result.Array()))
	for _, name := range result.Array() {
		if s := name.String(); s != "" {
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return names, nil
}
