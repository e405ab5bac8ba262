// Package transport sends JSON request bodies to backend endpoints and
// returns the raw JSON response.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// DefaultTimeout bounds a single backend call. LLM requests can be slow,
// especially for vision models loading on first use.
const DefaultTimeout = 5 * time.Minute

// maxErrorBody caps how much of a failed response ends up in the error message.
const maxErrorBody = 512

// HTTP is a JSON-over-HTTP transport.
type HTTP struct {
	client *http.Client
	logger *zap.Logger
}

// New creates an HTTP transport. A nil client uses one with DefaultTimeout.
func New(client *http.Client, logger *zap.Logger) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{client: client, logger: logger}
}

// Post marshals body, POSTs it to the endpoint and returns the response body.
// Network failures and non-2xx statuses are wrapped in llm.ErrTransport.
func (t *HTTP) Post(ctx context.Context, endpoint llm.Endpoint, body any) ([]byte, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", llm.ErrTransport, err)
	}

	t.logger.Debug("posting to backend",
		zap.String("url", endpoint.URL),
		zap.Int("body_size", len(reqBody)),
	)

	return t.do(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
}

// Get fetches the endpoint and returns the response body.
func (t *HTTP) Get(ctx context.Context, endpoint llm.Endpoint) ([]byte, error) {
	t.logger.Debug("fetching from backend", zap.String("url", endpoint.URL))

	return t.do(ctx, http.MethodGet, endpoint, nil)
}

func (t *HTTP) do(ctx context.Context, method string, endpoint llm.Endpoint, body io.Reader) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", llm.ErrTransport, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range endpoint.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrTransport, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", llm.ErrTransport, err)
	}

	if httpResp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: upstream returned %d: %s", llm.ErrTransport, httpResp.StatusCode, truncate(string(respBody), maxErrorBody))
	}

	return respBody, nil
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
