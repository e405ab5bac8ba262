// Package llm provides the internal representations of MagicPrompt chat and
// vision requests, the supported backends, and the normalized result handed
// back to callers.
package llm

import "errors"

// Error taxonomy shared by the translation and dispatch layers.
// Callers match with errors.Is; messages are wrapped with fmt.Errorf("%w: ...").
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnsupportedBackend = errors.New("unsupported backend")
	ErrConfiguration      = errors.New("configuration error")
	ErrTransport          = errors.New("transport error")
	ErrMalformedResponse  = errors.New("malformed response")
)

// ErrorResponse represents an error returned over the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
