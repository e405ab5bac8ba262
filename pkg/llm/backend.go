package llm

import (
	"fmt"
	"strings"
)

// Backend identifies a third-party LLM provider.
type Backend string

const (
	BackendOllama     Backend = "ollama"
	BackendOpenAI     Backend = "openai"    // local OpenAI-compatible server
	BackendOpenAIAPI  Backend = "openaiapi" // api.openai.com
	BackendOpenRouter Backend = "openrouter"
	BackendAnthropic  Backend = "anthropic"
	BackendGrok       Backend = "grok"
)

// Family groups backends that share a wire protocol.
type Family string

const (
	FamilyOllama    Family = "ollama"
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
)

// ImageFormat is the encoding an image is converted to before embedding.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "PNG"
	FormatWEBP ImageFormat = "WEBP"
	FormatJPG  ImageFormat = "JPG"
)

// MediaType returns the MIME type for the format.
func (f ImageFormat) MediaType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatWEBP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

type backendInfo struct {
	family Family
	format ImageFormat
}

// Grok is the only OpenAI-compatible backend fed PNG; the rest take WEBP.
var backends = map[Backend]backendInfo{
	BackendOllama:     {FamilyOllama, FormatJPG},
	BackendOpenAI:     {FamilyOpenAI, FormatWEBP},
	BackendOpenAIAPI:  {FamilyOpenAI, FormatWEBP},
	BackendOpenRouter: {FamilyOpenAI, FormatWEBP},
	BackendGrok:       {FamilyOpenAI, FormatPNG},
	BackendAnthropic:  {FamilyAnthropic, FormatPNG},
}

// ParseBackend lower-cases id and resolves it to a known backend.
func ParseBackend(id string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(id)))
	if _, ok := backends[b]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, id)
	}
	return b, nil
}

// Backends returns every known backend.
func Backends() []Backend {
	return []Backend{
		BackendOllama, BackendOpenAI, BackendOpenAIAPI,
		BackendOpenRouter, BackendAnthropic, BackendGrok,
	}
}

// Family returns the wire protocol family of the backend.
func (b Backend) Family() Family {
	return backends[b].family
}

// ImageFormat returns the format vision images are re-encoded to.
func (b Backend) ImageFormat() ImageFormat {
	return backends[b].format
}
