// Package translate maps a uniform MessageContent to the exact request body
// each backend's chat or vision API expects.
package translate

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// NoSeed is the seed sentinel meaning "let the backend choose".
const NoSeed = -1

// Sampling and length parameters sent to every backend.
const (
	defaultTemperature = 1.0
	defaultTopP        = 0.9
	openAIMaxTokens    = 1000
	anthropicMaxTokens = 1024
)

const (
	partText     = "text"
	partImageURL = "image_url"
	blockText    = "text"
	blockImage   = "image"
)

// Compressor re-encodes a media item into the target format. It must never
// fail; undecodable items come back unchanged.
type Compressor interface {
	CompressItem(item llm.MediaItem, target llm.ImageFormat) llm.MediaItem
}

// Translator builds backend request bodies. It holds no mutable state and is
// safe for concurrent use.
type Translator struct {
	compressor Compressor
}

// New creates a Translator that routes vision media through compressor.
func New(compressor Compressor) *Translator {
	return &Translator{compressor: compressor}
}

// Translate builds the request body for backendID. seed is omitted from the
// body when it equals NoSeed, and always for Anthropic.
func (t *Translator) Translate(backendID string, content *llm.MessageContent, model string, kind llm.MessageKind, seed int) (RequestBody, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: message content is required", llm.ErrInvalidArgument)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: model is required", llm.ErrInvalidArgument)
	}

	backend, err := llm.ParseBackend(backendID)
	if err != nil {
		return nil, err
	}

	if err := validate(content, kind); err != nil {
		return nil, err
	}

	switch backend.Family() {
	case llm.FamilyOllama:
		return t.ollama(backend, content, model, kind, seed), nil
	case llm.FamilyOpenAI:
		return t.openAI(backend, content, model, kind, seed), nil
	case llm.FamilyAnthropic:
		return t.anthropic(content, model, kind), nil
	}

	return nil, fmt.Errorf("%w: %q", llm.ErrUnsupportedBackend, backendID)
}

func validate(content *llm.MessageContent, kind llm.MessageKind) error {
	switch kind {
	case llm.KindText:
		if strings.TrimSpace(content.Text) == "" {
			return fmt.Errorf("%w: text is required for text requests", llm.ErrInvalidArgument)
		}
	case llm.KindVision:
		if len(content.Media) == 0 {
			return fmt.Errorf("%w: at least one image is required for vision requests", llm.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: unknown message kind %d", llm.ErrInvalidArgument, kind)
	}
	return nil
}

// instructions returns the system prompt, treating "" as absent.
func instructions(content *llm.MessageContent) *string {
	if content.Instructions == nil || *content.Instructions == "" {
		return nil
	}
	s := *content.Instructions
	return &s
}

// history returns prior user and assistant turns; anything else is dropped.
func history(content *llm.MessageContent) []llm.Turn {
	turns := make([]llm.Turn, 0, len(content.History))
	for _, turn := range content.History {
		if turn.Role != llm.RoleUser && turn.Role != llm.RoleAssistant {
			continue
		}
		turns = append(turns, turn)
	}
	return turns
}

func seedPtr(seed int) *int {
	if seed == NoSeed {
		return nil
	}
	return &seed
}
