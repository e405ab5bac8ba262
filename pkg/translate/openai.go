package translate

import (
	"github.com/papercomputeco/magicprompt/pkg/dataurl"
	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// openAI builds a /v1/chat/completions body for openai, openaiapi, openrouter
// and grok. Vision content is an array of image_url parts followed by a single
// text part.
func (t *Translator) openAI(backend llm.Backend, content *llm.MessageContent, model string, kind llm.MessageKind, seed int) *OpenAIBody {
	messages := make([]OpenAIMessage, 0, len(content.History)+2)
	if sys := instructions(content); sys != nil {
		messages = append(messages, OpenAIMessage{Role: llm.RoleSystem, Content: *sys})
	}
	for _, turn := range history(content) {
		messages = append(messages, OpenAIMessage{Role: turn.Role, Content: turn.Text})
	}

	body := &OpenAIBody{
		Model:       model,
		MaxTokens:   openAIMaxTokens,
		Temperature: defaultTemperature,
		Seed:        seedPtr(seed),
		Stream:      false,
	}

	if kind == llm.KindVision {
		format := backend.ImageFormat()
		parts := make([]OpenAIPart, 0, len(content.Media)+1)
		for _, item := range content.Media {
			parts = append(parts, OpenAIPart{Type: partImageURL, ImageURL: t.imageURL(item, format)})
		}
		parts = append(parts, OpenAIPart{Type: partText, Text: content.Text})
		messages = append(messages, OpenAIMessage{Role: llm.RoleUser, Parts: parts})
	} else {
		topP := defaultTopP
		body.TopP = &topP
		messages = append(messages, OpenAIMessage{Role: llm.RoleUser, Content: content.Text})
	}

	body.Messages = messages
	return body
}

// imageURL returns a remote URL as-is, and compressed base64 as a data URL
// labelled with the type the data actually ended up in.
func (t *Translator) imageURL(item llm.MediaItem, format llm.ImageFormat) string {
	out := t.compressor.CompressItem(item, format)
	if out.Source == llm.SourceURL {
		return out.Data
	}
	mime := out.MediaType
	if mime == "" {
		mime = format.MediaType()
	}
	return dataurl.Normalize(out.Data, mime)
}
