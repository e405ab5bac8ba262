package translate

import (
	"github.com/papercomputeco/magicprompt/pkg/dataurl"
	"github.com/papercomputeco/magicprompt/pkg/llm"
)

const anthropicImageType = "image/png"

// anthropic builds a /v1/messages body. Instructions go in the top-level
// system field and images are always sent as PNG. Seeds are not supported.
func (t *Translator) anthropic(content *llm.MessageContent, model string, kind llm.MessageKind) *AnthropicBody {
	messages := make([]AnthropicMessage, 0, len(content.History)+1)
	for _, turn := range history(content) {
		messages = append(messages, AnthropicMessage{Role: turn.Role, Content: turn.Text})
	}

	if kind == llm.KindVision {
		blocks := make([]AnthropicBlock, 0, len(content.Media)+1)
		for _, item := range content.Media {
			blocks = append(blocks, AnthropicBlock{Type: blockImage, Source: t.anthropicSource(item)})
		}
		blocks = append(blocks, AnthropicBlock{Type: blockText, Text: content.Text})
		messages = append(messages, AnthropicMessage{Role: llm.RoleUser, Blocks: blocks})
	} else {
		messages = append(messages, AnthropicMessage{Role: llm.RoleUser, Content: content.Text})
	}

	return &AnthropicBody{
		Model:     model,
		MaxTokens: anthropicMaxTokens,
		System:    instructions(content),
		Messages:  messages,
	}
}

func (t *Translator) anthropicSource(item llm.MediaItem) *AnthropicSource {
	if item.Source == llm.SourceURL {
		return &AnthropicSource{Type: "url", URL: item.Data}
	}
	out := t.compressor.CompressItem(item, llm.FormatPNG)
	return &AnthropicSource{
		Type:      "base64",
		MediaType: anthropicImageType,
		Data:      dataurl.Strip(out.Data),
	}
}
