package translate

import (
	"github.com/papercomputeco/magicprompt/pkg/dataurl"
	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// ollama builds an /api/chat body. Images travel in a parallel images array
// as bare base64.
func (t *Translator) ollama(backend llm.Backend, content *llm.MessageContent, model string, kind llm.MessageKind, seed int) *OllamaBody {
	messages := make([]OllamaMessage, 0, len(content.History)+2)
	if sys := instructions(content); sys != nil {
		messages = append(messages, OllamaMessage{Role: llm.RoleSystem, Content: *sys})
	}
	for _, turn := range history(content) {
		messages = append(messages, OllamaMessage{Role: turn.Role, Content: turn.Text})
	}

	user := OllamaMessage{Role: llm.RoleUser, Content: content.Text}
	if kind == llm.KindVision {
		user.Images = make([]string, 0, len(content.Media))
		for _, item := range content.Media {
			out := t.compressor.CompressItem(item, backend.ImageFormat())
			user.Images = append(user.Images, dataurl.Strip(out.Data))
		}
	}
	messages = append(messages, user)

	return &OllamaBody{
		Model:     model,
		Messages:  messages,
		Stream:    false,
		KeepAlive: content.KeepAlive,
		Options: OllamaOptions{
			Temperature: defaultTemperature,
			TopP:        defaultTopP,
			Seed:        seedPtr(seed),
		},
	}
}
