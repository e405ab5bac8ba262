package translate

import (
	"encoding/json"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// RequestBody is the wire body for one backend request. It is a closed sum
// type: *OllamaBody, *OpenAIBody or *AnthropicBody.
type RequestBody interface {
	Family() llm.Family
	requestBody()
}

// OllamaBody is the /api/chat request.
type OllamaBody struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`

	// KeepAlive is always sent; null leaves model unloading to the server default.
	KeepAlive *int `json:"keep_alive"`

	Options OllamaOptions `json:"options"`
}

// OllamaMessage is a single message in an Ollama conversation.
type OllamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // bare base64, no data URL prefix
}

// OllamaOptions contains model inference parameters.
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	Seed        *int    `json:"seed,omitempty"`
}

func (*OllamaBody) Family() llm.Family { return llm.FamilyOllama }
func (*OllamaBody) requestBody()        {}

// OpenAIBody is the /v1/chat/completions request shared by OpenAI-compatible backends.
type OpenAIBody struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	TopP        *float64        `json:"top_p,omitempty"`
	Seed        *int            `json:"seed,omitempty"`
	Stream      bool            `json:"stream"`
}

// OpenAIMessage carries either flat text or an array of content parts.
type OpenAIMessage struct {
	Role    string
	Content string
	Parts   []OpenAIPart
}

// MarshalJSON emits content as a string, or as an array when Parts is set.
func (m OpenAIMessage) MarshalJSON() ([]byte, error) {
	if m.Parts != nil {
		return json.Marshal(struct {
			Role    string       `json:"role"`
			Content []OpenAIPart `json:"content"`
		}{m.Role, m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Content})
}

// OpenAIPart is one element of a multimodal content array.
type OpenAIPart struct {
	Type     string // "text" or "image_url"
	Text     string
	ImageURL string
}

type openAIImageURL struct {
	URL string `json:"url"`
}

// MarshalJSON emits only the fields that belong to the part type.
func (p OpenAIPart) MarshalJSON() ([]byte, error) {
	if p.Type == partImageURL {
		return json.Marshal(struct {
			Type     string         `json:"type"`
			ImageURL openAIImageURL `json:"image_url"`
		}{p.Type, openAIImageURL{URL: p.ImageURL}})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{p.Type, p.Text})
}

func (*OpenAIBody) Family() llm.Family { return llm.FamilyOpenAI }
func (*OpenAIBody) requestBody()        {}

// AnthropicBody is the /v1/messages request.
type AnthropicBody struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    *string            `json:"system"`
	Messages  []AnthropicMessage `json:"messages"`
}

// AnthropicMessage carries either flat text or an array of content blocks.
type AnthropicMessage struct {
	Role    string
	Content string
	Blocks  []AnthropicBlock
}

// MarshalJSON emits content as a string, or as an array when Blocks is set.
func (m AnthropicMessage) MarshalJSON() ([]byte, error) {
	if m.Blocks != nil {
		return json.Marshal(struct {
			Role    string           `json:"role"`
			Content []AnthropicBlock `json:"content"`
		}{m.Role, m.Blocks})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Content})
}

// AnthropicBlock is a text or image content block.
type AnthropicBlock struct {
	Type   string // "text" or "image"
	Text   string
	Source *AnthropicSource
}

// MarshalJSON emits only the fields that belong to the block type.
func (b AnthropicBlock) MarshalJSON() ([]byte, error) {
	if b.Type == blockImage {
		return json.Marshal(struct {
			Type   string           `json:"type"`
			Source *AnthropicSource `json:"source"`
		}{b.Type, b.Source})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{b.Type, b.Text})
}

// AnthropicSource is the image payload of an image block.
type AnthropicSource struct {
	Type      string `json:"type"` // "base64" or "url"
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

func (*AnthropicBody) Family() llm.Family { return llm.FamilyAnthropic }
func (*AnthropicBody) requestBody()        {}
