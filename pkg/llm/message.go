package llm

// MessageKind selects whether a request carries image data.
type MessageKind int

const (
	// KindText is a text-only request.
	KindText MessageKind = iota
	// KindVision is a request with one or more media items.
	KindVision
)

func (k MessageKind) String() string {
	if k == KindVision {
		return "vision"
	}
	return "text"
}

// MediaSource describes how MediaItem.Data is encoded.
type MediaSource int

const (
	// SourceBase64 means Data is raw base64 or a data URL.
	SourceBase64 MediaSource = iota
	// SourceURL means Data is a remote URL.
	SourceURL
)

// MediaItem is a single image (or other media) attached to a message.
type MediaItem struct {
	Source    MediaSource `json:"source"`
	Data      string      `json:"data"`
	MediaType string      `json:"media_type"` // MIME type, e.g. "image/jpeg"
}

// Turn is one entry of a prior conversation.
type Turn struct {
	Role  string `json:"role"` // "user" or "assistant"
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

// MessageContent is the uniform message built per user action and consumed
// once by the translator.
type MessageContent struct {
	Text         string
	Instructions *string
	Media        []MediaItem
	KeepAlive    *int

	// History holds earlier turns placed between the system message and the
	// new user message.
	History []Turn
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
