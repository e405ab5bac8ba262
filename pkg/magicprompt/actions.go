package magicprompt

import "strings"

// Action tags accepted by Service.Run.
const (
	ActionChat                = "chat"
	ActionVision              = "vision"
	ActionPrompt              = "prompt"
	ActionCaption             = "caption"
	ActionGenerateInstruction = "generate-instruction"
)

// Actions returns every supported action tag.
func Actions() []string {
	return []string{ActionChat, ActionVision, ActionPrompt, ActionCaption, ActionGenerateInstruction}
}

// IsAction reports whether tag names a supported action. Tags are lower case.
func IsAction(tag string) bool {
	for _, a := range Actions() {
		if a == tag {
			return true
		}
	}
	return false
}

// Vision and caption always carry an image; chat only when one is attached.
func visionAction(tag string) bool {
	return tag == ActionVision || tag == ActionCaption
}

// defaultCaptionText is sent when a vision request arrives without input.
const defaultCaptionText = "Describe this image."

var defaultInstructions = map[string]string{
	ActionPrompt: strings.Join([]string{
		"You are a prompt engineer for text-to-image models.",
		"Rewrite the user's idea as a single detailed image prompt covering subject, style, lighting, composition and mood.",
		"Reply with the prompt only, without commentary or quotes.",
	}, " "),
	ActionCaption: strings.Join([]string{
		"Write a concise caption for the image suitable as a text-to-image prompt.",
		"Describe subject, setting, style and notable details in one paragraph.",
		"Reply with the caption only.",
	}, " "),
	ActionVision: "You are a helpful assistant that answers questions about images accurately and concisely.",
	ActionGenerateInstruction: strings.Join([]string{
		"Write a system instruction for an assistant that performs the task the user describes.",
		"Address the assistant in the second person and reply with the instruction only.",
	}, " "),
}
