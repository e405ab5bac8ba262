// Package normalize extracts the generated text from each backend's response
// shape into a uniform llm.NormalizedResult.
package normalize

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

const malformed = "malformed response"

// Normalize never panics or errors; every failure is reported in the result.
func Normalize(backendID string, raw []byte) llm.NormalizedResult {
	backend, err := llm.ParseBackend(backendID)
	if err != nil {
		return llm.Fail(err)
	}

	if !gjson.ValidBytes(raw) {
		return llm.FailMessage(malformed)
	}
	parsed := gjson.ParseBytes(raw)

	var (
		text string
		ok   bool
	)
	switch backend.Family() {
	case llm.FamilyOllama:
		text, ok = ollamaText(parsed)
	case llm.FamilyOpenAI:
		text, ok = openAIText(parsed)
	case llm.FamilyAnthropic:
		text, ok = anthropicText(parsed)
	}
	if ok {
		return llm.Succeed(text)
	}

	if msg := upstreamError(parsed); msg != "" {
		return llm.FailMessage(msg)
	}
	return llm.FailMessage(malformed)
}

// ollamaText reads message.content.
func ollamaText(parsed gjson.Result) (string, bool) {
	content := parsed.Get("message.content")
	if content.Type != gjson.String {
		return "", false
	}
	return content.String(), true
}

// openAIText reads choices[0].message.content. Some OpenRouter models return
// structured content; anything that is not a string is passed on as raw JSON.
func openAIText(parsed gjson.Result) (string, bool) {
	content := parsed.Get("choices.0.message.content")
	switch {
	case !content.Exists(), content.Type == gjson.Null:
		return "", false
	case content.Type == gjson.String:
		return content.String(), true
	default:
		return content.Raw, true
	}
}

// anthropicText concatenates every text block in content[].
func anthropicText(parsed gjson.Result) (string, bool) {
	content := parsed.Get("content")
	if !content.IsArray() {
		return "", false
	}

	var (
		sb    strings.Builder
		found bool
	)
	for _, block := range content.Array() {
		if block.Get("type").String() != "text" {
			continue
		}
		text := block.Get("text")
		if text.Type != gjson.String {
			continue
		}
		sb.WriteString(text.String())
		found = true
	}
	return sb.String(), found
}

// upstreamError reports an error payload such as {"error":"..."} (Ollama) or
// {"error":{"message":"..."}} (OpenAI, Anthropic, OpenRouter).
func upstreamError(parsed gjson.Result) string {
	e := parsed.Get("error")
	switch {
	case !e.Exists():
		return ""
	case e.Type == gjson.String:
		return fmt.Sprintf("upstream error: %s", e.String())
	case e.IsObject():
		if msg := e.Get("message").String(); msg != "" {
			return fmt.Sprintf("upstream error: %s", msg)
		}
	}
	return ""
}
