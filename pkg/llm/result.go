package llm

import "strings"

// NormalizedResult is the uniform outcome returned to callers. Error is always
// populated when Success is false.
type NormalizedResult struct {
	Success  bool    `json:"success"`
	Response *string `json:"response"`
	Error    *string `json:"error"`
}

// Succeed builds a successful result.
func Succeed(text string) NormalizedResult {
	return NormalizedResult{Success: true, Response: &text}
}

// Fail builds a failed result with a single-line message.
func Fail(err error) NormalizedResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return FailMessage(msg)
}

// FailMessage builds a failed result from a plain message.
func FailMessage(msg string) NormalizedResult {
	msg = strings.Join(strings.Fields(msg), " ")
	if msg == "" {
		msg = "unknown error"
	}
	return NormalizedResult{Error: &msg}
}

// Text returns the response text, or "" on failure.
func (r NormalizedResult) Text() string {
	if r.Response == nil {
		return ""
	}
	return *r.Response
}

// Message returns the error message, or "" on success.
func (r NormalizedResult) Message() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}
