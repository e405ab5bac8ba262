// Package dataurl handles the "data:<mime>;base64," envelope used to embed
// images in chat requests. All prefix stripping and re-wrapping goes through
// here so every backend builder normalizes raw base64 and data URLs the same way.
package dataurl

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	scheme       = "data:"
	base64Marker = ";base64,"
)

// Parse splits a base64 data URL into its MIME type and payload.
// ok is false when s is not a base64 data URL.
func Parse(s string) (mime, payload string, ok bool) {
	if !strings.HasPrefix(s, scheme) {
		return "", "", false
	}
	idx := strings.Index(s, base64Marker)
	if idx < 0 {
		return "", "", false
	}
	return s[len(scheme):idx], s[idx+len(base64Marker):], true
}

// Strip returns the bare base64 payload of s, removing a data URL prefix if present.
func Strip(s string) string {
	if _, payload, ok := Parse(s); ok {
		return payload
	}
	return s
}

// Encode wraps a bare base64 payload in a data URL for mime.
func Encode(mime, payload string) string {
	return scheme + mime + base64Marker + payload
}

// Normalize returns s as a data URL. An existing prefix is kept; a bare
// payload is wrapped using fallbackMime.
func Normalize(s, fallbackMime string) string {
	if _, _, ok := Parse(s); ok {
		return s
	}
	return Encode(fallbackMime, s)
}

// MediaType returns the MIME type declared by a data URL, or "".
func MediaType(s string) string {
	mime, _, _ := Parse(s)
	return mime
}

// Decode returns the bytes carried by s, which may be raw base64 or a data URL.
// Whitespace and missing padding are tolerated.
func Decode(s string) ([]byte, error) {
	payload := strings.Join(strings.Fields(Strip(s)), "")
	if payload == "" {
		return nil, fmt.Errorf("empty base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
		return raw, nil
	}
	if url, urlErr := base64.URLEncoding.DecodeString(payload); urlErr == nil {
		return url, nil
	}
	return nil, fmt.Errorf("decode base64: %w", err)
}
