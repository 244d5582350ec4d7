// Package llm adapts hosted and local language models to ports.LLMProvider.
package llm

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyReply is returned when a provider answers with no text
var ErrEmptyReply = errors.New("llm returned an empty reply")

// ErrNotConfigured is returned when a hosted provider has no API key
var ErrNotConfigured = errors.New("llm provider is not configured")

// Settings are the provider-independent connection parameters
type Settings struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func reply(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
