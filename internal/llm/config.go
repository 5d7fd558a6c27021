package llm

import (
	"net/http"
	"time"
)

// Config holds client-wide secrets and knobs. API keys are read once at
// construction and passed into each invocation path explicitly; providers
// never reach back into the environment.
type Config struct {
	// Default provider used when Request.Provider is empty.
	Provider Provider

	// Default model per provider if not set per-call.
	DefaultModelAnthropic string
	DefaultModelOpenAI    string
	DefaultModelGoogle    string

	// Anthropic configuration.
	AnthropicAPIKey  string // falls back to env ANTHROPIC_API_KEY when DetectEnv is true
	AnthropicBaseURL string // optional custom endpoint

	// OpenAI configuration.
	OpenAIAPIKey  string // falls back to env OPENAI_API_KEY when DetectEnv is true
	OpenAIBaseURL string // optional; supports custom or Azure endpoint

	// Google/GenAI configuration.
	GoogleAPIKey  string // falls back to env GOOGLE_API_KEY when DetectEnv is true
	GoogleBaseURL string // optional custom endpoint

	// Shared client options.
	HTTPClient *http.Client
	Timeout    time.Duration // wall-clock budget per upstream round trip

	// Completion defaults applied when a Request leaves them zero.
	MaxOutputTokens int
	MaxToolRounds   int

	// Auto-detection. When true, missing API keys are pulled from
	// environment variables.
	DetectEnv bool
}

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxOutputTokens = 1024
	defaultMaxToolRounds   = 2
)

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c Config) maxOutputTokens() int {
	if c.MaxOutputTokens > 0 {
		return c.MaxOutputTokens
	}
	return defaultMaxOutputTokens
}

func (c Config) maxToolRounds() int {
	if c.MaxToolRounds > 0 {
		return c.MaxToolRounds
	}
	return defaultMaxToolRounds
}
