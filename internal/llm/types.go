package llm

import "context"

// Provider identifies which backend to use. No auto-detection; the zero
// value falls back to the client's configured default.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// Request describes a single structured invocation. It is built once per
// call and never mutated; a retry builds a new, stricter Request.
type Request struct {
	// Provider and Model select the backend. Empty values fall back to the
	// client configuration.
	Provider Provider
	Model    string

	// System and Prompt are the instructions and user input for this call.
	System string
	Prompt string

	// Schema is a JSON Schema object describing the shape the response must
	// conform to. It becomes the argument schema of the structured-output
	// tool offered to the model. Use SchemaOf to derive one from a struct.
	Schema map[string]any

	// WebSearch and WebFetch enable the provider's server-side web tools so
	// the model can ground its answer before emitting structured output.
	// Only providers with server-side web tools accept these.
	WebSearch bool
	WebFetch  bool

	// CitationLabel is attached to every citation gathered during this call
	// (for example "article" or "youtube").
	CitationLabel string

	// MaxCitations bounds the citation list after URL deduplication.
	// Zero means no bound.
	MaxCitations int

	// MaxOutputTokens caps the completion size. Zero uses the client default.
	MaxOutputTokens int

	// MaxToolRounds bounds how many web-tool rounds the model may take
	// before it must produce a final answer. Zero uses the client default.
	MaxToolRounds int
}

// Citation is a labeled source URL gathered alongside web-augmented output.
type Citation struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Result is the outcome of a successful invocation. JSON is always non-nil;
// failures are reported through the error return instead.
type Result struct {
	// JSON is the parsed structured payload.
	JSON map[string]any

	// Canonical is the compact re-serialization of JSON with sorted keys,
	// stable across calls for logging and equality checks.
	Canonical []byte

	// Citations are the deduplicated sources, in the order the model
	// produced them. Empty unless web tools were enabled.
	Citations []Citation

	// FromToolCall reports whether the payload came from the
	// structured-output tool rather than the free-text fallback.
	FromToolCall bool
}

// Invoker is the single entry point downstream adapters depend on. *Client
// implements it; tests substitute stubs.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Result, error)
}
