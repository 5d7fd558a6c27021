package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// emitToolName is the dedicated structured-output tool offered on every
// invocation. When the model calls it, the arguments are the payload.
const emitToolName = "emit_structured_output"

const emitToolDescription = "Return the final answer as structured data. " +
	"The arguments must conform exactly to the declared schema."

// strictSystemSuffix is appended to the system instructions on the single
// bounded retry after a malformed or missing structured response.
const strictSystemSuffix = "\n\nIMPORTANT: You MUST call the " + emitToolName +
	" tool with arguments matching its schema exactly. Do not answer in prose, " +
	"do not use code fences, do not add commentary."

// Client is the unified structured-invocation client. It is safe for
// concurrent use; invocations share no mutable state beyond the lazily
// constructed provider backends.
type Client struct {
	cfg Config

	mu        sync.Mutex     // guards lazy provider construction only
	anthropic providerClient // lazily init
	openai    providerClient // lazily init
	google    providerClient // lazily init
}

// New creates a Client with the given config. If DetectEnv is true, missing
// API keys are pulled from environment variables once, here, so the
// enforcement logic itself stays free of ambient reads.
func New(cfg Config) *Client {
	if cfg.DetectEnv {
		if cfg.AnthropicAPIKey == "" {
			cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.OpenAIAPIKey == "" {
			cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.GoogleAPIKey == "" {
			cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	return &Client{cfg: cfg}
}

// Invoke executes one structured invocation: a single blocking round trip,
// or a bounded multi-round exchange when web tools are enabled. The model
// is offered the structured-output tool; if it answers in prose instead,
// the first balanced JSON object is sliced out of the text. There are no
// retries at this layer.
func (c *Client) Invoke(ctx context.Context, req Request) (Result, error) {
	provider := req.Provider
	if provider == "" {
		provider = c.cfg.Provider
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel(provider)
		if model == "" {
			return Result{}, fmt.Errorf("llm: model must be specified for provider %q", provider)
		}
	}
	if len(req.Schema) == 0 {
		return Result{}, errors.New("llm: Schema is required")
	}
	if (req.WebSearch || req.WebFetch) && provider != ProviderAnthropic {
		return Result{}, fmt.Errorf("llm: provider %q has no server-side web tools", provider)
	}

	// Fail fast before any network call when the credential is absent.
	if c.credentialFor(provider) == "" {
		return Result{}, fmt.Errorf("%w: provider %q", ErrMissingCredential, provider)
	}

	pc, err := c.ensureProvider(provider)
	if err != nil {
		return Result{}, err
	}

	plan := callPlan{
		Model:           model,
		System:          req.System,
		Input:           req.Prompt,
		Schema:          req.Schema,
		WebSearch:       req.WebSearch,
		WebFetch:        req.WebFetch,
		MaxOutputTokens: req.MaxOutputTokens,
		MaxToolRounds:   req.MaxToolRounds,
		RoundTimeout:    c.cfg.timeout(),
	}
	if plan.MaxOutputTokens <= 0 {
		plan.MaxOutputTokens = c.cfg.maxOutputTokens()
	}
	if plan.MaxToolRounds <= 0 {
		plan.MaxToolRounds = c.cfg.maxToolRounds()
	}

	raw, err := pc.invoke(ctx, plan)
	if err != nil {
		return Result{}, err
	}
	return enforce(req, raw)
}

// InvokeWithRetry runs the documented retry-once policy as an explicit
// bounded loop: at most two attempts, the second with stricter instructions
// emphasizing the tool-call path. Each attempt builds a fresh Request; the
// per-round-trip timeout is not extended. Upstream failures (credential,
// timeout, rate limit, availability) are not retried.
func InvokeWithRetry(ctx context.Context, inv Invoker, req Request) (Result, error) {
	var (
		res Result
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		attemptReq := req
		if attempt > 0 {
			attemptReq.System = req.System + strictSystemSuffix
		}
		res, err = inv.Invoke(ctx, attemptReq)
		if err == nil || !Retryable(err) {
			return res, err
		}
	}
	return res, err
}

// enforce turns normalized response blocks into a Result: a conforming
// structured-output tool call wins, everything else is brace-sliced out of
// the free text, and either path ends in canonical compact JSON plus the
// bounded citation list.
func enforce(req Request, raw rawResponse) (Result, error) {
	citations := raw.allCitations()
	for i := range citations {
		if citations[i].Label == "" {
			citations[i].Label = req.CitationLabel
		}
	}
	citations = dedupeCitations(citations, req.MaxCitations)

	if args, ok := raw.firstToolUse(emitToolName); ok {
		parsed, compact, err := canonicalize(args)
		if err != nil {
			return Result{}, fmt.Errorf("%w: tool arguments: %w", ErrMalformedJSON, err)
		}
		verr := validateAgainstSchema(req.Schema, parsed)
		if verr == nil {
			return Result{JSON: parsed, Canonical: compact, Citations: citations, FromToolCall: true}, nil
		}
		// A tool call with nonconforming arguments falls through to the
		// text path; the model sometimes answers in prose after fumbling
		// the call. If the text yields nothing either, the validation
		// failure is the root cause worth reporting.
		if res, terr := enforceText(raw, citations); terr == nil {
			return res, nil
		}
		return Result{}, fmt.Errorf("%w: %w", ErrNoStructuredOutput, verr)
	}

	return enforceText(raw, citations)
}

func enforceText(raw rawResponse, citations []Citation) (Result, error) {
	text := raw.combinedText()
	candidate, sawBrace := extractObject(text)
	if candidate == "" {
		if sawBrace {
			return Result{}, fmt.Errorf("%w: unbalanced object in response text", ErrMalformedJSON)
		}
		return Result{}, ErrNoStructuredOutput
	}
	parsed, compact, err := canonicalize([]byte(candidate))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return Result{JSON: parsed, Canonical: compact, Citations: citations}, nil
}

// HasCredential reports whether the client holds an API key for the given
// provider. It lets callers log a startup warning instead of discovering
// the missing key on the first invocation.
func (c *Client) HasCredential(p Provider) bool {
	return c.credentialFor(p) != ""
}

func (c *Client) defaultModel(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return c.cfg.DefaultModelAnthropic
	case ProviderOpenAI:
		return c.cfg.DefaultModelOpenAI
	case ProviderGoogle:
		return c.cfg.DefaultModelGoogle
	default:
		return ""
	}
}

func (c *Client) credentialFor(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return c.cfg.AnthropicAPIKey
	case ProviderOpenAI:
		return c.cfg.OpenAIAPIKey
	case ProviderGoogle:
		return c.cfg.GoogleAPIKey
	default:
		return ""
	}
}

func (c *Client) ensureProvider(p Provider) (providerClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch p {
	case ProviderAnthropic:
		if c.anthropic == nil {
			c.anthropic = newAnthropicProvider(c.cfg)
		}
		return c.anthropic, nil
	case ProviderOpenAI:
		if c.openai == nil {
			c.openai = newOpenAIProvider(c.cfg)
		}
		return c.openai, nil
	case ProviderGoogle:
		if c.google == nil {
			pc, err := newGoogleProvider(c.cfg)
			if err != nil {
				return nil, err
			}
			c.google = pc
		}
		return c.google, nil
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", p)
	}
}
