package llm

import (
	"context"
	"encoding/json"
	"time"
)

// providerClient is the internal interface each backend implements.
type providerClient interface {
	// invoke executes a single bounded exchange according to the given call
	// plan and returns the normalized response blocks.
	invoke(ctx context.Context, plan callPlan) (rawResponse, error)
}

// callPlan is a normalized, provider-agnostic instruction set produced by
// Invoke from a Request plus client defaults.
type callPlan struct {
	Model  string
	System string
	Input  string

	// Schema of the structured-output tool the model is asked to call.
	Schema map[string]any

	// Server-side web tools.
	WebSearch bool
	WebFetch  bool

	MaxOutputTokens int
	MaxToolRounds   int

	// RoundTimeout is the wall-clock budget applied to each upstream round
	// trip, not cumulatively across rounds.
	RoundTimeout time.Duration
}

// The provider response is modeled as a tagged sequence of content blocks
// rather than duck-typing on response shape. These types never leave the
// package; callers only ever see Result or a taxonomy error.
type blockKind int

const (
	blockText blockKind = iota
	blockToolUse
)

type contentBlock struct {
	kind blockKind

	// blockText
	text      string
	citations []Citation

	// blockToolUse
	toolName string
	toolArgs json.RawMessage
}

type rawResponse struct {
	blocks []contentBlock
}

// firstToolUse returns the arguments of the first invocation of the named
// tool, if any.
func (r rawResponse) firstToolUse(name string) (json.RawMessage, bool) {
	for _, b := range r.blocks {
		if b.kind == blockToolUse && b.toolName == name {
			return b.toolArgs, true
		}
	}
	return nil, false
}

// combinedText concatenates all text blocks in order.
func (r rawResponse) combinedText() string {
	var out string
	for _, b := range r.blocks {
		if b.kind != blockText || b.text == "" {
			continue
		}
		if out == "" {
			out = b.text
		} else {
			out += "\n" + b.text
		}
	}
	return out
}

// allCitations gathers citation metadata in block order.
func (r rawResponse) allCitations() []Citation {
	var out []Citation
	for _, b := range r.blocks {
		out = append(out, b.citations...)
	}
	return out
}
