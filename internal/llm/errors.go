package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy surfaced to downstream adapters. Adapters match with
// errors.Is and convert every kind into a degraded domain result; none of
// these ever crosses the route boundary.
var (
	// ErrMissingCredential means the provider API key is absent. Checked
	// before any network call; indicates a configuration problem rather
	// than a transient one.
	ErrMissingCredential = errors.New("llm: provider credential is not configured")

	// ErrNoStructuredOutput means the model produced neither a tool call
	// nor any extractable JSON object.
	ErrNoStructuredOutput = errors.New("llm: response contains no structured output")

	// ErrMalformedJSON means a candidate JSON object was found in the
	// response text but could not be parsed.
	ErrMalformedJSON = errors.New("llm: response JSON is malformed")

	// ErrUpstreamTimeout means the round trip exceeded its wall-clock budget.
	ErrUpstreamTimeout = errors.New("llm: upstream request timed out")

	// ErrUpstreamRateLimited means the provider rejected the call with a
	// rate-limit response.
	ErrUpstreamRateLimited = errors.New("llm: upstream rate limited")

	// ErrUpstreamUnavailable covers provider-side 5xx-equivalent failures.
	ErrUpstreamUnavailable = errors.New("llm: upstream unavailable")
)

// Retryable reports whether a failed attempt is worth one stricter retry:
// the model responded, but not with usable structured output.
func Retryable(err error) bool {
	return errors.Is(err, ErrMalformedJSON) || errors.Is(err, ErrNoStructuredOutput)
}

// classifyStatus maps an upstream HTTP status to the taxonomy, wrapping the
// original error for context.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrMissingCredential, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrUpstreamRateLimited, err)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
}

// classifyTransport maps non-HTTP failures (deadline, cancellation, broken
// connections) to the taxonomy.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}
