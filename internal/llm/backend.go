// Package llm provides the reasoning backend for insight generation. The
// engine consumes it through the ReasoningBackend interface; the default
// implementation talks to the Anthropic API, optionally via AWS Bedrock.
package llm

import "context"

// Response is the outcome of one generation call.
type Response struct {
	// Text is the raw generated output. It may or may not be valid JSON;
	// callers must parse defensively.
	Text string
	// Confidence is the backend's self-reported certainty, in [0, 1].
	Confidence float64
	// Metadata carries provider-specific details (model, token counts, ...).
	Metadata map[string]any
}

// ReasoningBackend generates text for research and insight drafting.
// Implementations are fallible; callers fall back to a safe default
// decision when generation or parsing fails.
type ReasoningBackend interface {
	Generate(ctx context.Context, prompt string, contextData map[string]any, temperature float64, maxTokens int) (*Response, error)
}
