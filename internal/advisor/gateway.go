// Package advisor turns portfolio context into prompts for a generative model
// and keeps the advisor chat session. Model failures never surface as errors:
// callers always get displayable text.
package advisor

import "context"

// Fallback replies shown instead of model output
const (
	FallbackMissingKey    = "API key is not configured. Set GEMINI_API_KEY in your .env file."
	FallbackEmptyResponse = "Signal interrupted. Please retry."
	FallbackConnection    = "Connection error. Check network."
)

// Outcome classifies a gateway reply for metrics
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeMissingKey Outcome = "missing_key"
	OutcomeEmpty      Outcome = "empty"
	OutcomeError      Outcome = "error"
)

// Gateway sends one prompt and returns one reply. Implementations make at
// most one attempt per call and never return an error.
type Gateway interface {
	Generate(ctx context.Context, prompt string) string
}

// GatewayFunc adapts a function to Gateway
type GatewayFunc func(ctx context.Context, prompt string) string

// Generate implements Gateway
func (f GatewayFunc) Generate(ctx context.Context, prompt string) string { return f(ctx, prompt) }

// OutcomeOf maps a reply back to its outcome
func OutcomeOf(reply string) Outcome {
	switch reply {
	case FallbackMissingKey:
		return OutcomeMissingKey
	case FallbackEmptyResponse:
		return OutcomeEmpty
	case FallbackConnection:
		return OutcomeError
	}
	return OutcomeOK
}

// offlineGateway answers every prompt with the missing-key notice
type offlineGateway struct{}

func (offlineGateway) Generate(context.Context, string) string { return FallbackMissingKey }
