package advisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lumina-dashboard/internal/circuitbreaker"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   func(ctx context.Context) (*genai.GenerateContentResponse, error)
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	}
	f.mu.Unlock()
	return f.reply(ctx)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGateway(gen contentGenerator, maxFailures int) *GeminiGateway {
	return newGeminiGateway(gen, GeminiConfig{
		Model:   "test-model",
		Timeout: time.Second,
		Breaker: circuitbreaker.NewCircuitBreaker(&circuitbreaker.Config{
			Name:        "gemini-test",
			MaxFailures: maxFailures,
			Timeout:     time.Minute,
		}),
		Logger: logging.Discard(),
	})
}

func TestGeminiGateway_Success(t *testing.T) {
	gen := &fakeGenerator{reply: func(context.Context) (*genai.GenerateContentResponse, error) {
		return textResponse("Diversify a little."), nil
	}}
	g := newTestGateway(gen, 3)

	assert.Equal(t, "Diversify a little.", g.Generate(context.Background(), "hello"))
	require.Equal(t, []string{"hello"}, gen.prompts)
}

func TestGeminiGateway_EmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"blank text", textResponse("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: func(context.Context) (*genai.GenerateContentResponse, error) {
				return tt.resp, nil
			}}
			assert.Equal(t, FallbackEmptyResponse, newTestGateway(gen, 3).Generate(context.Background(), "p"))
		})
	}
}

func TestGeminiGateway_TransportError(t *testing.T) {
	gen := &fakeGenerator{reply: func(context.Context) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	g := newTestGateway(gen, 3)

	assert.Equal(t, FallbackConnection, g.Generate(context.Background(), "p"))
	assert.Equal(t, 1, gen.callCount(), "no retry")
}

func TestGeminiGateway_APIErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"value", genai.APIError{Code: 503, Message: "model overloaded", Status: "UNAVAILABLE"}},
		{"pointer", &genai.APIError{Code: 400, Message: "bad request", Status: "INVALID_ARGUMENT"}},
		{"wrapped", fmt.Errorf("generate: %w", genai.APIError{Code: 500, Status: "INTERNAL"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: func(context.Context) (*genai.GenerateContentResponse, error) {
				return nil, tt.err
			}}
			g := newTestGateway(gen, 3)

			assert.Equal(t, FallbackEmptyResponse, g.Generate(context.Background(), "p"))
			assert.Equal(t, 1, gen.callCount())
		})
	}
}

func TestGeminiGateway_Timeout(t *testing.T) {
	gen := &fakeGenerator{reply: func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	g := newGeminiGateway(gen, GeminiConfig{Timeout: 20 * time.Millisecond, Logger: logging.Discard()})

	assert.Equal(t, FallbackConnection, g.Generate(context.Background(), "p"))
}

func TestGeminiGateway_BreakerOpens(t *testing.T) {
	gen := &fakeGenerator{reply: func(context.Context) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("503")
	}}
	g := newTestGateway(gen, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, FallbackConnection, g.Generate(context.Background(), "p"))
	}
	assert.Equal(t, circuitbreaker.StateOpen, g.BreakerStats().State)

	// open breaker answers without calling the model
	assert.Equal(t, FallbackConnection, g.Generate(context.Background(), "p"))
	assert.Equal(t, 2, gen.callCount())
}

func TestNewGateway_MissingKey(t *testing.T) {
	g, err := NewGateway(context.Background(), GeminiConfig{APIKey: "  "})
	require.NoError(t, err)
	assert.Equal(t, FallbackMissingKey, g.Generate(context.Background(), "p"))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeMissingKey, OutcomeOf(FallbackMissingKey))
	assert.Equal(t, OutcomeEmpty, OutcomeOf(FallbackEmptyResponse))
	assert.Equal(t, OutcomeError, OutcomeOf(FallbackConnection))
	assert.Equal(t, OutcomeOK, OutcomeOf("anything else"))
}
