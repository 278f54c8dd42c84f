package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumina-dashboard/internal/circuitbreaker"
	"github.com/lumina-dashboard/internal/logging"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.5-flash"

// contentGenerator is the slice of the genai client the gateway needs
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the Gemini gateway
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Breaker *circuitbreaker.CircuitBreaker
	Logger  *logging.Logger
}

// GeminiGateway calls the Gemini API through a circuit breaker
type GeminiGateway struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *logging.Logger
}

// NewGateway returns a Gemini-backed gateway, or one that always answers with
// FallbackMissingKey when no API key is configured
func NewGateway(ctx context.Context, cfg GeminiConfig) (Gateway, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return offlineGateway{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	return newGeminiGateway(client.Models, cfg), nil
}

func newGeminiGateway(models contentGenerator, cfg GeminiConfig) *GeminiGateway {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetGlobalLogger()
	}
	if cfg.Breaker == nil {
		cfg.Breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("gemini"))
	}
	return &GeminiGateway{
		models:  models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		breaker: cfg.Breaker,
		logger:  cfg.Logger.WithField("component", "advisor"),
	}
}

// Generate sends prompt once. Transport failures, timeouts and an open
// breaker yield FallbackConnection. An error response from the API or an
// empty candidate yields FallbackEmptyResponse.
func (g *GeminiGateway) Generate(ctx context.Context, prompt string) string {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var text string
	err := g.breaker.Execute(ctx, func() error {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return err
		}
		if resp != nil {
			text = resp.Text()
		}
		return nil
	})
	if err != nil {
		if code, ok := apiErrorCode(err); ok {
			g.logger.WithError(err).WithField("status", code).Warn("Gemini returned an error response")
			return FallbackEmptyResponse
		}
		g.logger.WithError(err).Warn("Gemini request failed")
		return FallbackConnection
	}

	if strings.TrimSpace(text) == "" {
		return FallbackEmptyResponse
	}
	return text
}

// apiErrorCode reports the HTTP status of an error response from the API
func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// BreakerStats reports the state of the gateway's circuit breaker
func (g *GeminiGateway) BreakerStats() *circuitbreaker.Stats {
	return g.breaker.GetStats()
}
