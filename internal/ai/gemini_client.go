package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/services"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// GeminiGenerator wraps the Gemini generative model behind a circuit
// breaker and a client-side rate limiter. It implements
// services.Generator. Failed calls are surfaced, never retried here;
// retry policy belongs to the caller.
type GeminiGenerator struct {
	client      *genai.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	model       string
	temperature float32
	timeout     time.Duration
}

// GeminiOptions configures the generator. Temperature defaults to 0
// for deterministic, low-creativity output.
type GeminiOptions struct {
	Model       string
	Temperature float32
	Timeout     time.Duration
	RPM         int
}

func NewGeminiGenerator(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for generation")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	rpm := opts.RPM
	if rpm <= 0 {
		rpm = 10
	}

	return &GeminiGenerator{
		client:      client,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)*0.9/60.0), rpm/10+1),
		model:       opts.Model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
	}, nil
}

// Generate invokes the model with the given system and user prompts
// and returns the concatenated text parts of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: waiting for rate limiter", services.ErrTimeout)
		}
		return "", fmt.Errorf("%w: rate limiter: %v", services.ErrGenerationProvider, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.breaker.Execute(func() (interface{}, error) {
		model := g.client.GenerativeModel(g.model)
		model.SetTemperature(g.temperature)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
		return model.GenerateContent(ctx, genai.Text(user))
	})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("%w: generation call exceeded %s", services.ErrTimeout, g.timeout)
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return "", fmt.Errorf("%w: circuit breaker open", services.ErrGenerationProvider)
		default:
			return "", fmt.Errorf("%w: %v", services.ErrGenerationProvider, err)
		}
	}

	resp := result.(*genai.GenerateContentResponse)
	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", services.ErrGenerationProvider)
	}
	return text, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out
}
