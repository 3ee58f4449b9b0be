package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/telemetry"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// Completer produces a single chat completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrCircuitOpen is returned while the provider circuit breaker rejects calls.
var ErrCircuitOpen = errors.New("language model temporarily unavailable")

// NewCompleter builds the configured language model client wrapped with rate
// limiting and a circuit breaker.
func NewCompleter(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*GuardedCompleter, error) {
	var (
		next Completer
		err  error
	)

	switch cfg.LLMProvider {
	case config.LLMProviderGroq:
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		next = NewOpenAICompleter(cfg.GroqAPIKey, baseURL, cfg.LLMModel, metrics)
	case config.LLMProviderOpenAI:
		next = NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.LLMBaseURL, cfg.LLMModel, metrics)
	case config.LLMProviderGemini:
		next, err = NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.LLMModel, metrics)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}

	return NewGuardedCompleter(cfg.LLMProvider, next, cfg.LLMRPM, metrics), nil
}

// GuardedCompleter rate limits calls and trips a breaker after repeated
// failures. It never retries.
type GuardedCompleter struct {
	name        string
	next        Completer
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewGuardedCompleter(name string, next Completer, rpm int, metrics *telemetry.Metrics) *GuardedCompleter {
	if rpm <= 0 {
		rpm = 60
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}

	return &GuardedCompleter{
		name:        name,
		next:        next,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
	}
}

func (g *GuardedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := otel.Tracer("ai").Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", g.name),
		attribute.Int("llm.prompt_chars", len(systemPrompt)+len(userPrompt)),
	)

	if err := g.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("llm.rate_limited", true))
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Complete(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetAttributes(attribute.Bool("llm.circuit_breaker_open", true))
			return "", fmt.Errorf("%w: %s circuit breaker %v", ErrCircuitOpen, g.name, err)
		}
		return "", err
	}

	return result.(string), nil
}

// Close releases the underlying client when it holds resources.
func (g *GuardedCompleter) Close() error {
	if c, ok := g.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
