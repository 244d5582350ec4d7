package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"topicgraph/application/ports"
	"topicgraph/pkg/observability"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("llm provider temporarily unavailable")

// CallObserver records completion outcomes
type CallObserver interface {
	ObserveLLMCall(provider string, d time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveLLMCall(string, time.Duration, error) {}

// BreakerConfig tunes the circuit breaker around a provider
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32
	// Cooldown is how long the breaker stays open before probing
	Cooldown time.Duration
	// Timeout bounds each call; zero leaves the caller's deadline alone
	Timeout time.Duration
}

// GuardedProvider decorates a provider with a per-call timeout, a circuit
// breaker, tracing and metrics.
type GuardedProvider struct {
	next     ports.LLMProvider
	cb       *gobreaker.CircuitBreaker
	timeout  time.Duration
	observer CallObserver
	logger   *zap.Logger
}

func NewGuardedProvider(next ports.LLMProvider, cfg BreakerConfig, observer CallObserver, logger *zap.Logger) *GuardedProvider {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if observer == nil {
		observer = noopObserver{}
	}
	logger = logger.Named("llm")

	g := &GuardedProvider{
		next:     next,
		timeout:  cfg.Timeout,
		observer: observer,
		logger:   logger,
	}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + next.Name(),
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a provider failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return g
}

func (g *GuardedProvider) Complete(ctx context.Context, prompt string, opts ports.CompletionOptions) (string, error) {
	ctx, span := observability.StartSpan(ctx, "llm.complete",
		attribute.String("llm.provider", g.next.Name()),
		attribute.Int("llm.prompt_bytes", len(prompt)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.cb.Execute(func() (any, error) {
		return g.next.Complete(ctx, prompt, opts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, g.next.Name())
	}
	g.observer.ObserveLLMCall(g.next.Name(), time.Since(start), err)
	if err != nil {
		observability.EndSpan(span, err)
		return "", err
	}

	text := out.(string)
	span.SetAttributes(attribute.Int("llm.reply_bytes", len(text)))
	observability.EndSpan(span, nil)
	return text, nil
}

// IsAvailable is false while the breaker is open
func (g *GuardedProvider) IsAvailable(ctx context.Context) bool {
	if g.cb.State() == gobreaker.StateOpen {
		return false
	}
	return g.next.IsAvailable(ctx)
}

func (g *GuardedProvider) Name() string { return g.next.Name() }

// State exposes the breaker state for health reporting
func (g *GuardedProvider) State() string { return g.cb.State().String() }
