// Package generation decorates the text-generation port.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

// BreakerSettings configures the generation circuit breaker.
// The circuit opens once MinRequests were seen in the window and the failure ratio reaches FailureRatio.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state counting window
	Timeout      time.Duration // open duration before probing
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings returns the production breaker tuning.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "generation",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// BreakerGenerator short-circuits generation while the provider keeps failing.
// Warm-ups then fail fast with domain.ErrGenerationUnavailable instead of queuing on a dead provider.
type BreakerGenerator struct {
	inner  domain.Generator
	cb     *gobreaker.CircuitBreaker[domain.GenerationResult]
	logger *zap.Logger
}

// NewBreakerGenerator wraps inner with a circuit breaker.
func NewBreakerGenerator(inner domain.Generator, s BreakerSettings, logger *zap.Logger) *BreakerGenerator {
	if s.Name == "" {
		s.Name = DefaultBreakerSettings().Name
	}
	logger = logger.Named("breaker")
	metrics.GenerationBreakerState.WithLabelValues(s.Name).Set(float64(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[domain.GenerationResult](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Generation circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.GenerationBreakerState.WithLabelValues(name).Set(float64(to))
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerGenerator{inner: inner, cb: cb, logger: logger}
}

// Generate implements domain.Generator.
func (g *BreakerGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	res, err := g.cb.Execute(func() (domain.GenerationResult, error) {
		return g.inner.Generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.GenerationResult{}, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	if err != nil {
		return domain.GenerationResult{}, err
	}
	return res, nil
}

// State returns the current breaker state.
func (g *BreakerGenerator) State() gobreaker.State {
	return g.cb.State()
}

// HealthCheck reports an open circuit, then delegates to the provider when it supports health checks.
func (g *BreakerGenerator) HealthCheck(ctx context.Context) error {
	if g.cb.State() == gobreaker.StateOpen {
		return domain.ErrGenerationUnavailable
	}
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
