package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/usecase/embedding"
)

// InstrumentedGenerator wraps Generator with budget enforcement and logging.
type InstrumentedGenerator struct {
	inner  domain.Generator
	scope  string
	model  string
	budget embedding.BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedGenerator wraps a generator. budget may be nil.
func NewInstrumentedGenerator(
	inner domain.Generator, scope, model string,
	budget embedding.BudgetChecker, logger *zap.Logger,
) *InstrumentedGenerator {
	return &InstrumentedGenerator{
		inner:  inner,
		scope:  scope,
		model:  model,
		budget: budget,
		logger: logger,
	}
}

// Generate checks budget, delegates to the inner generator, and records usage.
func (g *InstrumentedGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			g.logger.Error("Budget exceeded",
				zap.String("scope", g.scope),
				zap.String("model", g.model),
				zap.Error(err),
			)
			return domain.GenerationResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	result, err := g.inner.Generate(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	tokens := int64(result.PromptTokens + result.CompletionTokens)
	if g.budget != nil && tokens > 0 {
		embedding.RecordSpend(g.budget, g.scope, tokens)
	}

	g.logger.Debug("Generation request completed",
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int64("tokens", tokens),
	)
	return result, nil
}

// HealthCheck delegates to the inner generator when it supports health checks.
func (g *InstrumentedGenerator) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("generator health: %w", err)
		}
	}
	return nil
}
