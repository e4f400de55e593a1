package domain

import "errors"

var (
	// ErrInvalidInput signals malformed arguments to a pure function or constructor.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedMode signals a search mode with no registered strategy.
	ErrUnsupportedMode = errors.New("unsupported search mode")
	// ErrRecommendationParse signals a model response that is not a recommendation array.
	ErrRecommendationParse = errors.New("recommendation parse error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text-generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrGenerationUnavailable signals that generation is short-circuited (breaker open).
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrCacheStore signals a semantic cache backing-store failure.
	ErrCacheStore = errors.New("cache store error")
	// ErrTokenBudgetExceeded signals that the daily or monthly model token budget is spent.
	ErrTokenBudgetExceeded = errors.New("token budget exceeded")
)
