package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register registers all bookrag collectors with the default registry.
// Safe to call more than once; must be called from main before serving /metrics.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,
			GenerationBreakerState,
			RecommendationParseErrorsTotal,
			SearchRequestsTotal,
			SearchRequestDuration,
			SemanticCacheLookupsTotal,
			WarmupsTotal,
			WarmupsInFlight,
			TokenBudgetRemaining,
			httpRequestDuration,
			httpRequestsTotal,
			httpRequestsInFlight,
		)
	})
}
