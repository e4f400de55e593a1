package metrics

import "github.com/prometheus/client_golang/prometheus"

// TokenBudgetRemaining reports tokens left in the current period, -1 when unlimited.
var TokenBudgetRemaining = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "token_budget_remaining",
		Help:      "Model tokens remaining in the current budget period",
	},
	[]string{"scope", "period"},
)
