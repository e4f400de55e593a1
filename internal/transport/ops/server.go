// Package ops serves the operational HTTP surface: health, metrics and token usage.
package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domusage "github.com/kailas-cloud/bookrag/internal/domain/usage"
	logpkg "github.com/kailas-cloud/bookrag/internal/logger"
	"github.com/kailas-cloud/bookrag/internal/metrics"
	healthuc "github.com/kailas-cloud/bookrag/internal/usecase/health"
)

// HealthChecker runs component health checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter builds token usage reports.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// Server wires the ops handlers.
type Server struct {
	health HealthChecker
	usage  UsageReporter
	logger *zap.Logger
}

// NewServer creates an ops server.
func NewServer(health HealthChecker, usage UsageReporter, logger *zap.Logger) *Server {
	return &Server{health: health, usage: usage, logger: logger}
}

// Router builds the chi router with the standard middleware chain.
// apiKeys guards /usage; empty disables auth.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/usage", s.GetUsage)
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		logpkg.FromContextOr(r.Context(), s.logger).Warn("health check degraded",
			zap.String("status", string(report.Status)),
			zap.Any("checks", checks),
		)
	}
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

type usageResponse struct {
	Period          string    `json:"period"`
	PeriodStartAt   time.Time `json:"period_start_at"`
	ResetsAt        time.Time `json:"resets_at"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensLimit     *int64    `json:"tokens_limit,omitempty"`
	TokensRemaining *int64    `json:"tokens_remaining,omitempty"`
	IsExhausted     bool      `json:"is_exhausted"`
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, ok := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "period must be day or month")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	resp := usageResponse{
		Period:        string(report.Period()),
		PeriodStartAt: report.Start(),
		ResetsAt:      report.ResetsAt(),
		TokensUsed:    report.Used(),
		IsExhausted:   report.Exhausted(),
	}
	if limit := report.Limit(); limit > 0 {
		remaining := report.Remaining()
		resp.TokensLimit = &limit
		resp.TokensRemaining = &remaining
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
