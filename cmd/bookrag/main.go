package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/config"
	"github.com/kailas-cloud/bookrag/internal/db"
	dbRedis "github.com/kailas-cloud/bookrag/internal/db/redis"
	"github.com/kailas-cloud/bookrag/internal/domain"
	logpkg "github.com/kailas-cloud/bookrag/internal/logger"
	"github.com/kailas-cloud/bookrag/internal/metrics"
	bookrepo "github.com/kailas-cloud/bookrag/internal/repository/book"
	budgetrepo "github.com/kailas-cloud/bookrag/internal/repository/budget"
	"github.com/kailas-cloud/bookrag/internal/repository/embcache"
	"github.com/kailas-cloud/bookrag/internal/repository/inflight"
	semstore "github.com/kailas-cloud/bookrag/internal/repository/semcache"
	openaiTransport "github.com/kailas-cloud/bookrag/internal/transport/openai"
	"github.com/kailas-cloud/bookrag/internal/transport/ops"
	"github.com/kailas-cloud/bookrag/internal/usecase/budget"
	"github.com/kailas-cloud/bookrag/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/bookrag/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/bookrag/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/bookrag/internal/usecase/health"
	"github.com/kailas-cloud/bookrag/internal/usecase/recommend"
	searchuc "github.com/kailas-cloud/bookrag/internal/usecase/search"
	semcacheuc "github.com/kailas-cloud/bookrag/internal/usecase/semcache"
	usageuc "github.com/kailas-cloud/bookrag/internal/usecase/usage"
	"github.com/kailas-cloud/bookrag/internal/usecase/warmup"
	"github.com/kailas-cloud/bookrag/internal/version"
)

// budgetScope namespaces the shared token counters of both model ports.
const budgetScope = "models"

// checkedEmbedder is an embedder that also reports provider health.
type checkedEmbedder interface {
	domain.Embedder
	domain.HealthChecker
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting "+version.String(),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Password:   cfg.Database.Password,
		ClientName: cfg.Database.ClientName,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.Register()

	// Single tracker shared by the embedder, the generator and the usage report.
	tracker := budget.NewTracker(budgetScope, budget.Limits{
		Daily:   cfg.Budget.DailyTokens,
		Monthly: cfg.Budget.MonthlyTokens,
		Action:  budget.Action(cfg.Budget.Action),
	}, logger).WithStore(ctx, budgetrepo.New(store, 0, 0))

	embedder, docEmbedder := buildEmbedder(cfg, store, tracker, logger)
	generator := buildGenerator(cfg, tracker, logger)

	books := bookrepo.New(store, cfg.Embedding.Dimensions).WithHNSW(bookrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := books.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure book index", zap.Error(err))
	}
	if cfg.Catalog.SeedFile != "" {
		importer := catalog.New(books, docEmbedder, logger).WithBatchSize(cfg.Catalog.BatchSize)
		if _, err := importer.ImportFile(ctx, cfg.Catalog.SeedFile); err != nil {
			logger.Error("Catalog import incomplete", zap.String("file", cfg.Catalog.SeedFile), zap.Error(err))
		}
	}

	cache := semcacheuc.New(buildCacheStore(cfg, store, logger), semcacheuc.Options{
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		TTL:                 time.Duration(cfg.Cache.TTLSec) * time.Second,
		MaxIdentities:       cfg.Cache.MaxIdentities,
	}, logger)

	lexical := searchuc.NewLexical(books, cfg.Search.FullText)
	vector := searchuc.NewVector(books, embedder, logger)
	hybrid := searchuc.NewHybrid(lexical, vector).
		WithRetrievalK(cfg.Search.RetrievalK).
		WithRRFK(cfg.Search.RRFK)
	policy := recommend.Policy{
		Threshold:     cfg.Search.CandidateThreshold,
		MaxCandidates: cfg.Search.MaxCandidates,
		FallbackSize:  cfg.Search.FallbackCandidates,
	}
	selector := recommend.NewSelector(generator, logger).WithDescriptionChars(cfg.Search.DescriptionChars)
	augmented := searchuc.NewAugmented(hybrid, cache, policy, selector, logger)
	searchSvc := searchuc.New(logger, lexical, vector, hybrid, augmented)

	coordinator := warmup.New(
		buildInFlight(cfg, store),
		embedder,
		cache,
		searchSvc,
		warmup.Options{
			Concurrency: int64(cfg.Warmup.Concurrency),
			Timeout:     time.Duration(cfg.Warmup.TimeoutSec) * time.Second,
		},
		logger,
	)
	augmented.WithWarmup(coordinator)
	coordinator.Seed(cfg.Warmup.SeedKeywords)

	healthSvc := healthuc.New(store, embedder, generator)
	opsServer := ops.NewServer(healthSvc, usageuc.New(tracker), logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      opsServer.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting ops server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	coordinator.Close()

	logger.Info("Stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The instruction is outermost so the cache key includes it. The second result skips the
// instruction and embeds catalog descriptions.
func buildEmbedder(
	cfg config.Config, store db.Store, tracker *budget.Tracker, logger *zap.Logger,
) (checkedEmbedder, domain.Embedder) {
	var embedder checkedEmbedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	if cfg.Embedding.Cache {
		embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, logger).
			WithNamespace(cfg.Embedding.Model).
			WithTTL(time.Duration(cfg.Embedding.CacheTTLSec) * time.Second)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, budgetScope, cfg.Embedding.Model, tracker, logger)
	docEmbedder := embedder

	if cfg.Embedding.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}

	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)
	return embedder, docEmbedder
}

// buildGenerator assembles OpenAI -> Instrumented -> Breaker. Budget rejections count as failures.
func buildGenerator(cfg config.Config, tracker *budget.Tracker, logger *zap.Logger) *generationuc.BreakerGenerator {
	base := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:       cfg.Generation.APIKey,
		BaseURL:      cfg.Generation.BaseURL,
		Model:        cfg.Generation.Model,
		Temperature:  cfg.Generation.Temperature,
		MaxTokens:    cfg.Generation.MaxTokens,
		SystemPrompt: cfg.Generation.SystemPrompt,
		Provider:     cfg.Generation.Provider,
		Logger:       logger,
	})
	instrumented := generationuc.NewInstrumentedGenerator(base, budgetScope, cfg.Generation.Model, tracker, logger)

	settings := generationuc.DefaultBreakerSettings()
	b := cfg.Generation.Breaker
	if b.MinRequests > 0 {
		settings.MinRequests = b.MinRequests
	}
	if b.FailureRatio > 0 {
		settings.FailureRatio = b.FailureRatio
	}
	if b.IntervalSec > 0 {
		settings.Interval = time.Duration(b.IntervalSec) * time.Second
	}
	if b.TimeoutSec > 0 {
		settings.Timeout = time.Duration(b.TimeoutSec) * time.Second
	}
	return generationuc.NewBreakerGenerator(instrumented, settings, logger)
}

func buildCacheStore(cfg config.Config, store db.Store, logger *zap.Logger) semcacheuc.Store {
	if cfg.Cache.Backend == "memory" {
		return semstore.NewMemory()
	}
	return semstore.NewRedis(store, time.Duration(cfg.Cache.TTLSec)*time.Second, logger)
}

func buildInFlight(cfg config.Config, store db.Store) warmup.InFlight {
	if cfg.Warmup.InFlight == "memory" {
		return inflight.NewMemory()
	}
	return inflight.NewRedis(store, time.Duration(cfg.Warmup.InFlightTTLSec)*time.Second)
}
