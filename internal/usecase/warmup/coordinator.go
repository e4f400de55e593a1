// Package warmup populates the semantic cache in the background after interactive misses.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/logger"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

// DefaultConcurrency is the number of warm-ups allowed to run at once.
const DefaultConcurrency = 4

// releaseTimeout bounds marker cleanup, which runs even after Close.
const releaseTimeout = 5 * time.Second

var errCached = errors.New("already cached")

// Options tunes the coordinator.
type Options struct {
	// Concurrency bounds running warm-ups; scheduled ones wait inside their goroutine.
	Concurrency int64
	// Timeout bounds one warm-up. Zero disables it.
	Timeout time.Duration
}

// Coordinator runs at most one warm-up per keyword at a time.
type Coordinator struct {
	inflight InFlight
	embedder domain.Embedder
	cache    Cache
	runner   Runner
	opts     Options
	sem      *semaphore.Weighted
	logger   *zap.Logger

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders wg.Add against Close; closed is set once Close has begun.
	mu     sync.Mutex
	closed bool
}

// New creates a warm-up coordinator. Call Close to stop outstanding work.
func New(
	inflight InFlight,
	embedder domain.Embedder,
	c Cache,
	runner Runner,
	opts Options,
	log *zap.Logger,
) *Coordinator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	base, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		inflight: inflight,
		embedder: embedder,
		cache:    c,
		runner:   runner,
		opts:     opts,
		sem:      semaphore.NewWeighted(opts.Concurrency),
		logger:   log.Named("warmup"),
		base:     base,
		cancel:   cancel,
	}
}

// TriggerWarmup schedules cache population for keyword and returns immediately.
// Blank keywords and keywords already being warmed are ignored.
func (c *Coordinator) TriggerWarmup(keyword string) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return
	}
	if c.base.Err() != nil {
		return
	}

	acquired, err := c.inflight.Acquire(c.base, keyword)
	if err != nil {
		metrics.WarmupsTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("Failed to mark warm-up in flight", zap.String("keyword", keyword), zap.Error(err))
		return
	}
	if !acquired {
		metrics.WarmupsTotal.WithLabelValues("deduplicated").Inc()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.release(keyword, c.logger.With(zap.String("keyword", keyword)))
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	metrics.WarmupsTotal.WithLabelValues("started").Inc()
	metrics.WarmupsInFlight.Inc()
	go c.run(keyword)
}

// Seed triggers a warm-up for each keyword.
func (c *Coordinator) Seed(keywords []string) {
	for _, k := range keywords {
		c.TriggerWarmup(k)
	}
}

// Close cancels outstanding warm-ups and waits for them to finish.
// Triggers racing with Close either finish before it returns or never start.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancel()
	c.mu.Unlock()
	c.wg.Wait()
}

// Wait blocks until every scheduled warm-up has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) run(keyword string) {
	log := c.logger.With(zap.String("keyword", keyword))
	start := time.Now()

	defer c.wg.Done()
	defer metrics.WarmupsInFlight.Dec()
	defer c.release(keyword, log)
	defer func() {
		if r := recover(); r != nil {
			metrics.WarmupsTotal.WithLabelValues("failed").Inc()
			log.Error("Warm-up panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	ctx := logger.ContextWithLogger(c.base, log)
	ctx, usage := domain.NewContextWithUsage(ctx)
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	err := c.execute(ctx, keyword)
	switch {
	case errors.Is(err, errCached):
		metrics.WarmupsTotal.WithLabelValues("cached").Inc()
		log.Debug("Warm-up skipped, answer already cached")
	case err != nil:
		metrics.WarmupsTotal.WithLabelValues("failed").Inc()
		log.Warn("Warm-up failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
	default:
		metrics.WarmupsTotal.WithLabelValues("completed").Inc()
		log.Info("Warm-up completed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Int64("embedding_tokens", usage.EmbeddingTokens()),
			zap.Int64("generation_tokens", usage.GenerationTokens()),
		)
	}
}

func (c *Coordinator) execute(ctx context.Context, keyword string) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for slot: %w", err)
	}
	defer c.sem.Release(1)

	res, err := c.embedder.Embed(ctx, keyword)
	if err != nil {
		return fmt.Errorf("embed keyword: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(res.TotalTokens)

	q, err := query.New(keyword, "", mode.Augmented, res.Embedding, true)
	if err != nil {
		return fmt.Errorf("build warm-up query: %w", err)
	}

	if _, ok := c.cache.Lookup(ctx, q); ok {
		return errCached
	}

	if _, err := c.runner.Search(ctx, page.New(0, page.DefaultSize), q); err != nil {
		return fmt.Errorf("run augmented search: %w", err)
	}
	return nil
}

func (c *Coordinator) release(keyword string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.base), releaseTimeout)
	defer cancel()
	if err := c.inflight.Release(ctx, keyword); err != nil {
		log.Warn("Failed to clear warm-up marker", zap.Error(err))
	}
}
