package warmup

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/metrics"
	"github.com/kailas-cloud/bookrag/internal/repository/inflight"
	semstore "github.com/kailas-cloud/bookrag/internal/repository/semcache"
	"github.com/kailas-cloud/bookrag/internal/usecase/recommend"
	"github.com/kailas-cloud/bookrag/internal/usecase/search"
	"github.com/kailas-cloud/bookrag/internal/usecase/semcache"
)

type fixture struct {
	inflight *mockInFlight
	emb      *mockEmbedder
	cache    *mockCache
	runner   *mockRunner
	coord    *Coordinator
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		inflight: newMockInFlight(),
		emb:      &mockEmbedder{vector: []float32{0.6, 0.8}},
		cache:    &mockCache{},
		runner:   &mockRunner{},
	}
	f.coord = New(f.inflight, f.emb, f.cache, f.runner, opts, zap.NewNop())
	return f
}

func TestTriggerWarmup_RunsWarmupQuery(t *testing.T) {
	f := newFixture(Options{})
	defer f.coord.Close()

	f.coord.TriggerWarmup("  dune ")
	f.coord.Wait()

	calls := f.runner.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 run, got %d", len(calls))
	}
	q := calls[0]
	if q.Keyword() != "dune" || q.Mode() != mode.Augmented || !q.IsWarmup() || !q.HasVector() {
		t.Errorf("unexpected warm-up query: keyword=%q mode=%q warmup=%v vector=%v",
			q.Keyword(), q.Mode(), q.IsWarmup(), q.Vector())
	}
	if f.inflight.isHeld("dune") {
		t.Error("expected marker released")
	}
}

func TestTriggerWarmup_BlankKeyword(t *testing.T) {
	f := newFixture(Options{})
	defer f.coord.Close()

	f.coord.TriggerWarmup("   ")
	f.coord.Wait()

	if len(f.runner.calls()) != 0 || f.emb.calls != 0 {
		t.Error("expected blank keyword to be ignored")
	}
}

func TestTriggerWarmup_Deduplicates(t *testing.T) {
	f := newFixture(Options{})
	defer f.coord.Close()
	f.runner.block = make(chan struct{})

	before := testutil.ToFloat64(metrics.WarmupsTotal.WithLabelValues("deduplicated"))

	f.coord.TriggerWarmup("dune")
	f.coord.TriggerWarmup("dune")
	close(f.runner.block)
	f.coord.Wait()

	if n := len(f.runner.calls()); n > 1 {
		t.Errorf("expected at most one run, got %d", n)
	}
	if got := testutil.ToFloat64(metrics.WarmupsTotal.WithLabelValues("deduplicated")) - before; got != 1 {
		t.Errorf("expected one deduplicated trigger, got %v", got)
	}
}

func TestTriggerWarmup_CacheHitStops(t *testing.T) {
	f := newFixture(Options{})
	defer f.coord.Close()
	f.cache.hit = true

	f.coord.TriggerWarmup("dune")
	f.coord.Wait()

	if len(f.runner.calls()) != 0 {
		t.Error("expected no run on cache hit")
	}
	if f.inflight.isHeld("dune") {
		t.Error("expected marker released")
	}
}

func TestTriggerWarmup_FailuresReleaseMarker(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"embedding error", func(f *fixture) { f.emb.err = errBoom }},
		{"runner error", func(f *fixture) { f.runner.err = errBoom }},
		{"runner panic", func(f *fixture) { f.runner.panics = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(Options{})
			defer f.coord.Close()
			tc.setup(f)

			f.coord.TriggerWarmup("dune")
			f.coord.Wait()

			if f.inflight.isHeld("dune") {
				t.Fatal("expected marker released after failure")
			}

			// a later trigger may run again
			f.emb.err, f.runner.err, f.runner.panics = nil, nil, false
			f.coord.TriggerWarmup("dune")
			f.coord.Wait()
			if len(f.runner.calls()) == 0 {
				t.Error("expected retry to run")
			}
		})
	}
}

func TestTriggerWarmup_AcquireError(t *testing.T) {
	f := newFixture(Options{})
	defer f.coord.Close()
	f.inflight.acquireErr = errBoom

	f.coord.TriggerWarmup("dune")
	f.coord.Wait()

	if len(f.runner.calls()) != 0 {
		t.Error("expected no run without a marker")
	}
}

func TestTriggerWarmup_Timeout(t *testing.T) {
	f := newFixture(Options{Timeout: 20 * time.Millisecond})
	defer f.coord.Close()
	f.runner.block = make(chan struct{})

	f.coord.TriggerWarmup("dune")
	f.coord.Wait()

	if f.inflight.isHeld("dune") {
		t.Error("expected marker released after timeout")
	}
}

func TestClose_CancelsAndIgnoresLaterTriggers(t *testing.T) {
	f := newFixture(Options{})
	f.runner.block = make(chan struct{})

	f.coord.TriggerWarmup("dune")
	f.coord.Close()

	if f.inflight.isHeld("dune") {
		t.Error("expected marker released on close")
	}

	f.coord.TriggerWarmup("emma")
	f.coord.Wait()
	for _, q := range f.runner.calls() {
		if q.Keyword() == "emma" {
			t.Error("expected trigger after close to be ignored")
		}
	}
}

func TestClose_RacingTriggersNeverOutliveShutdown(t *testing.T) {
	f := newFixture(Options{Concurrency: 2})

	var triggers sync.WaitGroup
	start := make(chan struct{})
	for i := range 64 {
		triggers.Add(1)
		go func() {
			defer triggers.Done()
			<-start
			f.coord.TriggerWarmup(fmt.Sprintf("book-%d", i))
		}()
	}

	close(start)
	f.coord.Close()
	ranAtClose := len(f.runner.calls())

	triggers.Wait()
	f.coord.Wait()

	if got := len(f.runner.calls()); got != ranAtClose {
		t.Errorf("expected no warm-up to start after Close, runs went %d -> %d", ranAtClose, got)
	}
	if n := f.inflight.heldCount(); n != 0 {
		t.Errorf("expected every marker released, %d still held", n)
	}
}

func TestSeed(t *testing.T) {
	f := newFixture(Options{Concurrency: 1})
	defer f.coord.Close()

	f.coord.Seed([]string{"dune", "emma", "", "dune"})
	f.coord.Wait()

	seen := map[string]int{}
	for _, q := range f.runner.calls() {
		seen[q.Keyword()]++
	}
	if seen["dune"] < 1 || seen["emma"] != 1 || len(seen) != 2 {
		t.Errorf("unexpected seeded runs: %v", seen)
	}
}

// newPipeline wires the real augmented strategy, semantic cache and selector.
func newPipeline(gen *countingGenerator) (*Coordinator, *search.Augmented) {
	logger := zap.NewNop()
	emb := &mockEmbedder{vector: []float32{0.6, 0.8}}
	repo := newCatalog(10)

	hybrid := search.NewHybrid(search.NewLexical(repo, false), search.NewVector(repo, emb, logger))
	cache := semcache.New(semstore.NewMemory(), semcache.Options{}, logger)
	augmented := search.NewAugmented(hybrid, cache, recommend.DefaultPolicy(), recommend.NewSelector(gen, logger), logger)

	coord := New(inflight.NewMemory(), emb, cache, augmented, Options{}, logger)
	augmented.WithWarmup(coord)
	return coord, augmented
}

func TestPipeline_ConcurrentTriggersGenerateOnce(t *testing.T) {
	gen := &countingGenerator{gate: make(chan struct{})}
	coord, _ := newPipeline(gen)
	defer coord.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			coord.TriggerWarmup("dune")
		}()
	}
	wg.Wait()
	close(gen.gate)
	coord.Wait()

	if gen.count() != 1 {
		t.Errorf("expected exactly one generation, got %d", gen.count())
	}
}

func TestPipeline_InteractiveMissThenCachedHit(t *testing.T) {
	gen := &countingGenerator{}
	coord, augmented := newPipeline(gen)
	defer coord.Close()
	ctx := context.Background()

	q, err := newInteractiveQuery("dune")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := augmented.Search(ctx, pageOne(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached || len(first.Recommendations) != 0 {
		t.Fatalf("expected plain hybrid result on first request, got %+v", first)
	}

	coord.Wait()
	if gen.count() != 1 {
		t.Fatalf("expected warm-up to generate once, got %d", gen.count())
	}

	second, err := augmented.Search(ctx, pageOne(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached || len(second.Recommendations) != 1 || second.Recommendations[0].ID != "b0" {
		t.Errorf("expected cached recommendations, got %+v", second)
	}
	if gen.count() != 1 {
		t.Errorf("expected no further generation, got %d", gen.count())
	}
}
