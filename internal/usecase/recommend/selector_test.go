package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
)

type mockGenerator struct {
	text   string
	err    error
	calls  int
	prompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (domain.GenerationResult, error) {
	m.calls++
	m.prompt = prompt
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return domain.GenerationResult{Text: m.text, PromptTokens: 100, CompletionTokens: 20}, nil
}

func sim(v float64) *float64 { return &v }

func testCandidates() []recommendation.Candidate {
	return []recommendation.Candidate{
		{ID: "low", Title: "Low Book", FusedScore: 0.021},
		{ID: "high", Title: "High Book", FusedScore: 0.032, Similarity: sim(0.91)},
	}
}

func TestRecommend_NoCandidatesSkipsModel(t *testing.T) {
	gen := &mockGenerator{}
	s := NewSelector(gen, zap.NewNop())

	if got := s.Recommend(context.Background(), "dune", nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if gen.calls != 0 {
		t.Fatalf("expected no generation calls, got %d", gen.calls)
	}
}

func TestRecommend_AttachesProvenance(t *testing.T) {
	gen := &mockGenerator{text: `[{"id":"high","relevance":95,"rationale":"Exact match."},{"id":"low","relevance":40,"rationale":"Loose."}]`}
	s := NewSelector(gen, zap.NewNop())

	recs := s.Recommend(context.Background(), "dune", testCandidates())
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].ID != "high" || recs[0].FusedScore != 0.032 {
		t.Errorf("unexpected first recommendation: %+v", recs[0])
	}
	if recs[0].Similarity == nil || *recs[0].Similarity != 0.91 {
		t.Errorf("expected similarity 0.91, got %v", recs[0].Similarity)
	}
	if recs[1].Similarity != nil {
		t.Errorf("expected no similarity for lexical-only candidate, got %v", *recs[1].Similarity)
	}
}

func TestRecommend_PromptOrdersByFusedScore(t *testing.T) {
	gen := &mockGenerator{text: "[]"}
	s := NewSelector(gen, zap.NewNop())

	s.Recommend(context.Background(), "dune", testCandidates())

	hi := strings.Index(gen.prompt, "id: high")
	lo := strings.Index(gen.prompt, "id: low")
	if hi < 0 || lo < 0 || hi > lo {
		t.Fatalf("expected high-scored candidate first in prompt:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, `Search query: "dune"`) {
		t.Error("expected query text in prompt")
	}
}

func TestRecommend_DropsUnknownAndDuplicateIDs(t *testing.T) {
	gen := &mockGenerator{text: `[{"id":"ghost","relevance":99,"rationale":"?"},{"id":"low","relevance":60,"rationale":"a"},{"id":"low","relevance":10,"rationale":"b"}]`}
	s := NewSelector(gen, zap.NewNop())

	recs := s.Recommend(context.Background(), "dune", testCandidates())
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %+v", recs)
	}
	if recs[0].ID != "low" || recs[0].Relevance != 60 {
		t.Errorf("expected first occurrence of low, got %+v", recs[0])
	}
}

func TestRecommend_GenerationErrorYieldsEmpty(t *testing.T) {
	gen := &mockGenerator{err: errors.New("timeout")}
	s := NewSelector(gen, zap.NewNop())

	if got := s.Recommend(context.Background(), "dune", testCandidates()); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 call, got %d", gen.calls)
	}
}

func TestRecommend_MalformedResponseYieldsEmpty(t *testing.T) {
	gen := &mockGenerator{text: "Sure! Here are my picks: Dune."}
	s := NewSelector(gen, zap.NewNop())

	if got := s.Recommend(context.Background(), "dune", testCandidates()); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestRecommend_RecordsGenerationUsage(t *testing.T) {
	gen := &mockGenerator{text: "[]"}
	s := NewSelector(gen, zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	s.Recommend(ctx, "dune", testCandidates())

	if usage.GenerationTokens() != 120 {
		t.Errorf("expected 120 generation tokens, got %d", usage.GenerationTokens())
	}
}
