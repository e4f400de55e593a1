package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// Lexical matches keyword and isbn filters against catalog text fields.
type Lexical struct {
	repo     Retriever
	fullText bool
	now      func() time.Time
}

// NewLexical creates the lexical strategy.
// fullText adds the description full-text predicate to keyword matching.
func NewLexical(repo Retriever, fullText bool) *Lexical {
	return &Lexical{repo: repo, fullText: fullText, now: time.Now}
}

// Mode implements Strategy.
func (s *Lexical) Mode() mode.Mode { return mode.Lexical }

// Search implements Strategy.
func (s *Lexical) Search(ctx context.Context, p page.Page, q query.Query) (result.Outcome, error) {
	res, err := s.retrieve(ctx, p, q)
	if err != nil {
		return result.Outcome{}, err
	}
	return result.Outcome{Items: res.Items, Total: res.Total, CreatedAt: s.now()}, nil
}

// retrieve falls back to an unfiltered listing when neither keyword nor isbn is set.
func (s *Lexical) retrieve(ctx context.Context, p page.Page, q query.Query) (result.Page, error) {
	if !q.HasFilters() {
		res, err := s.repo.List(ctx, p)
		if err != nil {
			return result.Page{}, fmt.Errorf("list books: %w", err)
		}
		return res, nil
	}

	res, err := s.repo.LexicalSearch(ctx, p, LexicalFilter{
		Keyword:  q.Keyword(),
		ISBN:     q.ISBN(),
		FullText: s.fullText,
	})
	if err != nil {
		return result.Page{}, fmt.Errorf("lexical search: %w", err)
	}
	return res, nil
}
