package warmup

import (
	"github.com/kailas-cloud/bookrag/internal/domain/search/mode"
	"github.com/kailas-cloud/bookrag/internal/domain/search/page"
	"github.com/kailas-cloud/bookrag/internal/domain/search/query"
)

func newInteractiveQuery(keyword string) (query.Query, error) {
	return query.New(keyword, "", mode.Augmented, nil, false)
}

func pageOne() page.Page {
	return page.New(0, 5)
}
