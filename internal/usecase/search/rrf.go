package search

import (
	"sort"

	"github.com/kailas-cloud/bookrag/internal/domain/search/result"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const DefaultRRFK = 60

// Fuse merges a lexical and a vector ranking with RRF using DefaultRRFK.
func Fuse(lexical, vector []result.RankedItem) result.Fused {
	return FuseK(DefaultRRFK, lexical, vector)
}

// FuseK merges ranked lists via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d) + 1) over every list containing d, rank zero-based.
// The first-seen record of a document is kept; a missing similarity is filled in
// from a later occurrence that carries one. Ties keep first-seen order.
func FuseK(k int, lists ...[]result.RankedItem) result.Fused {
	if k <= 0 {
		k = DefaultRRFK
	}

	type scored struct {
		item  result.RankedItem
		score float64
	}

	index := make(map[string]int)
	var merged []scored

	for _, list := range lists {
		for rank, it := range list {
			s := 1.0 / float64(k+rank+1)

			i, ok := index[it.ID()]
			if !ok {
				index[it.ID()] = len(merged)
				merged = append(merged, scored{item: it, score: s})
				continue
			}

			merged[i].score += s
			if _, has := merged[i].item.Similarity(); !has {
				if sim, ok := it.Similarity(); ok {
					merged[i].item = merged[i].item.WithSimilarity(sim)
				}
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].score > merged[j].score
	})

	items := make([]result.RankedItem, len(merged))
	for i, m := range merged {
		items[i] = m.item.WithFusedScore(m.score)
	}

	return result.Fused{Items: items, Total: len(items)}
}
