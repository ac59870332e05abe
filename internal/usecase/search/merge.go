package search

import (
	"sort"

	"github.com/percept-cloud/mmindex/internal/domain"
)

// mergeRanked combines N ranked lists over the same candidate space into one.
// An identifier appearing in K lists gets the arithmetic mean of its K scores
// (absent lists contribute nothing, they are not zeros); metadata and document
// come from the first list the identifier appears in. The merged list is
// sorted by descending score, ties broken by first-appearance order, and
// truncated to topK. A single input list is returned unchanged.
func mergeRanked(lists [][]domain.SearchResult, topK int) []domain.SearchResult {
	if len(lists) == 0 {
		return []domain.SearchResult{}
	}
	if len(lists) == 1 {
		return lists[0]
	}

	type acc struct {
		first domain.SearchResult
		sum   float64
		n     int
	}

	var order []string
	byID := make(map[string]*acc)

	for _, list := range lists {
		for _, r := range list {
			a, ok := byID[r.ID]
			if !ok {
				a = &acc{first: r}
				byID[r.ID] = a
				order = append(order, r.ID)
			}
			a.sum += r.Score
			a.n++
		}
	}

	merged := make([]domain.SearchResult, 0, len(order))
	for _, id := range order {
		a := byID[id]
		r := a.first
		r.Score = a.sum / float64(a.n)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}
