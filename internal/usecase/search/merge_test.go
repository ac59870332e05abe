package search

import (
	"testing"

	"github.com/percept-cloud/mmindex/internal/domain"
)

func res(id string, score float64) domain.SearchResult {
	return domain.SearchResult{
		ID:       id,
		Score:    score,
		Metadata: map[string]any{"from": id},
		Document: "doc-" + id,
	}
}

func TestMergeRanked_MeanScore(t *testing.T) {
	listA := []domain.SearchResult{res("A", 0.9), res("B", 0.6)}
	listB := []domain.SearchResult{res("A", 0.7), res("C", 0.8)}

	merged := mergeRanked([][]domain.SearchResult{listA, listB}, 2)

	if len(merged) != 2 {
		t.Fatalf("expected 2 results, got %d", len(merged))
	}
	// A appears in both lists: (0.9+0.7)/2 = 0.8. C appears once: 0.8.
	// A was seen first, so the tie resolves in its favor.
	if merged[0].ID != "A" || merged[0].Score != 0.8 {
		t.Errorf("unexpected first result: %+v", merged[0])
	}
	if merged[1].ID != "C" || merged[1].Score != 0.8 {
		t.Errorf("unexpected second result: %+v", merged[1])
	}
}

func TestMergeRanked_AbsenceIsNotZero(t *testing.T) {
	// B appears only in the first list; its score must stay 0.6, not 0.3.
	listA := []domain.SearchResult{res("B", 0.6)}
	listB := []domain.SearchResult{res("C", 0.5)}

	merged := mergeRanked([][]domain.SearchResult{listA, listB}, 10)

	if len(merged) != 2 {
		t.Fatalf("expected 2 results, got %d", len(merged))
	}
	if merged[0].ID != "B" || merged[0].Score != 0.6 {
		t.Errorf("unexpected result: %+v", merged[0])
	}
}

func TestMergeRanked_InfoFromFirstList(t *testing.T) {
	listA := []domain.SearchResult{{ID: "X", Score: 0.5, Metadata: map[string]any{"src": "a"}, Document: "from-a"}}
	listB := []domain.SearchResult{{ID: "X", Score: 0.9, Metadata: map[string]any{"src": "b"}, Document: "from-b"}}

	merged := mergeRanked([][]domain.SearchResult{listA, listB}, 10)

	if len(merged) != 1 {
		t.Fatalf("expected 1 result, got %d", len(merged))
	}
	if merged[0].Metadata["src"] != "a" || merged[0].Document != "from-a" {
		t.Errorf("info must come from the first list: %+v", merged[0])
	}
	if merged[0].Score != 0.7 {
		t.Errorf("unexpected mean: %v", merged[0].Score)
	}
}

func TestMergeRanked_SingleListIdentity(t *testing.T) {
	list := []domain.SearchResult{res("A", 0.9), res("B", 0.6), res("C", 0.3)}

	merged := mergeRanked([][]domain.SearchResult{list}, 1)

	// Identity: returned unchanged, no truncation or recomputation.
	if len(merged) != 3 {
		t.Fatalf("expected identity, got %v", merged)
	}
	for i := range list {
		if merged[i].ID != list[i].ID || merged[i].Score != list[i].Score {
			t.Errorf("result %d changed: %+v", i, merged[i])
		}
	}
}

func TestMergeRanked_TruncatesToTopK(t *testing.T) {
	listA := []domain.SearchResult{res("A", 0.9), res("B", 0.8)}
	listB := []domain.SearchResult{res("C", 0.7), res("D", 0.6)}

	merged := mergeRanked([][]domain.SearchResult{listA, listB}, 3)

	if len(merged) != 3 {
		t.Fatalf("expected 3 results, got %d", len(merged))
	}
	if merged[0].ID != "A" || merged[2].ID != "C" {
		t.Errorf("unexpected order: %v", merged)
	}
}

func TestMergeRanked_NoLists(t *testing.T) {
	merged := mergeRanked(nil, 5)
	if merged == nil || len(merged) != 0 {
		t.Fatalf("expected empty slice, got %v", merged)
	}
}
