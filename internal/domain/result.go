package domain

// SearchResult is one ranked hit from a vector similarity search.
// Score is a similarity (higher = more similar): 1 - cosine distance rounded
// to 4 decimal places when sourced from the store, or an averaged score when
// produced by a rank merge.
type SearchResult struct {
	ID       string
	Score    float64
	Metadata map[string]any
	Document string
}
