package search

import (
	"context"

	"github.com/percept-cloud/mmindex/internal/domain"
	"github.com/percept-cloud/mmindex/internal/imaging"
)

// Embedder embeds queries into the shared vector space.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, img imaging.Image) ([]float32, error)
}

// Repository answers nearest-neighbour queries over stored records.
type Repository interface {
	Search(
		ctx context.Context, queryVector []float32, topK int, filterMetadata map[string]any,
	) ([]domain.SearchResult, error)
}
