package embedding

import (
	"context"

	"github.com/percept-cloud/mmindex/internal/imaging"
)

// ModelClient is the embedding model contract. Both methods must produce
// vectors in the same shared vector space and preserve input order.
type ModelClient interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedImages(ctx context.Context, images []imaging.Image) ([][]float32, error)
}
