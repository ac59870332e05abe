package ingest

import (
	"context"

	"github.com/percept-cloud/mmindex/internal/imaging"
	"github.com/percept-cloud/mmindex/internal/usecase/embedding"
)

// Embedder converts validated items into per-item vector lists.
type Embedder interface {
	EmbedBatch(ctx context.Context, items []embedding.Item) ([][][]float32, error)
}

// ImageLoader resolves an image reference (URL or base64) into a decoded image.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (imaging.Image, error)
}

// Repository persists embedded entities.
type Repository interface {
	AddMany(
		ctx context.Context,
		embeddingsPerEntity [][][]float32,
		texts []string,
		imageRefs []string,
		metadatas []map[string]any,
	) ([][]string, error)
}
