package httpapi

import (
	"context"

	"github.com/percept-cloud/mmindex/internal/imaging"
	healthuc "github.com/percept-cloud/mmindex/internal/usecase/health"
	ingestuc "github.com/percept-cloud/mmindex/internal/usecase/ingest"
	searchuc "github.com/percept-cloud/mmindex/internal/usecase/search"
)

// IngestService runs single and batch ingestion.
type IngestService interface {
	Ingest(ctx context.Context, item ingestuc.Item) ([]string, string, error)
	BatchIngest(ctx context.Context, items []ingestuc.Item) ([]ingestuc.ItemResult, error)
}

// SearchService runs text and image similarity search.
type SearchService interface {
	SearchText(
		ctx context.Context, queryText string, topK int, filterMetadata map[string]any,
	) (*searchuc.Response, error)
	SearchImage(
		ctx context.Context, img imaging.Image, topK int, filterMetadata map[string]any,
	) (*searchuc.Response, error)
}

// Deleter removes stored records by identifier.
type Deleter interface {
	Delete(ctx context.Context, ids []string) (int, error)
}

// HealthService aggregates component health checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// ImageLoader resolves a query image reference into a decoded image.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (imaging.Image, error)
}
