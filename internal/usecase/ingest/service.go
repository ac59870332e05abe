// Package ingest drives the embed-then-store pipeline for single items and
// batches, isolating per-item validation and decode failures within a batch.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/percept-cloud/mmindex/internal/domain"
	"github.com/percept-cloud/mmindex/internal/imaging"
	"github.com/percept-cloud/mmindex/internal/usecase/embedding"
)

const (
	msgIngested        = "Successfully ingested item"
	msgMissingModality = "At least one of 'text' or 'image' must be provided"
)

// Item is one ingestion input: text and/or an image reference, with optional
// free-form metadata.
type Item struct {
	Text     string
	ImageRef string
	Metadata map[string]any
}

// ItemResult reports the outcome for one batch item at its original index.
type ItemResult struct {
	Index   int
	IDs     []string
	Success bool
	Message string
}

// Service orchestrates ingestion.
type Service struct {
	embedder Embedder
	loader   ImageLoader
	repo     Repository
	logger   *zap.Logger
}

// New creates an ingest service.
func New(embedder Embedder, loader ImageLoader, repo Repository, logger *zap.Logger) *Service {
	return &Service{
		embedder: embedder,
		loader:   loader,
		repo:     repo,
		logger:   logger,
	}
}

// Ingest embeds and stores a single item, returning one identifier per
// produced vector. Embedding and storage failures are fatal for the request.
func (s *Service) Ingest(ctx context.Context, item Item) ([]string, string, error) {
	if item.Text == "" && item.ImageRef == "" {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrValidation, msgMissingModality)
	}

	var img *imaging.Image
	if item.ImageRef != "" {
		loaded, err := s.loader.Load(ctx, item.ImageRef)
		if err != nil {
			return nil, "", fmt.Errorf("load image: %w", err)
		}
		img = &loaded
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []embedding.Item{{Text: item.Text, Image: img}})
	if err != nil {
		return nil, "", fmt.Errorf("embed item: %w", err)
	}

	nested, err := s.repo.AddMany(ctx,
		vectors,
		[]string{item.Text},
		[]string{item.ImageRef},
		[]map[string]any{item.Metadata},
	)
	if err != nil {
		return nil, "", fmt.Errorf("store vectors: %w", err)
	}

	ids := []string{}
	if len(nested) > 0 {
		ids = nested[0]
	}

	s.logger.Info("Item ingested",
		zap.Int("vectors", len(ids)),
		zap.Bool("has_text", item.Text != ""),
		zap.Bool("has_image", item.ImageRef != ""),
	)
	return ids, msgIngested, nil
}

// BatchIngest processes all items, recording one result per item at its
// original index. Items failing validation or image decoding are marked
// failed and excluded from the combined embed/store calls; they never abort
// their siblings. A failure of the combined calls themselves is fatal to the
// whole batch.
func (s *Service) BatchIngest(ctx context.Context, items []Item) ([]ItemResult, error) {
	results := make([]ItemResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	var (
		toEmbed   []embedding.Item
		texts     []string
		imageRefs []string
		metadatas []map[string]any
		batched   []int // original index per batched position
	)

	for idx, item := range items {
		results[idx] = ItemResult{Index: idx}

		if item.Text == "" && item.ImageRef == "" {
			results[idx].Message = msgMissingModality
			continue
		}

		var img *imaging.Image
		if item.ImageRef != "" {
			loaded, err := s.loader.Load(ctx, item.ImageRef)
			if err != nil {
				results[idx].Message = fmt.Sprintf("Error loading image: %v", err)
				s.logger.Warn("Batch item image load failed",
					zap.Int("index", idx), zap.Error(err))
				continue
			}
			img = &loaded
		}

		batched = append(batched, idx)
		toEmbed = append(toEmbed, embedding.Item{Text: item.Text, Image: img})
		texts = append(texts, item.Text)
		imageRefs = append(imageRefs, item.ImageRef)
		metadatas = append(metadatas, item.Metadata)
	}

	if len(toEmbed) == 0 {
		return results, nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, toEmbed)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}

	nested, err := s.repo.AddMany(ctx, vectors, texts, imageRefs, metadatas)
	if err != nil {
		return nil, fmt.Errorf("store batch: %w", err)
	}

	for pos, origIdx := range batched {
		if pos < len(nested) {
			results[origIdx].IDs = nested[pos]
		}
		results[origIdx].Success = true
		results[origIdx].Message = msgIngested
	}

	s.logger.Info("Batch ingested",
		zap.Int("items", len(items)),
		zap.Int("succeeded", len(batched)),
		zap.Int("failed", len(items)-len(batched)),
	)
	return results, nil
}
