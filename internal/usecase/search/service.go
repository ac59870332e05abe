// Package search embeds queries and retrieves the nearest stored records.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/percept-cloud/mmindex/internal/domain"
	"github.com/percept-cloud/mmindex/internal/imaging"
)

// Query type labels reported alongside search results.
const (
	QueryTypeText  = "text"
	QueryTypeImage = "image"
)

// Response is an ordered result set with the query modality that produced it.
type Response struct {
	Results   []domain.SearchResult
	QueryType string
}

// Service orchestrates similarity search.
type Service struct {
	embedder Embedder
	repo     Repository
	logger   *zap.Logger
}

// New creates a search service.
func New(embedder Embedder, repo Repository, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, repo: repo, logger: logger}
}

// SearchText embeds a text query and returns the nearest records.
func (s *Service) SearchText(
	ctx context.Context, queryText string, topK int, filterMetadata map[string]any,
) (*Response, error) {
	if queryText == "" {
		return nil, fmt.Errorf("%w: query_text must be provided for text search", domain.ErrValidation)
	}

	vec, err := s.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query text: %w", err)
	}

	results, err := s.retrieve(ctx, [][]float32{vec}, topK, filterMetadata)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Text search completed",
		zap.Int("top_k", topK), zap.Int("results", len(results)))
	return &Response{Results: results, QueryType: QueryTypeText}, nil
}

// SearchImage embeds a decoded query image and returns the nearest records.
func (s *Service) SearchImage(
	ctx context.Context, img imaging.Image, topK int, filterMetadata map[string]any,
) (*Response, error) {
	vec, err := s.embedder.EmbedImage(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("embed query image: %w", err)
	}

	results, err := s.retrieve(ctx, [][]float32{vec}, topK, filterMetadata)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Image search completed",
		zap.Int("top_k", topK), zap.Int("results", len(results)))
	return &Response{Results: results, QueryType: QueryTypeImage}, nil
}

// retrieve runs one store query per query vector and merges the rankings.
func (s *Service) retrieve(
	ctx context.Context, queryVectors [][]float32, topK int, filterMetadata map[string]any,
) ([]domain.SearchResult, error) {
	lists := make([][]domain.SearchResult, 0, len(queryVectors))
	for _, vec := range queryVectors {
		results, err := s.repo.Search(ctx, vec, topK, filterMetadata)
		if err != nil {
			return nil, fmt.Errorf("search store: %w", err)
		}
		lists = append(lists, results)
	}
	return mergeRanked(lists, topK), nil
}
