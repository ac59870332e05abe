// Package embedding batches heterogeneous text/image items into as few model
// calls as possible and scatters the vectors back to their item positions.
package embedding

import (
	"context"
	"fmt"

	"github.com/percept-cloud/mmindex/internal/domain"
	"github.com/percept-cloud/mmindex/internal/imaging"
)

// Item is one logical input to embed: text, image, or both.
type Item struct {
	Text  string
	Image *imaging.Image
}

// HasModality reports whether the item carries at least one input.
func (it Item) HasModality() bool {
	return it.Text != "" || it.Image != nil
}

// Gateway converts texts and images into unit-normalized vectors.
type Gateway struct {
	model ModelClient
}

// NewGateway creates an embedding gateway.
func NewGateway(model ModelClient) *Gateway {
	return &Gateway{model: model}
}

// EmbedText embeds a single non-empty text.
func (g *Gateway) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", domain.ErrValidation)
	}

	vectors, err := g.model.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", domain.ErrEmbedding, len(vectors))
	}

	return domain.Normalize(vectors[0]), nil
}

// EmbedImage embeds a single decoded image.
func (g *Gateway) EmbedImage(ctx context.Context, img imaging.Image) ([]float32, error) {
	vectors, err := g.model.EmbedImages(ctx, []imaging.Image{img})
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", domain.ErrEmbedding, len(vectors))
	}

	return domain.Normalize(vectors[0]), nil
}

// EmbedOne produces one vector per present modality, text first.
// Fails with a validation error when neither modality is present.
func (g *Gateway) EmbedOne(ctx context.Context, text string, img *imaging.Image) ([][]float32, error) {
	perItem, err := g.EmbedBatch(ctx, []Item{{Text: text, Image: img}})
	if err != nil {
		return nil, err
	}
	return perItem[0], nil
}

// EmbedBatch embeds all items with one model call per modality: every text
// across the batch goes into a single call, every image into another, and the
// vectors are scattered back to their original item positions. The outer
// result has one entry per item, in input order; each inner list holds the
// item's text vector (if any) followed by its image vector (if any).
//
// An item with neither text nor image fails the whole call. Callers needing
// per-item fault isolation must pre-filter invalid items.
func (g *Gateway) EmbedBatch(ctx context.Context, items []Item) ([][][]float32, error) {
	var (
		textIdx, imageIdx []int
		texts             []string
		images            []imaging.Image
	)

	for i, it := range items {
		if !it.HasModality() {
			return nil, fmt.Errorf("%w: item %d: either text or image must be provided",
				domain.ErrValidation, i)
		}
		if it.Text != "" {
			textIdx = append(textIdx, i)
			texts = append(texts, it.Text)
		}
		if it.Image != nil {
			imageIdx = append(imageIdx, i)
			images = append(images, *it.Image)
		}
	}

	textVecs := make(map[int][]float32, len(texts))
	if len(texts) > 0 {
		vectors, err := g.model.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed texts: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: expected %d text vectors, got %d",
				domain.ErrEmbedding, len(texts), len(vectors))
		}
		for pos, i := range textIdx {
			textVecs[i] = domain.Normalize(vectors[pos])
		}
	}

	imageVecs := make(map[int][]float32, len(images))
	if len(images) > 0 {
		vectors, err := g.model.EmbedImages(ctx, images)
		if err != nil {
			return nil, fmt.Errorf("embed images: %w", err)
		}
		if len(vectors) != len(images) {
			return nil, fmt.Errorf("%w: expected %d image vectors, got %d",
				domain.ErrEmbedding, len(images), len(vectors))
		}
		for pos, i := range imageIdx {
			imageVecs[i] = domain.Normalize(vectors[pos])
		}
	}

	perItem := make([][][]float32, len(items))
	for i := range items {
		var vectors [][]float32
		if v, ok := textVecs[i]; ok {
			vectors = append(vectors, v)
		}
		if v, ok := imageVecs[i]; ok {
			vectors = append(vectors, v)
		}
		perItem[i] = vectors
	}

	return perItem, nil
}
