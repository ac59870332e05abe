package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/percept-cloud/mmindex/internal/db"
	"github.com/percept-cloud/mmindex/internal/imaging"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

// mockModel counts inner model calls and records inputs.
type mockModel struct {
	textVecs  [][]float32
	err       error
	gotTexts  []string
	gotImages int
	callCount int
}

func (m *mockModel) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	m.gotTexts = texts
	if m.err != nil {
		return nil, m.err
	}
	if m.textVecs != nil {
		return m.textVecs, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (m *mockModel) EmbedImages(_ context.Context, images []imaging.Image) ([][]float32, error) {
	m.callCount++
	m.gotImages = len(images)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(images))
	for i := range images {
		out[i] = []float32{0, float32(i)}
	}
	return out, nil
}

func newTestCachedModel(t *testing.T, inner *mockModel) (*CachedModel, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(inner, ms, "mmindex:", nil, zap.NewNop()), ms
}
