package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/percept-cloud/mmindex/internal/domain"
	"github.com/percept-cloud/mmindex/internal/imaging"
	"github.com/percept-cloud/mmindex/internal/usecase/embedding"
)

// --- Mocks ---

type mockEmbedder struct {
	vectors   [][][]float32
	err       error
	gotItems  []embedding.Item
	callCount int
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, items []embedding.Item) ([][][]float32, error) {
	m.callCount++
	m.gotItems = items
	if m.err != nil {
		return nil, m.err
	}
	if m.vectors != nil {
		return m.vectors, nil
	}
	// One vector per present modality, text first.
	out := make([][][]float32, len(items))
	for i, it := range items {
		if it.Text != "" {
			out[i] = append(out[i], []float32{1, 0})
		}
		if it.Image != nil {
			out[i] = append(out[i], []float32{0, 1})
		}
	}
	return out, nil
}

type mockLoader struct {
	err     error
	failRef string // fail only for this reference; empty means m.err applies to all
	gotRefs []string
}

func (m *mockLoader) Load(_ context.Context, ref string) (imaging.Image, error) {
	m.gotRefs = append(m.gotRefs, ref)
	if m.err != nil && (m.failRef == "" || m.failRef == ref) {
		return imaging.Image{}, m.err
	}
	return imaging.Image{Data: []byte{0xFF}, Format: "png"}, nil
}

type mockRepo struct {
	ids          [][]string
	err          error
	gotVectors   [][][]float32
	gotTexts     []string
	gotRefs      []string
	gotMetadatas []map[string]any
	callCount    int
}

func (m *mockRepo) AddMany(
	_ context.Context,
	embeddingsPerEntity [][][]float32,
	texts []string,
	imageRefs []string,
	metadatas []map[string]any,
) ([][]string, error) {
	m.callCount++
	m.gotVectors = embeddingsPerEntity
	m.gotTexts = texts
	m.gotRefs = imageRefs
	m.gotMetadatas = metadatas
	if m.err != nil {
		return nil, m.err
	}
	if m.ids != nil {
		return m.ids, nil
	}
	out := make([][]string, len(embeddingsPerEntity))
	for i, vecs := range embeddingsPerEntity {
		out[i] = []string{}
		for range vecs {
			out[i] = append(out[i], "id")
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockEmbedder, *mockLoader, *mockRepo) {
	me := &mockEmbedder{}
	ml := &mockLoader{}
	mr := &mockRepo{}
	return New(me, ml, mr, zap.NewNop()), me, ml, mr
}

// --- Ingest ---

func TestIngest_TextOnly(t *testing.T) {
	svc, me, ml, mr := newTestService()

	ids, msg, err := svc.Ingest(context.Background(), Item{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %v", ids)
	}
	if msg != "Successfully ingested item" {
		t.Errorf("unexpected message: %q", msg)
	}
	if len(ml.gotRefs) != 0 {
		t.Error("loader must not be called without an image")
	}
	if me.callCount != 1 || mr.callCount != 1 {
		t.Errorf("unexpected call counts: embed=%d store=%d", me.callCount, mr.callCount)
	}
}

func TestIngest_TextAndImage(t *testing.T) {
	svc, me, _, mr := newTestService()

	ids, _, err := svc.Ingest(context.Background(),
		Item{Text: "caption", ImageRef: "https://example.com/a.png", Metadata: map[string]any{"k": "v"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids for two modalities, got %v", ids)
	}
	if len(me.gotItems) != 1 || me.gotItems[0].Image == nil {
		t.Error("decoded image not passed to embedder")
	}
	if len(mr.gotMetadatas) != 1 || mr.gotMetadatas[0]["k"] != "v" {
		t.Errorf("metadata not forwarded: %v", mr.gotMetadatas)
	}
}

func TestIngest_NoModality(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, _, err := svc.Ingest(context.Background(), Item{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIngest_DecodeFailureIsFatal(t *testing.T) {
	svc, me, ml, _ := newTestService()
	ml.err = errors.New("bad image data")

	_, _, err := svc.Ingest(context.Background(), Item{ImageRef: "not-base64"})
	if err == nil {
		t.Fatal("expected error")
	}
	if me.callCount != 0 {
		t.Error("embedder must not run after decode failure")
	}
}

func TestIngest_StoreFailureIsFatal(t *testing.T) {
	svc, _, _, mr := newTestService()
	mr.err = errors.New("store down")

	_, _, err := svc.Ingest(context.Background(), Item{Text: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- BatchIngest ---

func TestBatchIngest_IsolatesPerItemFailures(t *testing.T) {
	svc, me, ml, mr := newTestService()
	ml.err = errors.New("fetch failed")
	ml.failRef = "bad-url"

	items := []Item{
		{Text: "a"},
		{}, // neither modality
		{ImageRef: "bad-url"},
		{Text: "d"},
	}

	results, err := svc.BatchIngest(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if !results[0].Success || len(results[0].IDs) != 1 {
		t.Errorf("item 0 should succeed: %+v", results[0])
	}
	if results[1].Success || !strings.Contains(results[1].Message, "must be provided") {
		t.Errorf("item 1 should fail validation: %+v", results[1])
	}
	if results[2].Success || !strings.Contains(results[2].Message, "Error loading image") {
		t.Errorf("item 2 should fail decoding: %+v", results[2])
	}
	if !results[3].Success {
		t.Errorf("item 3 should succeed despite earlier failures: %+v", results[3])
	}

	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d reports index %d", i, r.Index)
		}
	}

	// Only the two valid items reach the combined calls.
	if len(me.gotItems) != 2 {
		t.Errorf("expected 2 items embedded, got %d", len(me.gotItems))
	}
	if len(mr.gotTexts) != 2 || mr.gotTexts[0] != "a" || mr.gotTexts[1] != "d" {
		t.Errorf("unexpected stored texts: %v", mr.gotTexts)
	}
}

func TestBatchIngest_EmptyInput(t *testing.T) {
	svc, me, _, mr := newTestService()

	results, err := svc.BatchIngest(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %v", results)
	}
	if me.callCount != 0 || mr.callCount != 0 {
		t.Error("no collaborator should be called for an empty batch")
	}
}

func TestBatchIngest_AllItemsInvalid(t *testing.T) {
	svc, me, _, mr := newTestService()

	results, err := svc.BatchIngest(context.Background(), []Item{{}, {}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Success {
			t.Errorf("expected failure: %+v", r)
		}
	}
	if me.callCount != 0 || mr.callCount != 0 {
		t.Error("combined calls must be skipped when nothing validated")
	}
}

func TestBatchIngest_CombinedEmbedFailureIsFatal(t *testing.T) {
	svc, me, _, mr := newTestService()
	me.err = errors.New("model unavailable")

	_, err := svc.BatchIngest(context.Background(), []Item{{Text: "a"}, {Text: "b"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if mr.callCount != 0 {
		t.Error("store must not run after embed failure")
	}
}

func TestBatchIngest_CombinedStoreFailureIsFatal(t *testing.T) {
	svc, _, _, mr := newTestService()
	mr.err = errors.New("pipeline refused")

	_, err := svc.BatchIngest(context.Background(), []Item{{Text: "a"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestBatchIngest_ScattersIDsByOriginalIndex(t *testing.T) {
	svc, _, ml, mr := newTestService()
	ml.err = errors.New("nope")
	ml.failRef = "broken"
	mr.ids = [][]string{{"id-a"}, {"id-c1", "id-c2"}}

	items := []Item{
		{Text: "a"},
		{ImageRef: "broken"},
		{Text: "c", ImageRef: "https://example.com/c.png"},
	}

	results, err := svc.BatchIngest(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := results[0].IDs; len(got) != 1 || got[0] != "id-a" {
		t.Errorf("item 0 ids: %v", got)
	}
	if results[1].IDs != nil {
		t.Errorf("failed item must have no ids: %v", results[1].IDs)
	}
	if got := results[2].IDs; len(got) != 2 || got[0] != "id-c1" {
		t.Errorf("item 2 ids: %v", got)
	}
}
