// Package vector persists (vector, document, metadata) records and answers
// nearest-neighbour queries over them.
package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/percept-cloud/mmindex/internal/db"
	"github.com/percept-cloud/mmindex/internal/domain"
	"github.com/percept-cloud/mmindex/internal/metrics"
)

// Hash field names of a stored vector record.
const (
	fieldVector   = "vector"
	fieldDocument = "document"
	fieldMeta     = "meta"
)

// imageRefMaxLen bounds the image reference echoed into the placeholder
// document text. Display-only; never parsed back.
const imageRefMaxLen = 50

// metaFieldPrefix prefixes flattened metadata hash fields indexed as TAG.
const metaFieldPrefix = "m_"

// store is the consumer interface for vector record storage (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config holds vector repository settings.
type Config struct {
	KeyPrefix        string
	Dimensions       int
	HNSWM            int
	HNSWEFConstruct  int
	FilterableFields []string
}

// Repo stores vector records in Redis hashes behind an FT HNSW cosine index.
type Repo struct {
	store      store
	keyPrefix  string
	indexName  string
	dim        int
	hnswM      int
	hnswEF     int
	filterable map[string]bool
	logger     *zap.Logger
}

// New creates a vector repository.
func New(s store, cfg Config, logger *zap.Logger) *Repo {
	filterable := make(map[string]bool, len(cfg.FilterableFields))
	for _, f := range cfg.FilterableFields {
		filterable[f] = true
	}
	return &Repo{
		store:      s,
		keyPrefix:  cfg.KeyPrefix + "vec:",
		indexName:  cfg.KeyPrefix + "vec:idx",
		dim:        cfg.Dimensions,
		hnswM:      cfg.HNSWM,
		hnswEF:     cfg.HNSWEFConstruct,
		filterable: filterable,
		logger:     logger,
	}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("%w: check index: %w", domain.ErrStore, err)
	}
	if exists {
		return nil
	}

	b := db.NewIndex(r.indexName).
		Prefix(r.keyPrefix).
		VectorHNSW(fieldVector, r.dim, db.DistanceCosine, r.hnswM, r.hnswEF)
	for f := range r.filterable {
		b = b.Tag(metaFieldPrefix + f)
	}
	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("%w: build index definition: %w", domain.ErrStore, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("%w: create index: %w", domain.ErrStore, err)
	}
	r.logger.Info("Vector index created", zap.String("index", r.indexName), zap.Int("dim", r.dim))
	return nil
}

// Add persists a single vector record and returns its generated identifier.
func (r *Repo) Add(
	ctx context.Context, vector []float32, text, imageRef string, metadata map[string]any,
) (string, error) {
	id := uuid.NewString()

	meta := copyMeta(metadata)
	meta[domain.MetaHasText] = text != ""
	meta[domain.MetaHasImage] = imageRef != ""

	fields, err := r.recordFields(vector, buildDocument(text, imageRef), meta)
	if err != nil {
		return "", err
	}

	if err := r.store.HSet(ctx, r.key(id), fields); err != nil {
		return "", fmt.Errorf("%w: add vector: %w", domain.ErrStore, err)
	}

	metrics.IngestedVectorsTotal.Inc()
	r.logger.Debug("Vector record stored", zap.String("id", id))
	return id, nil
}

// AddMany persists all vectors of all entities in one bulk pipeline.
// The outer result has one id list per entity, in input order, with one id
// per vector supplied for that entity. Every record of an entity shares an
// entity_id and carries its 0-based vector_index. Entities with zero vectors
// yield empty id lists.
func (r *Repo) AddMany(
	ctx context.Context,
	embeddingsPerEntity [][][]float32,
	texts []string,
	imageRefs []string,
	metadatas []map[string]any,
) ([][]string, error) {
	ids := make([][]string, len(embeddingsPerEntity))
	var items []db.HashSetItem

	for i, vectors := range embeddingsPerEntity {
		ids[i] = []string{}
		if len(vectors) == 0 {
			continue
		}

		var text, imageRef string
		if i < len(texts) {
			text = texts[i]
		}
		if i < len(imageRefs) {
			imageRef = imageRefs[i]
		}
		var metadata map[string]any
		if i < len(metadatas) {
			metadata = metadatas[i]
		}

		entityID := uuid.NewString()
		document := buildDocument(text, imageRef)

		for vecIdx, vec := range vectors {
			meta := copyMeta(metadata)
			meta[domain.MetaHasText] = text != ""
			meta[domain.MetaHasImage] = imageRef != ""
			meta[domain.MetaEntityID] = entityID
			meta[domain.MetaVectorIndex] = vecIdx

			fields, err := r.recordFields(vec, document, meta)
			if err != nil {
				return nil, err
			}

			id := uuid.NewString()
			ids[i] = append(ids[i], id)
			items = append(items, db.HashSetItem{Key: r.key(id), Fields: fields})
		}
	}

	if len(items) > 0 {
		if err := r.store.HSetMulti(ctx, items); err != nil {
			return nil, fmt.Errorf("%w: add vectors: %w", domain.ErrStore, err)
		}
		metrics.IngestedVectorsTotal.Add(float64(len(items)))
		r.logger.Info("Vector records stored",
			zap.Int("records", len(items)),
			zap.Int("entities", len(embeddingsPerEntity)),
		)
	}

	return ids, nil
}

// Search returns up to topK records nearest to the query vector, ordered by
// descending similarity (1 - cosine distance, rounded to 4 decimal places).
// filterMetadata restricts candidates to records whose metadata matches every
// given key/value pair: keys declared filterable are pushed down to the
// engine as TAG pre-filters, the rest are applied over the fetched page.
func (r *Repo) Search(
	ctx context.Context, queryVector []float32, topK int, filterMetadata map[string]any,
) ([]domain.SearchResult, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       queryVector,
		K:            topK,
		ReturnFields: []string{fieldDocument, fieldMeta},
	}

	postFilter := make(map[string]string)
	for k, v := range filterMetadata {
		if r.filterable[k] {
			q.Filters = append(q.Filters, db.TagMatch{Field: metaFieldPrefix + k, Value: metaString(v)})
		} else {
			postFilter[k] = metaString(v)
		}
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search knn: %w", domain.ErrStore, err)
	}

	results := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		meta := parseMeta(entry.Fields[fieldMeta])
		if !matchesAll(meta, postFilter) {
			continue
		}
		results = append(results, domain.SearchResult{
			ID:       r.id(entry.Key),
			Score:    round4(1 - entry.Distance),
			Metadata: meta,
			Document: entry.Fields[fieldDocument],
		})
	}

	return results, nil
}

// Delete removes the given identifiers in one pipeline. Missing ids are not
// an error; the returned count is the number of ids requested, not the
// number actually present. Empty input returns 0 without touching the store.
func (r *Repo) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("%w: delete vectors: %w", domain.ErrStore, err)
	}

	r.logger.Info("Vector records deleted", zap.Int("requested", len(ids)))
	return len(ids), nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}

func (r *Repo) id(key string) string {
	if len(key) > len(r.keyPrefix) && key[:len(r.keyPrefix)] == r.keyPrefix {
		return key[len(r.keyPrefix):]
	}
	return key
}

// recordFields builds the hash fields of one record: the binary vector, the
// document text, the metadata JSON, and flattened TAG fields for the
// filterable metadata keys.
func (r *Repo) recordFields(vec []float32, document string, meta map[string]any) (map[string]string, error) {
	if r.dim > 0 && len(vec) != r.dim {
		return nil, fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			domain.ErrStore, len(vec), r.dim)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal metadata: %w", domain.ErrStore, err)
	}

	fields := map[string]string{
		fieldVector:   vectorToBytes(vec),
		fieldDocument: document,
		fieldMeta:     string(metaJSON),
	}
	for k, v := range meta {
		if r.filterable[k] {
			fields[metaFieldPrefix+k] = metaString(v)
		}
	}
	return fields, nil
}

// buildDocument derives the stored document text: the original text, or a
// truncated display string referencing the image, or "N/A".
func buildDocument(text, imageRef string) string {
	if text != "" {
		return text
	}
	if imageRef != "" {
		return "Image: " + truncate(imageRef, imageRefMaxLen)
	}
	return "Image: N/A"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func copyMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func parseMeta(s string) map[string]any {
	if s == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// metaString renders a metadata scalar in the canonical form used both when
// flattening record fields and when comparing filters.
func metaString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

func matchesAll(meta map[string]any, filters map[string]string) bool {
	for k, want := range filters {
		got, ok := meta[k]
		if !ok || metaString(got) != want {
			return false
		}
	}
	return true
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
