// Package httpapi exposes ingestion, search, deletion, and health endpoints
// over chi.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/percept-cloud/mmindex/internal/domain"
	healthuc "github.com/percept-cloud/mmindex/internal/usecase/health"
	ingestuc "github.com/percept-cloud/mmindex/internal/usecase/ingest"
	searchuc "github.com/percept-cloud/mmindex/internal/usecase/search"
	"github.com/percept-cloud/mmindex/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Limits bounds request parameters.
type Limits struct {
	DefaultTopK  int
	MaxTopK      int
	MaxBatchSize int
}

// Server handles the HTTP API.
type Server struct {
	ingest        IngestService
	search        SearchService
	deleter       Deleter
	health        HealthService
	loader        ImageLoader
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest IngestService,
	search SearchService,
	deleter Deleter,
	health HealthService,
	loader ImageLoader,
	limits Limits,
	logger *zap.Logger,
) *Server {
	if limits.DefaultTopK <= 0 {
		limits.DefaultTopK = 10
	}
	if limits.MaxTopK <= 0 {
		limits.MaxTopK = 100
	}
	s := &Server{
		ingest:  ingest,
		search:  search,
		deleter: deleter,
		health:  health,
		loader:  loader,
		limits:  limits,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrDecode, http.StatusBadRequest, ErrorCodeDecodeFailed),
		sentinelHandler(domain.ErrEmbedding, http.StatusInternalServerError, ErrorCodeEmbeddingFailed),
		sentinelHandler(domain.ErrStore, http.StatusInternalServerError, ErrorCodeStoreFailed),
	}
	return s
}

// Register mounts all API routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/ingest", s.handleIngest)
	r.Post("/ingest/batch", s.handleBatchIngest)
	r.Post("/search", s.handleSearch)
	r.Delete("/items", s.handleDelete)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: "Multimodal Vector Search API",
		Version: version.Version,
		Endpoints: map[string]string{
			"POST /ingest":       "Ingest text and/or images",
			"POST /ingest/batch": "Batch ingest multiple items",
			"POST /search":       "Search for similar items",
			"DELETE /items":      "Delete items by id",
			"GET /health":        "Health check",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ids, msg, err := s.ingest.Ingest(r.Context(), ingestItemFromRequest(req))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, IngestResponse{IDs: ids, Message: msg})
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	var req BatchIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if s.limits.MaxBatchSize > 0 && len(req.Items) > s.limits.MaxBatchSize {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("batch exceeds maximum size of %d items", s.limits.MaxBatchSize))
		return
	}

	batch := make([]ingestuc.Item, 0, len(req.Items))
	for _, it := range req.Items {
		batch = append(batch, ingestItemFromRequest(it))
	}

	results, err := s.ingest.BatchIngest(r.Context(), batch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := make([]BatchIngestItemResult, len(results))
	for i, res := range results {
		out[i] = BatchIngestItemResult{
			Index:   res.Index,
			IDs:     res.IDs,
			Success: res.Success,
			Message: res.Message,
		}
	}
	writeJSON(w, http.StatusOK, BatchIngestResponse{Results: out})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK := s.limits.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	if topK < 1 || topK > s.limits.MaxTopK {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("top_k must be between 1 and %d", s.limits.MaxTopK))
		return
	}

	resp, err := s.runSearch(r, req, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, len(resp.Results))
	for i, res := range resp.Results {
		metadata := res.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		items[i] = SearchResultItem{
			ID:              res.ID,
			SimilarityScore: res.Score,
			Metadata:        metadata,
			Document:        res.Document,
		}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: items, QueryType: resp.QueryType})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.IDs) == 0 {
		writeJSON(w, http.StatusOK, DeleteResponse{DeletedCount: 0, Message: "No ids provided"})
		return
	}

	deleted, err := s.deleter.Delete(r.Context(), req.IDs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{
		DeletedCount: deleted,
		Message:      fmt.Sprintf("Requested deletion of %d ids", deleted),
	})
}

// runSearch dispatches to the image or text search path. An image query
// takes precedence when both are present.
func (s *Server) runSearch(r *http.Request, req SearchRequest, topK int) (*searchuc.Response, error) {
	if req.QueryImage != "" {
		img, err := s.loader.Load(r.Context(), req.QueryImage)
		if err != nil {
			return nil, fmt.Errorf("load query image: %w", err)
		}
		return s.search.SearchImage(r.Context(), img, topK, req.FilterMetadata)
	}
	return s.search.SearchText(r.Context(), req.QueryText, topK, req.FilterMetadata)
}

func ingestItemFromRequest(req IngestRequest) ingestuc.Item {
	return ingestuc.Item{
		Text:     req.Text,
		ImageRef: req.Image,
		Metadata: req.Metadata,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage keeps client-caused error details and hides server internals.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrDecode) {
		return err.Error()
	}
	sentinels := []error{domain.ErrEmbedding, domain.ErrStore}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
