package httpapi

// ErrorCode identifies the error class in API error responses.
type ErrorCode string

const (
	// ErrorCodeBadRequest indicates a malformed request body.
	ErrorCodeBadRequest ErrorCode = "bad_request"
	// ErrorCodeValidationFailed indicates an incomplete or invalid request.
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	// ErrorCodeDecodeFailed indicates an image that could not be fetched or decoded.
	ErrorCodeDecodeFailed ErrorCode = "decode_failed"
	// ErrorCodeEmbeddingFailed indicates an embedding model failure.
	ErrorCodeEmbeddingFailed ErrorCode = "embedding_failed"
	// ErrorCodeStoreFailed indicates a vector store failure.
	ErrorCodeStoreFailed ErrorCode = "store_failed"
	// ErrorCodeUnauthorized indicates a missing or invalid API key.
	ErrorCodeUnauthorized ErrorCode = "unauthorized"
	// ErrorCodeInternalError indicates an unclassified server failure.
	ErrorCodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// IngestRequest ingests one item: text and/or an image (URL or base64,
// optionally data-URI-prefixed), with optional free-form metadata.
type IngestRequest struct {
	Text     string         `json:"text,omitempty"`
	Image    string         `json:"image,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IngestResponse returns one identifier per stored vector.
type IngestResponse struct {
	IDs     []string `json:"ids"`
	Message string   `json:"message"`
}

// BatchIngestRequest ingests several items in one call.
type BatchIngestRequest struct {
	Items []IngestRequest `json:"items"`
}

// BatchIngestItemResult reports the outcome for one batch item.
type BatchIngestItemResult struct {
	Index   int      `json:"index"`
	IDs     []string `json:"ids,omitempty"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
}

// BatchIngestResponse holds one result per submitted item, in input order.
type BatchIngestResponse struct {
	Results []BatchIngestItemResult `json:"results"`
}

// SearchRequest queries by text or image. When both are present the image
// query wins.
type SearchRequest struct {
	QueryText      string         `json:"query_text,omitempty"`
	QueryImage     string         `json:"query_image,omitempty"`
	TopK           *int           `json:"top_k,omitempty"`
	FilterMetadata map[string]any `json:"filter_metadata,omitempty"`
}

// SearchResultItem is one retrieved record.
type SearchResultItem struct {
	ID              string         `json:"id"`
	SimilarityScore float64        `json:"similarity_score"`
	Metadata        map[string]any `json:"metadata"`
	Document        string         `json:"document"`
}

// SearchResponse is an ordered result set plus the query modality used.
type SearchResponse struct {
	Results   []SearchResultItem `json:"results"`
	QueryType string             `json:"query_type"`
}

// DeleteRequest removes records by identifier.
type DeleteRequest struct {
	IDs []string `json:"ids"`
}

// DeleteResponse reports how many deletions were requested.
type DeleteResponse struct {
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message"`
}

// HealthResponse aggregates component health checks.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// RootResponse describes the API surface.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
