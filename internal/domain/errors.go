package domain

import "errors"

var (
	// ErrValidation signals a malformed or incomplete request. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrDecode signals an image fetch or decode failure.
	ErrDecode = errors.New("image decode error")
	// ErrEmbedding signals an embedding model failure.
	ErrEmbedding = errors.New("embedding error")
	// ErrStore signals a vector store failure.
	ErrStore = errors.New("vector store error")
)
