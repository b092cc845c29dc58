package domain

import "errors"

var (
	// ErrDimensionMismatch signals that vectors of unequal length were compared.
	// Always a data-integrity error, never retried.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrNoEmbedding signals that a product has no usable embedding yet.
	// Recoverable: the caller should trigger embedding creation first.
	ErrNoEmbedding = errors.New("no usable embedding")
	// ErrProviderFailure signals that the external vision/embedding call failed,
	// timed out, or returned malformed data. Recoverable by retry.
	ErrProviderFailure = errors.New("embedding provider failure")
	// ErrInvalidInput signals a request rejected before any computation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrParseFailure signals a model response that could not be parsed into
	// the expected attribute/score shape.
	ErrParseFailure = errors.New("model response parse failure")
	// ErrProductNotFound signals a missing product.
	ErrProductNotFound = errors.New("product not found")
)
