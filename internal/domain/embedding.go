package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "trendcast:"

// ImageEmbedder is the shared image vectorization contract between layers.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, image []byte) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingRecord is a content-addressed stored embedding. Identity is
// ImageHash: two byte-identical images always resolve to the same record.
// Records are never mutated after creation except to repair a previously
// failed (degraded) vector.
type EmbeddingRecord struct {
	ImageHash          string
	Vector             []float32
	NormalizedImageRef string
	Degraded           bool
	CreatedAt          time.Time
}

// Usable reports whether the record may participate in similarity ranking.
// Degraded sentinel records are excluded, never zero-scored into results.
func (r *EmbeddingRecord) Usable() bool {
	return !r.Degraded && len(r.Vector) > 0
}

// HashImage returns the content digest of raw image bytes as lowercase hex.
// It is a pure function of the exact byte sequence.
func HashImage(image []byte) string {
	h := sha256.Sum256(image)
	return hex.EncodeToString(h[:])
}
