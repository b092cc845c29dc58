package similarity

import (
	"context"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// ProductReader reads product summaries and pages the candidate pool.
type ProductReader interface {
	Get(ctx context.Context, id string) (domain.ProductSummary, error)
	ListCandidates(ctx context.Context, cursor string, limit int) ([]domain.ProductSummary, string, error)
}

// EmbeddingReader resolves usable embedding records by image hash.
type EmbeddingReader interface {
	Lookup(ctx context.Context, imageHash string) (domain.EmbeddingRecord, error)
}
