package product

import (
	"context"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Repository is the storage contract for product summaries.
type Repository interface {
	Upsert(ctx context.Context, p *domain.ProductSummary) (bool, error)
	Get(ctx context.Context, id string) (domain.ProductSummary, error)
	Delete(ctx context.Context, id string) error
}

// EmbeddingCreator resolves or creates embedding records for image bytes.
type EmbeddingCreator interface {
	GetOrCreate(ctx context.Context, imageBytes []byte, normalizedRef string) (domain.EmbeddingRecord, bool, error)
}
