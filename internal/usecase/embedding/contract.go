package embedding

import (
	"context"
	"time"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// RecordStore is the storage contract for embedding records.
type RecordStore interface {
	Get(ctx context.Context, imageHash string) (domain.EmbeddingRecord, error)
	Put(ctx context.Context, rec *domain.EmbeddingRecord) error
	PutWithTTL(ctx context.Context, rec *domain.EmbeddingRecord, ttl time.Duration) error
}
