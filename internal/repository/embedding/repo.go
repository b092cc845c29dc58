// Package embedding persists content-addressed embedding records keyed by
// image hash.
package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/db"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "emb:"

// store is the consumer interface for embedding records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Repo implements the record store over a key-value backend.
type Repo struct {
	store store
	dim   int // expected vector dimension, 0 = any
}

// New creates an embedding record repository. dim > 0 enforces a fixed
// vector dimension on every read.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// Get returns the record for an image hash. A missing record is reported as
// domain.ErrNoEmbedding so callers can branch into the creation path.
func (r *Repo) Get(ctx context.Context, imageHash string) (domain.EmbeddingRecord, error) {
	data, err := r.store.Get(ctx, recordKey(imageHash))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.EmbeddingRecord{}, fmt.Errorf("%w: %s", domain.ErrNoEmbedding, imageHash)
		}
		return domain.EmbeddingRecord{}, fmt.Errorf("get record %s: %w", imageHash, err)
	}

	var dto recordDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("unmarshal record %s: %w", imageHash, err)
	}
	return fromDTO(dto, r.dim)
}

// Put stores a record under its image hash. Overwriting an existing key only
// happens when a previously degraded record is repaired.
func (r *Repo) Put(ctx context.Context, rec *domain.EmbeddingRecord) error {
	if rec.ImageHash == "" {
		return fmt.Errorf("%w: record has no image hash", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(toDTO(rec))
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ImageHash, err)
	}
	if err := r.store.Set(ctx, recordKey(rec.ImageHash), data); err != nil {
		return fmt.Errorf("put record %s: %w", rec.ImageHash, err)
	}
	return nil
}

// PutWithTTL stores a record that expires after ttl. Used for degraded
// sentinels so a persistently failing image becomes retryable even without
// read traffic to repair it.
func (r *Repo) PutWithTTL(ctx context.Context, rec *domain.EmbeddingRecord, ttl time.Duration) error {
	if rec.ImageHash == "" {
		return fmt.Errorf("%w: record has no image hash", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(toDTO(rec))
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ImageHash, err)
	}
	if err := r.store.SetWithTTL(ctx, recordKey(rec.ImageHash), data, ttl); err != nil {
		return fmt.Errorf("put record %s: %w", rec.ImageHash, err)
	}
	return nil
}

func recordKey(imageHash string) string {
	return keyPrefix + imageHash
}
