// Package embedding implements get-or-create semantics over the
// content-addressed embedding cache: at most one embedding computation per
// distinct image, coalesced across concurrent callers.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Service resolves or creates embedding records for raw image bytes.
type Service struct {
	records       RecordStore
	embedder      domain.ImageEmbedder
	group         singleflight.Group
	timeout       time.Duration
	allowDegraded bool
	cacheTotal    *prometheus.CounterVec
	logger        *zap.Logger
}

// New creates an embedding service. cacheTotal is a counter vec with label
// "result" ("hit"/"miss"); nil disables cache metrics.
func New(
	records RecordStore,
	embedder domain.ImageEmbedder,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Service {
	return &Service{
		records:    records,
		embedder:   embedder,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithTimeout bounds each provider call; past the deadline the call is
// treated as a provider failure, not an indefinite hang.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// WithDegradedFallback stores a flagged sentinel record when the provider
// fails. Such records are non-rankable and repaired on the next successful
// computation; the failure itself still surfaces to the caller.
func (s *Service) WithDegradedFallback() *Service {
	s.allowDegraded = true
	return s
}

// GetOrCreate resolves the record for imageBytes, computing and persisting it
// on first sight. cached reports whether an existing usable record was
// returned without a provider call. Byte-identical images always resolve to
// the same record.
func (s *Service) GetOrCreate(
	ctx context.Context, imageBytes []byte, normalizedRef string,
) (domain.EmbeddingRecord, bool, error) {
	if len(imageBytes) == 0 {
		return domain.EmbeddingRecord{}, false, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}

	hash := domain.HashImage(imageBytes)

	rec, err := s.records.Get(ctx, hash)
	if err == nil && rec.Usable() {
		s.incCache("hit")
		return rec, true, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNoEmbedding) {
		return domain.EmbeddingRecord{}, false, fmt.Errorf("lookup %s: %w", hash, err)
	}

	s.incCache("miss")

	// Coalesce concurrent computations for the same fingerprint: the second
	// caller waits for and reuses the first one's result.
	v, err, _ := s.group.Do(hash, func() (any, error) {
		// A coalesced waiter may arrive after the flight leader persisted.
		if existing, err := s.records.Get(ctx, hash); err == nil && existing.Usable() {
			return existing, nil
		}
		return s.compute(ctx, hash, imageBytes, normalizedRef)
	})
	if err != nil {
		return domain.EmbeddingRecord{}, false, err
	}

	return v.(domain.EmbeddingRecord), false, nil
}

// Lookup returns the stored record for an image hash without computing
// anything. Missing and degraded records both report domain.ErrNoEmbedding.
func (s *Service) Lookup(ctx context.Context, imageHash string) (domain.EmbeddingRecord, error) {
	rec, err := s.records.Get(ctx, imageHash)
	if err != nil {
		return domain.EmbeddingRecord{}, err
	}
	if !rec.Usable() {
		return domain.EmbeddingRecord{}, fmt.Errorf("%w: %s (degraded record)", domain.ErrNoEmbedding, imageHash)
	}
	return rec, nil
}

func (s *Service) compute(
	ctx context.Context, hash string, imageBytes []byte, normalizedRef string,
) (domain.EmbeddingRecord, error) {
	cctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.embedder.EmbedImage(cctx, imageBytes)
	if err != nil {
		if s.allowDegraded {
			s.storeDegraded(ctx, hash, normalizedRef)
		}
		return domain.EmbeddingRecord{}, fmt.Errorf("embed image %s: %w", hash, err)
	}

	if err := domain.ValidateVector(result.Embedding, 0); err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf(
			"%w: provider returned malformed vector for %s: %w", domain.ErrProviderFailure, hash, err)
	}

	rec := domain.EmbeddingRecord{
		ImageHash:          hash,
		Vector:             result.Embedding,
		NormalizedImageRef: normalizedRef,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.records.Put(ctx, &rec); err != nil {
		return domain.EmbeddingRecord{}, fmt.Errorf("persist record %s: %w", hash, err)
	}

	s.logger.Debug("Embedding record created",
		zap.String("image_hash", hash),
		zap.Int("dimensions", len(rec.Vector)),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return rec, nil
}

// degradedTTL bounds how long a failed-image sentinel lingers. Expiry makes
// the image eligible for a fresh computation even without read traffic to
// repair it.
const degradedTTL = time.Hour

// storeDegraded records a flagged sentinel so the corpus remembers the failed
// image without fabricating a similarity-bearing vector. The record is
// repaired in place on the next successful computation, or expires.
func (s *Service) storeDegraded(ctx context.Context, hash, normalizedRef string) {
	rec := domain.EmbeddingRecord{
		ImageHash:          hash,
		NormalizedImageRef: normalizedRef,
		Degraded:           true,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.records.PutWithTTL(ctx, &rec, degradedTTL); err != nil {
		s.logger.Warn("Failed to store degraded record",
			zap.String("image_hash", hash), zap.Error(err))
	}
}

func (s *Service) incCache(result string) {
	if s.cacheTotal != nil {
		s.cacheTotal.WithLabelValues(result).Inc()
	}
}
