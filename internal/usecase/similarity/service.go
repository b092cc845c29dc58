// Package similarity ranks corpus products against a query product by cosine
// similarity over their stored embeddings.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Search parameter limits.
const (
	DefaultLimit    = 10
	MaxLimit        = 100
	defaultPageSize = 200
)

// Service handles top-K similarity search with a paged linear scan: O(n*d)
// over the candidate pool, never materialized in full.
type Service struct {
	products     ProductReader
	embeddings   EmbeddingReader
	pageSize     int
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// New creates a similarity search service.
func New(products ProductReader, embeddings EmbeddingReader, logger *zap.Logger) *Service {
	return &Service{
		products:     products,
		embeddings:   embeddings,
		pageSize:     defaultPageSize,
		defaultLimit: DefaultLimit,
		maxLimit:     MaxLimit,
		logger:       logger,
	}
}

// WithPageSize overrides the candidate page size.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// WithLimits overrides the default and maximum result limits.
func (s *Service) WithLimits(def, max int) *Service {
	if def > 0 {
		s.defaultLimit = def
	}
	if max > 0 {
		s.maxLimit = max
	}
	return s
}

// Similar returns the query product and up to limit candidates ranked by
// descending cosine similarity. limit 0 means the configured default; limits
// above the configured maximum are capped to it, and negative limits
// are ErrInvalidInput. A query product without a usable embedding fails with
// domain.ErrNoEmbedding so callers can trigger embedding creation instead of
// treating it as fatal. Results are deterministic: ties break by candidate
// insertion order.
func (s *Service) Similar(
	ctx context.Context, productID string, limit int,
) (domain.ProductSummary, []domain.SimilarityResult, error) {
	if productID == "" {
		return domain.ProductSummary{}, nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	if limit < 0 {
		return domain.ProductSummary{}, nil, fmt.Errorf("%w: limit must be >= 1", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	source, err := s.products.Get(ctx, productID)
	if err != nil {
		return domain.ProductSummary{}, nil, err
	}
	if source.ImageHash == "" {
		return domain.ProductSummary{}, nil, fmt.Errorf("%w: product %s", domain.ErrNoEmbedding, productID)
	}

	query, err := s.embeddings.Lookup(ctx, source.ImageHash)
	if err != nil {
		if errors.Is(err, domain.ErrNoEmbedding) {
			return domain.ProductSummary{}, nil, fmt.Errorf("%w: product %s", domain.ErrNoEmbedding, productID)
		}
		return domain.ProductSummary{}, nil, fmt.Errorf("resolve query embedding: %w", err)
	}

	scored, err := s.scanCandidates(ctx, productID, query.Vector)
	if err != nil {
		return domain.ProductSummary{}, nil, err
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].similarity != scored[j].similarity {
			return scored[i].similarity > scored[j].similarity
		}
		return scored[i].ord < scored[j].ord
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]domain.SimilarityResult, len(scored))
	for i, c := range scored {
		results[i] = domain.SimilarityResult{Product: c.product, Similarity: c.similarity}
	}
	return source, results, nil
}

type scoredCandidate struct {
	product    domain.ProductSummary
	similarity float64
	ord        int
}

// scanCandidates pages through the pool, excluding the query product itself
// and any candidate lacking a usable embedding. A dimension mismatch is a
// hard error, never a silent truncation.
func (s *Service) scanCandidates(
	ctx context.Context, queryID string, queryVec []float32,
) ([]scoredCandidate, error) {
	var scored []scoredCandidate
	cursor := ""
	ord := 0

	for {
		page, next, err := s.products.ListCandidates(ctx, cursor, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list candidates: %w", err)
		}

		for _, p := range page {
			ord++
			if p.ID == queryID || p.ImageHash == "" {
				continue
			}

			rec, err := s.embeddings.Lookup(ctx, p.ImageHash)
			if err != nil {
				if errors.Is(err, domain.ErrNoEmbedding) {
					continue
				}
				return nil, fmt.Errorf("resolve candidate %s: %w", p.ID, err)
			}

			sim, err := domain.CosineSimilarity(queryVec, rec.Vector)
			if err != nil {
				return nil, fmt.Errorf("candidate %s: %w", p.ID, err)
			}
			scored = append(scored, scoredCandidate{product: p, similarity: sim, ord: ord})
		}

		if next == "" {
			break
		}
		cursor = next
	}

	return scored, nil
}
