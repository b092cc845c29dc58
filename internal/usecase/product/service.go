// Package product manages the searchable corpus: registering products and
// linking them to their image embeddings.
package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Service registers and reads corpus products.
type Service struct {
	repo       Repository
	embeddings EmbeddingCreator
	logger     *zap.Logger
}

// New creates a product service.
func New(repo Repository, embeddings EmbeddingCreator, logger *zap.Logger) *Service {
	return &Service{repo: repo, embeddings: embeddings, logger: logger}
}

// Upsert registers or updates a product. An empty id gets a generated one.
// When image bytes are supplied the product is linked to its (possibly
// freshly created) embedding record. Returns the stored summary and whether
// it was created.
func (s *Service) Upsert(
	ctx context.Context, p domain.ProductSummary, image []byte, imageRef string,
) (domain.ProductSummary, bool, error) {
	if p.Name == "" {
		return domain.ProductSummary{}, false, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if p.Price < 0 {
		return domain.ProductSummary{}, false, fmt.Errorf("%w: negative price", domain.ErrInvalidInput)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	if len(image) > 0 {
		rec, cached, err := s.embeddings.GetOrCreate(ctx, image, imageRef)
		if err != nil {
			return domain.ProductSummary{}, false, fmt.Errorf("embed product %s: %w", p.ID, err)
		}
		p.ImageHash = rec.ImageHash
		s.logger.Debug("Product image embedded",
			zap.String("product_id", p.ID),
			zap.String("image_hash", rec.ImageHash),
			zap.Bool("cached", cached),
		)
	}

	created, err := s.repo.Upsert(ctx, &p)
	if err != nil {
		return domain.ProductSummary{}, false, err
	}
	return p, created, nil
}

// LinkImage points an existing product at an embedding record.
func (s *Service) LinkImage(ctx context.Context, id, imageHash string) (domain.ProductSummary, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.ProductSummary{}, err
	}
	if p.ImageHash == imageHash {
		return p, nil
	}
	p.ImageHash = imageHash
	if _, err := s.repo.Upsert(ctx, &p); err != nil {
		return domain.ProductSummary{}, err
	}
	return p, nil
}

// Delete removes a product from the corpus. The embedding record stays: it is
// content-addressed and may be shared by other products.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	return s.repo.Delete(ctx, id)
}

// Get returns a product summary by id.
func (s *Service) Get(ctx context.Context, id string) (domain.ProductSummary, error) {
	if id == "" {
		return domain.ProductSummary{}, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	return s.repo.Get(ctx, id)
}
