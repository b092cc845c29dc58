package product

import "github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"

// productDTO is the stored JSON shape of a product summary.
type productDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	ImageHash string  `json:"image_hash,omitempty"`
	Price     float64 `json:"price"`
}

func toDTO(p *domain.ProductSummary) productDTO {
	return productDTO{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		ImageHash: p.ImageHash,
		Price:     p.Price,
	}
}

func fromDTO(dto productDTO) domain.ProductSummary {
	return domain.ProductSummary{
		ID:        dto.ID,
		Name:      dto.Name,
		Category:  dto.Category,
		ImageHash: dto.ImageHash,
		Price:     dto.Price,
	}
}
