package httpapi

import (
	"encoding/base64"
	"fmt"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain/trend"
	scoreuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/score"
)

// --- Requests ---

type trendReferenceDTO struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Identifier  string   `json:"identifier,omitempty"`
	Confidence  float64  `json:"confidence"`
	Appearances int      `json:"appearances"`
	Sources     []string `json:"sources,omitempty"`
}

type productAttributesDTO struct {
	DetectedColor  string `json:"detected_color"`
	DetectedFabric string `json:"detected_fabric"`
	DetectedStyle  string `json:"detected_style"`
}

type scoreRequest struct {
	ProductAttributes *productAttributesDTO `json:"product_attributes,omitempty"`
	ImageBase64       string                `json:"image_base64,omitempty"`
	TrendReferences   []trendReferenceDTO   `json:"trend_references"`
	EstimatedPrice    float64               `json:"estimated_price"`
	EstimatedCost     float64               `json:"estimated_production_cost"`
}

type embedRequest struct {
	ImageBase64 string `json:"image_base64"`
	ImageRef    string `json:"image_ref,omitempty"`
	ProductID   string `json:"product_id,omitempty"` // link the record to an existing product
}

type productRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	ImageBase64 string  `json:"image_base64,omitempty"`
	ImageRef    string  `json:"image_ref,omitempty"`
}

// --- Responses ---

type subScoreDTO struct {
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// assessmentResponse merges the demand assessment and the production plan.
type assessmentResponse struct {
	DemandScore         int           `json:"demand_score"`
	RiskTier            string        `json:"risk_tier"`
	SubScores           []subScoreDTO `json:"sub_scores"`
	RecommendedQuantity int           `json:"recommended_quantity"`
	TargetAudienceSize  int           `json:"target_audience_size"`
	ConversionRate      float64       `json:"conversion_rate"`
	ProjectedRevenue    float64       `json:"projected_revenue"`
	TotalProductionCost float64       `json:"total_production_cost"`
	ProfitMarginPct     float64       `json:"profit_margin_pct"`
}

type embedResponse struct {
	EmbeddingID string `json:"embedding_id"`
	Cached      bool   `json:"cached"`
}

type productResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	ImageHash string  `json:"image_hash,omitempty"`
	Price     float64 `json:"price"`
}

type similarityResultDTO struct {
	Product    productResponse `json:"product"`
	Similarity float64         `json:"similarity"`
}

type similarResponse struct {
	SourceProduct   productResponse       `json:"source_product"`
	SimilarProducts []similarityResultDTO `json:"similar_products"`
}

// --- Converters ---

func referencesFromDTO(dtos []trendReferenceDTO) (trend.ReferenceSet, error) {
	refs := make([]trend.Reference, len(dtos))
	for i, d := range dtos {
		refs[i] = trend.Reference{
			Kind:        trend.Kind(d.Kind),
			Name:        d.Name,
			Identifier:  d.Identifier,
			Confidence:  d.Confidence,
			Appearances: d.Appearances,
			Sources:     d.Sources,
		}
	}
	return trend.NewReferenceSet(refs)
}

func trendAttributes(d *productAttributesDTO) trend.ProductAttributes {
	return trend.ProductAttributes{
		DetectedColor:  d.DetectedColor,
		DetectedFabric: d.DetectedFabric,
		DetectedStyle:  d.DetectedStyle,
	}
}

func decodeImage(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, nil
	}
	image, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: image_base64 is not valid base64", domain.ErrInvalidInput)
	}
	return image, nil
}

func assessmentToDTO(a scoreuc.Assessment) assessmentResponse {
	subs := make([]subScoreDTO, 0, len(a.SubScores))
	for _, s := range a.SubScores {
		subs = append(subs, subScoreDTO{Kind: string(s.Kind), Value: s.Value, Reasoning: s.Reasoning})
	}
	return assessmentResponse{
		DemandScore:         a.DemandScore,
		RiskTier:            string(a.RiskTier),
		SubScores:           subs,
		RecommendedQuantity: a.RecommendedQuantity,
		TargetAudienceSize:  a.TargetAudienceSize,
		ConversionRate:      a.ConversionRate,
		ProjectedRevenue:    a.ProjectedRevenue,
		TotalProductionCost: a.TotalProductionCost,
		ProfitMarginPct:     a.ProfitMarginPct,
	}
}

func productToDTO(p domain.ProductSummary) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		ImageHash: p.ImageHash,
		Price:     p.Price,
	}
}
