// Package plan maps a demand score to production and financial
// recommendations via tiered, deterministic rules.
package plan

import (
	"fmt"
	"math"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Demand tier boundaries for quantity and conversion-rate rules.
const (
	tierTop  = 80
	tierMid  = 60
	tierBase = 40
)

// Plan is the production recommendation derived solely from a demand score
// and the caller's price/cost estimates. Pure and stateless, recomputed on
// demand, never cached.
type Plan struct {
	RecommendedQuantity int
	TargetAudienceSize  int
	ConversionRate      float64
	ProjectedRevenue    float64
	TotalProductionCost float64
	ProfitMarginPct     float64
}

// Build derives a production plan. demandScore must be in [0, 100];
// estimatedPrice and estimatedProductionCost must be >= 0. Violations fail
// before any computation.
func Build(demandScore int, estimatedPrice, estimatedProductionCost float64) (Plan, error) {
	if demandScore < 0 || demandScore > 100 {
		return Plan{}, fmt.Errorf("%w: demand score %d outside [0,100]", domain.ErrInvalidInput, demandScore)
	}
	if estimatedPrice < 0 {
		return Plan{}, fmt.Errorf("%w: negative estimated price %.2f", domain.ErrInvalidInput, estimatedPrice)
	}
	if estimatedProductionCost < 0 {
		return Plan{}, fmt.Errorf("%w: negative production cost %.2f", domain.ErrInvalidInput, estimatedProductionCost)
	}

	qty := quantityFor(demandScore)
	rate := conversionRateFor(demandScore)
	audience := int(math.Ceil(float64(qty) / rate))

	margin := 0.0
	if estimatedPrice > 0 {
		margin = (estimatedPrice - estimatedProductionCost) / estimatedPrice * 100
	}

	return Plan{
		RecommendedQuantity: qty,
		TargetAudienceSize:  audience,
		ConversionRate:      rate,
		ProjectedRevenue:    estimatedPrice * float64(qty),
		TotalProductionCost: estimatedProductionCost * float64(qty),
		ProfitMarginPct:     margin,
	}, nil
}

// quantityFor applies a distinct linear function of the demand score within
// each tier, floored to an integer.
func quantityFor(score int) int {
	s := float64(score)
	switch {
	case score >= tierTop:
		return int(math.Floor(100 + (s-80)*5))
	case score >= tierMid:
		return int(math.Floor(50 + (s-60)*2.5))
	case score >= tierBase:
		return int(math.Floor(30 + (s-40)*1.5))
	default:
		return int(math.Floor(10 + s*0.5))
	}
}

func conversionRateFor(score int) float64 {
	switch {
	case score >= tierTop:
		return 0.05
	case score >= tierMid:
		return 0.03
	case score >= tierBase:
		return 0.02
	default:
		return 0.01
	}
}
