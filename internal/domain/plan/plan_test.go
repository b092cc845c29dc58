package plan

import (
	"errors"
	"math"
	"testing"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

func TestBuild_QuantityTiers(t *testing.T) {
	cases := []struct {
		score   int
		wantQty int
	}{
		{100, 200}, // 100 + 20*5
		{85, 125},  // 100 + 5*5
		{80, 100},
		{79, 97}, // floor(50 + 19*2.5)
		{60, 50},
		{59, 58}, // floor(30 + 19*1.5)
		{40, 30},
		{39, 29}, // floor(10 + 39*0.5)
		{0, 10},
	}
	for _, tc := range cases {
		p, err := Build(tc.score, 0, 0)
		if err != nil {
			t.Fatalf("Build(%d): %v", tc.score, err)
		}
		if p.RecommendedQuantity != tc.wantQty {
			t.Errorf("Build(%d) quantity = %d, want %d", tc.score, p.RecommendedQuantity, tc.wantQty)
		}
	}
}

func TestBuild_ConversionRateTiers(t *testing.T) {
	cases := []struct {
		score int
		want  float64
	}{
		{95, 0.05},
		{80, 0.05},
		{79, 0.03},
		{60, 0.03},
		{59, 0.02},
		{40, 0.02},
		{39, 0.01},
		{0, 0.01},
	}
	for _, tc := range cases {
		p, err := Build(tc.score, 0, 0)
		if err != nil {
			t.Fatalf("Build(%d): %v", tc.score, err)
		}
		if p.ConversionRate != tc.want {
			t.Errorf("Build(%d) rate = %v, want %v", tc.score, p.ConversionRate, tc.want)
		}
	}
}

func TestBuild_AudienceCeiling(t *testing.T) {
	p, err := Build(85, 0, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// 125 / 0.05 = 2500 exactly
	if p.TargetAudienceSize != 2500 {
		t.Errorf("audience = %d, want 2500", p.TargetAudienceSize)
	}

	p, err = Build(41, 0, 0) // qty 31, rate 0.02 -> 1550
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := int(math.Ceil(float64(p.RecommendedQuantity) / p.ConversionRate))
	if p.TargetAudienceSize != want {
		t.Errorf("audience = %d, want ceil %d", p.TargetAudienceSize, want)
	}
}

func TestBuild_Financials(t *testing.T) {
	p, err := Build(85, 40, 15)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.ProjectedRevenue != 40*125 {
		t.Errorf("revenue = %v, want %v", p.ProjectedRevenue, 40.0*125)
	}
	if p.TotalProductionCost != 15*125 {
		t.Errorf("cost = %v, want %v", p.TotalProductionCost, 15.0*125)
	}
	wantMargin := (40.0 - 15.0) / 40.0 * 100
	if math.Abs(p.ProfitMarginPct-wantMargin) > 1e-9 {
		t.Errorf("margin = %v, want %v", p.ProfitMarginPct, wantMargin)
	}
}

func TestBuild_ZeroPriceAvoidsDivision(t *testing.T) {
	p, err := Build(70, 0, 12)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.ProfitMarginPct != 0 {
		t.Errorf("margin with zero price = %v, want 0", p.ProfitMarginPct)
	}
	if p.ProjectedRevenue != 0 {
		t.Errorf("revenue with zero price = %v, want 0", p.ProjectedRevenue)
	}
}

func TestBuild_Validation(t *testing.T) {
	if _, err := Build(-1, 10, 5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for score -1, got %v", err)
	}
	if _, err := Build(101, 10, 5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for score 101, got %v", err)
	}
	if _, err := Build(50, -10, 5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative price, got %v", err)
	}
	if _, err := Build(50, 10, -5); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative cost, got %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	first, err := Build(67, 29.99, 11.5)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Build(67, 29.99, 11.5)
		if err != nil {
			t.Fatalf("Build run %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("run %d diverged: %+v vs %+v", i, first, again)
		}
	}
}
