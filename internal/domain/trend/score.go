package trend

import (
	"fmt"
	"math"
	"strings"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Composite weights. Fixed design constants, not configurable per call:
// reproducibility across repeated runs on the same input is a hard
// requirement.
const (
	colorWeight  = 0.35
	fabricWeight = 0.30
	styleWeight  = 0.35
)

// Alignment band values per match tier. Family-band placement scales with the
// matched reference confidence; the bands themselves are fixed.
const (
	exactValue    = 100.0
	familyLow     = 80.0
	familySpan    = 10.0 // family band is [80, 90]
	offTrendValue = 35.0 // within the 20-50 off-trend band
	opposedValue  = 10.0 // within the 0-20 opposed band
)

// Neutral/versatile band midpoints per aspect (color 50-70, fabric 50-65,
// style 60-70).
var neutralValue = map[Kind]float64{
	Color:  60,
	Fabric: 58,
	Style:  65,
}

// Compose applies the fixed weighting formula to three sub-scores:
//
//	demandScore = round(color*0.35 + fabric*0.30 + style*0.35)
//
// Each sub-score must lie in [0, 100]; the composite is therefore always in
// [0, 100]. Pure and bit-deterministic for identical inputs.
func Compose(color, fabric, style SubScore) (DemandAssessment, error) {
	for _, s := range [3]SubScore{color, fabric, style} {
		if s.Value < 0 || s.Value > 100 {
			return DemandAssessment{}, fmt.Errorf(
				"%w: %s sub-score %.2f outside [0,100]", domain.ErrInvalidInput, s.Kind, s.Value)
		}
	}
	if color.Kind != Color || fabric.Kind != Fabric || style.Kind != Style {
		return DemandAssessment{}, fmt.Errorf(
			"%w: sub-scores must be color, fabric, style", domain.ErrInvalidInput)
	}

	score := int(math.Round(color.Value*colorWeight + fabric.Value*fabricWeight + style.Value*styleWeight))

	return DemandAssessment{
		DemandScore: score,
		RiskTier:    TierFor(score),
		SubScores:   [3]SubScore{color, fabric, style},
	}, nil
}

// TierFor maps a composite demand score to its risk tier. The boundary at
// exactly 75 is Medium; at exactly 50 it is Medium.
func TierFor(score int) RiskTier {
	switch {
	case score > 75:
		return Low
	case score >= 50:
		return Medium
	default:
		return High
	}
}

// Score runs the deterministic matcher over all three aspects and composes
// the result. This is the pure scoring path: the same attributes and
// references always yield an identical assessment.
func Score(attrs ProductAttributes, set ReferenceSet) (DemandAssessment, error) {
	if err := set.Validate(); err != nil {
		return DemandAssessment{}, err
	}
	return Compose(
		MatchAspect(Color, attrs.DetectedColor, set),
		MatchAspect(Fabric, attrs.DetectedFabric, set),
		MatchAspect(Style, attrs.DetectedStyle, set),
	)
}

// MatchAspect scores one detected attribute against the reference subset of
// its kind using a fixed, monotonic tier rule:
//
//	exact match to the top reference        -> 100
//	same family as the top reference        -> 80-90 (scaled by confidence)
//	neutral/versatile/classic               -> mid band per aspect
//	opposed to the top reference's family   -> 10
//	anything else (off-trend)               -> 35
func MatchAspect(kind Kind, detected string, set ReferenceSet) SubScore {
	refs := set.ForKind(kind)
	if len(refs) == 0 {
		return SubScore{
			Kind:      kind,
			Value:     offTrendValue,
			Reasoning: fmt.Sprintf("no trending %s references to match against", kind),
		}
	}
	top := refs[0]
	d := fold(detected)

	if d == "" {
		return SubScore{
			Kind:      kind,
			Value:     offTrendValue,
			Reasoning: fmt.Sprintf("no %s detected", kind),
		}
	}

	if d == fold(top.Name) {
		return SubScore{
			Kind:      kind,
			Value:     exactValue,
			Reasoning: fmt.Sprintf("exact match to top trending %s %q", kind, top.Name),
		}
	}

	// Exact match to a lower-ranked reference counts as a strong family hit.
	for _, r := range refs[1:] {
		if d == fold(r.Name) {
			return SubScore{
				Kind:      kind,
				Value:     familyLow + familySpan,
				Reasoning: fmt.Sprintf("matches trending %s %q", kind, r.Name),
			}
		}
	}

	detFam := familyOf(kind, d)
	topFam := familyOf(kind, fold(top.Name))

	if detFam != "" && detFam == topFam {
		conf := top.Confidence
		if conf > 100 {
			conf = 100
		}
		return SubScore{
			Kind:      kind,
			Value:     familyLow + familySpan*conf/100,
			Reasoning: fmt.Sprintf("same %s family %q as top trend %q", kind, detFam, top.Name),
		}
	}

	if isNeutral(kind, d) {
		return SubScore{
			Kind:      kind,
			Value:     neutralValue[kind],
			Reasoning: fmt.Sprintf("neutral/versatile %s %q", kind, detected),
		}
	}

	if detFam != "" && topFam != "" && opposed(kind, detFam, topFam) {
		return SubScore{
			Kind:      kind,
			Value:     opposedValue,
			Reasoning: fmt.Sprintf("%s %q opposes the trending family %q", kind, detected, topFam),
		}
	}

	return SubScore{
		Kind:      kind,
		Value:     offTrendValue,
		Reasoning: fmt.Sprintf("%s %q is off-trend this season", kind, detected),
	}
}

// Family tables. Small curated vocabularies; placement inside a band is a
// presentation nuance, membership decides the band.
var families = map[Kind]map[string][]string{
	Color: {
		"red":    {"red", "crimson", "scarlet", "burgundy", "maroon", "cherry", "wine"},
		"blue":   {"blue", "navy", "cobalt", "azure", "indigo", "denim blue"},
		"green":  {"green", "sage", "olive", "emerald", "forest", "mint"},
		"pink":   {"pink", "rose", "blush", "fuchsia", "magenta"},
		"yellow": {"yellow", "mustard", "gold", "amber", "butter"},
		"brown":  {"brown", "chocolate", "mocha", "tan", "camel", "caramel"},
		"neon":   {"neon", "fluorescent", "electric lime", "hot orange"},
		"pastel": {"pastel", "lavender", "lilac", "peach", "powder blue"},
	},
	Fabric: {
		"natural":   {"cotton", "linen", "silk", "wool", "hemp", "organic cotton", "cashmere"},
		"denim":     {"denim", "raw denim", "washed denim", "chambray"},
		"leather":   {"leather", "suede", "faux leather", "vegan leather"},
		"synthetic": {"polyester", "nylon", "acrylic", "spandex", "vinyl"},
		"knit":      {"knit", "jersey", "rib knit", "crochet", "boucle"},
		"sheer":     {"chiffon", "organza", "tulle", "mesh", "lace"},
	},
	Style: {
		"minimalist": {"minimalist", "minimal", "clean", "sleek", "slip dress"},
		"maximalist": {"maximalist", "eclectic", "statement", "embellished"},
		"streetwear": {"streetwear", "urban", "oversized", "cargo", "baggy"},
		"formal":     {"formal", "tailored", "elegant", "structured", "blazer"},
		"bohemian":   {"bohemian", "boho", "flowy", "peasant", "tiered"},
		"athleisure": {"athleisure", "sporty", "athletic", "track", "bodycon"},
		"romantic":   {"romantic", "ruffled", "puff sleeve", "corset", "cottagecore"},
	},
}

// Aspect values considered neutral/versatile regardless of the season's top
// trend.
var neutrals = map[Kind][]string{
	Color:  {"black", "white", "gray", "grey", "cream", "beige", "ivory", "charcoal", "off-white"},
	Fabric: {"cotton", "cotton blend", "jersey", "twill", "poplin"},
	Style:  {"classic", "casual", "timeless", "versatile", "everyday", "basic"},
}

// Opposed family pairs per aspect, symmetric.
var opposedPairs = map[Kind][][2]string{
	Color:  {{"neon", "pastel"}},
	Fabric: {{"natural", "synthetic"}},
	Style:  {{"minimalist", "maximalist"}, {"streetwear", "formal"}},
}

func familyOf(kind Kind, term string) string {
	fams := families[kind]
	// Direct member check first, then token containment for compound
	// descriptions like "deep crimson red".
	for fam, members := range fams {
		for _, m := range members {
			if term == m {
				return fam
			}
		}
	}
	best := ""
	for fam, members := range fams {
		for _, m := range members {
			if containsTerm(term, m) && (best == "" || fam < best) {
				best = fam
			}
		}
	}
	return best
}

func isNeutral(kind Kind, term string) bool {
	for _, n := range neutrals[kind] {
		if term == n || containsTerm(term, n) {
			return true
		}
	}
	return false
}

func opposed(kind Kind, a, b string) bool {
	for _, p := range opposedPairs[kind] {
		if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
			return true
		}
	}
	return false
}

// containsTerm reports whether needle occurs in hay on word boundaries.
func containsTerm(hay, needle string) bool {
	return strings.Contains(" "+hay+" ", " "+needle+" ")
}
