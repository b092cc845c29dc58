// Package trend holds the demand-scoring domain: trend references, extracted
// product attributes, and the deterministic composition of sub-scores into a
// demand assessment.
package trend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// Kind discriminates the three scored aspects of a product.
type Kind string

const (
	// Color is the detected-color aspect.
	Color Kind = "color"
	// Fabric is the detected-fabric aspect.
	Fabric Kind = "fabric"
	// Style is the detected-silhouette/style aspect.
	Style Kind = "style"
)

// Reference is a single market datum used as a comparison target: a trending
// color, fabric, or style with its confidence/popularity and provenance.
// Immutable once loaded for a scoring session.
type Reference struct {
	Kind        Kind
	Name        string
	Identifier  string // hex code, percentage, or popularity label
	Confidence  float64
	Appearances int
	Sources     []string
}

// ReferenceSet groups references by aspect, each subset ordered by descending
// confidence so the first entry is the top trend for that aspect.
type ReferenceSet struct {
	colors  []Reference
	fabrics []Reference
	styles  []Reference
}

// NewReferenceSet validates and indexes a flat reference list. Every aspect
// must have at least one reference; negative appearance counts and
// confidences outside [0, 100] are rejected.
func NewReferenceSet(refs []Reference) (ReferenceSet, error) {
	var set ReferenceSet
	for i, r := range refs {
		if r.Name == "" {
			return ReferenceSet{}, fmt.Errorf("%w: reference %d has no name", domain.ErrInvalidInput, i)
		}
		if r.Confidence < 0 || r.Confidence > 100 {
			return ReferenceSet{}, fmt.Errorf(
				"%w: reference %q confidence %.2f outside [0,100]", domain.ErrInvalidInput, r.Name, r.Confidence)
		}
		if r.Appearances < 0 {
			return ReferenceSet{}, fmt.Errorf(
				"%w: reference %q has negative appearances", domain.ErrInvalidInput, r.Name)
		}
		switch r.Kind {
		case Color:
			set.colors = append(set.colors, r)
		case Fabric:
			set.fabrics = append(set.fabrics, r)
		case Style:
			set.styles = append(set.styles, r)
		default:
			return ReferenceSet{}, fmt.Errorf("%w: unknown reference kind %q", domain.ErrInvalidInput, r.Kind)
		}
	}
	if err := set.Validate(); err != nil {
		return ReferenceSet{}, err
	}
	for _, subset := range [][]Reference{set.colors, set.fabrics, set.styles} {
		sort.SliceStable(subset, func(i, j int) bool {
			return subset[i].Confidence > subset[j].Confidence
		})
	}
	return set, nil
}

// Validate checks that every aspect has at least one reference. The zero
// value fails: scoring is undefined against an incomplete set.
func (s *ReferenceSet) Validate() error {
	if len(s.colors) == 0 || len(s.fabrics) == 0 || len(s.styles) == 0 {
		return fmt.Errorf(
			"%w: reference set needs at least one color, fabric, and style entry", domain.ErrInvalidInput)
	}
	return nil
}

// ForKind returns the references of one aspect, top trend first.
func (s *ReferenceSet) ForKind(k Kind) []Reference {
	switch k {
	case Color:
		return s.colors
	case Fabric:
		return s.fabrics
	case Style:
		return s.styles
	}
	return nil
}

// Top returns the highest-confidence reference of an aspect.
func (s *ReferenceSet) Top(k Kind) Reference {
	refs := s.ForKind(k)
	if len(refs) == 0 {
		return Reference{}
	}
	return refs[0]
}

// ProductAttributes is the AI-extracted description of one image. Created
// once per scoring request and never mutated.
type ProductAttributes struct {
	DetectedColor  string
	DetectedFabric string
	DetectedStyle  string
}

func (a *ProductAttributes) forKind(k Kind) string {
	switch k {
	case Color:
		return a.DetectedColor
	case Fabric:
		return a.DetectedFabric
	case Style:
		return a.DetectedStyle
	}
	return ""
}

// SubScore is a single aspect alignment score in [0, 100] with reasoning.
type SubScore struct {
	Kind      Kind
	Value     float64
	Reasoning string
}

// RiskTier is the coarse bucket derived from the demand score.
type RiskTier string

const (
	// Low risk: demand score above 75.
	Low RiskTier = "low"
	// Medium risk: demand score in [50, 75].
	Medium RiskTier = "medium"
	// High risk: demand score below 50.
	High RiskTier = "high"
)

// DemandAssessment is the sole output of scoring: the composite demand score,
// its risk tier, and the three sub-scores in color/fabric/style order.
type DemandAssessment struct {
	DemandScore int
	RiskTier    RiskTier
	SubScores   [3]SubScore
}

// Extraction is the parsed vision-model output for one image: the detected
// attributes plus the three raw sub-scores the collaborator aligned against
// the trend references.
type Extraction struct {
	Attributes ProductAttributes
	Color      SubScore
	Fabric     SubScore
	Style      SubScore
}

// fold normalizes free-text attribute values for comparison.
func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
