// Package score orchestrates demand scoring: sub-score derivation, composite
// assessment, and the production plan derived from it.
package score

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain/plan"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain/trend"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/metrics"
)

// Assessment is the merged scoring response: the demand assessment plus the
// production plan derived from it.
type Assessment struct {
	trend.DemandAssessment
	plan.Plan
}

// Service computes demand assessments and production plans.
type Service struct {
	extractor AttributeExtractor
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a scoring service. extractor may be nil when only the pure
// attribute path is used.
func New(extractor AttributeExtractor, logger *zap.Logger) *Service {
	return &Service{extractor: extractor, logger: logger}
}

// WithTimeout bounds each vision extraction call. Zero means no deadline
// beyond the caller's context.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// ScoreAttributes runs the pure scoring path: deterministic matching of the
// supplied attributes against the reference set, composition, and planning.
// Calling it twice with identical inputs yields a bit-identical result.
func (s *Service) ScoreAttributes(
	attrs trend.ProductAttributes, refs trend.ReferenceSet,
	estimatedPrice, estimatedProductionCost float64,
) (Assessment, error) {
	asmt, err := trend.Score(attrs, refs)
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues("attributes", "error").Inc()
		return Assessment{}, err
	}
	return s.finish("attributes", asmt, estimatedPrice, estimatedProductionCost)
}

// ScoreImage obtains attributes and raw sub-scores from the vision
// collaborator, then composes and plans. The extraction is all-or-nothing:
// a composite is never computed from fewer than three sub-scores, and no
// default value ever substitutes for a failed computation.
func (s *Service) ScoreImage(
	ctx context.Context, image []byte, refs trend.ReferenceSet,
	estimatedPrice, estimatedProductionCost float64,
) (Assessment, error) {
	if len(image) == 0 {
		return Assessment{}, fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	if s.extractor == nil {
		return Assessment{}, fmt.Errorf("%w: no attribute extractor configured", domain.ErrProviderFailure)
	}
	if err := refs.Validate(); err != nil {
		return Assessment{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ext, err := s.extractor.ExtractAttributes(ctx, image, refs)
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues("image", "error").Inc()
		return Assessment{}, fmt.Errorf("extract attributes: %w", err)
	}

	asmt, err := trend.Compose(ext.Color, ext.Fabric, ext.Style)
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues("image", "error").Inc()
		// Out-of-band sub-scores from the model are a parse problem, not a
		// caller problem.
		return Assessment{}, fmt.Errorf("%w: %w", domain.ErrParseFailure, err)
	}

	s.logger.Debug("Image scored",
		zap.String("detected_color", ext.Attributes.DetectedColor),
		zap.String("detected_fabric", ext.Attributes.DetectedFabric),
		zap.String("detected_style", ext.Attributes.DetectedStyle),
		zap.Int("demand_score", asmt.DemandScore),
	)

	return s.finish("image", asmt, estimatedPrice, estimatedProductionCost)
}

func (s *Service) finish(
	path string, asmt trend.DemandAssessment,
	estimatedPrice, estimatedProductionCost float64,
) (Assessment, error) {
	p, err := plan.Build(asmt.DemandScore, estimatedPrice, estimatedProductionCost)
	if err != nil {
		metrics.ScoringRequestsTotal.WithLabelValues(path, "error").Inc()
		return Assessment{}, err
	}

	metrics.ScoringRequestsTotal.WithLabelValues(path, "success").Inc()
	metrics.DemandScore.Observe(float64(asmt.DemandScore))

	return Assessment{DemandAssessment: asmt, Plan: p}, nil
}
