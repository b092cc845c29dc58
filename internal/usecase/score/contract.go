package score

import (
	"context"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain/trend"
)

// AttributeExtractor is the external vision/language collaborator that turns
// an image and the trend references into product attributes plus three raw
// sub-scores. Replaceable; its nondeterminism is outside the scoring
// determinism guarantee.
type AttributeExtractor interface {
	ExtractAttributes(ctx context.Context, image []byte, refs trend.ReferenceSet) (trend.Extraction, error)
}
