package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain/trend"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/metrics"
)

// Extractor obtains product attributes and raw sub-scores from a vision
// model behind the OpenAI-compatible chat API.
type Extractor struct {
	client    *openai.Client
	model     string
	maxTokens int
	provider  string
	logger    *zap.Logger
}

// ExtractorConfig holds the vision provider settings.
type ExtractorConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Provider  string
	Logger    *zap.Logger
}

// NewExtractor creates a vision attribute extractor.
func NewExtractor(cfg *ExtractorConfig) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Extractor{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		provider:  cfg.Provider,
		logger:    cfg.Logger,
	}
}

// ExtractAttributes implements the scoring collaborator contract. The model
// response is parsed all-or-nothing: either all three aspects with their
// sub-scores are present or the whole extraction fails with
// domain.ErrParseFailure.
func (e *Extractor) ExtractAttributes(
	ctx context.Context, image []byte, refs trend.ReferenceSet,
) (trend.Extraction, error) {
	req := openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: buildPrompt(refs)},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()

	resp, err := e.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, "api_error").Inc()
		return trend.Extraction{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, "empty_response").Inc()
		return trend.Extraction{}, fmt.Errorf("empty vision response: %w", domain.ErrProviderFailure)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(duration.Seconds())

	ext, err := parseExtraction(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, "parse_error").Inc()
		e.logger.Warn("Unparseable vision response",
			zap.String("model", e.model),
			zap.Error(err),
		)
		return trend.Extraction{}, err
	}
	return ext, nil
}

// HealthCheck verifies API availability via ListModels.
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// buildPrompt renders the trend references into the scoring instruction. The
// model is asked for sub-scores inside the fixed alignment bands.
func buildPrompt(refs trend.ReferenceSet) string {
	var b strings.Builder
	b.WriteString("You are a fashion trend analyst. Analyze the garment in the image ")
	b.WriteString("and score its alignment with the current trend references below.\n\n")

	for _, kind := range []trend.Kind{trend.Color, trend.Fabric, trend.Style} {
		fmt.Fprintf(&b, "Trending %ss (top first):\n", kind)
		for _, r := range refs.ForKind(kind) {
			fmt.Fprintf(&b, "- %s (%s, confidence %.0f, %d appearances)\n",
				r.Name, r.Identifier, r.Confidence, r.Appearances)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Score each aspect 0-100 with these bands:
100 = identical to the top reference; 80-90 = same family; 50-70 = neutral or
versatile classic (60-70 for style, 50-65 for fabric); 20-50 = off-trend;
0-20 = opposed to the trend.

Respond with JSON only, exactly this shape:
{"color":{"detected":"...","score":N,"reasoning":"..."},
 "fabric":{"detected":"...","score":N,"reasoning":"..."},
 "style":{"detected":"...","score":N,"reasoning":"..."}}`)

	return b.String()
}

// aspectDTO uses a pointer score so a missing field is distinguishable from
// an explicit zero.
type aspectDTO struct {
	Detected  string   `json:"detected"`
	Score     *float64 `json:"score"`
	Reasoning string   `json:"reasoning"`
}

type extractionDTO struct {
	Color  *aspectDTO `json:"color"`
	Fabric *aspectDTO `json:"fabric"`
	Style  *aspectDTO `json:"style"`
}

// parseExtraction decodes the model output defensively. Partial responses
// never propagate: a missing aspect or score fails the whole extraction.
func parseExtraction(content string) (trend.Extraction, error) {
	payload := stripFences(content)

	var dto extractionDTO
	if err := json.Unmarshal([]byte(payload), &dto); err != nil {
		return trend.Extraction{}, fmt.Errorf("%w: %w", domain.ErrParseFailure, err)
	}

	aspects := map[trend.Kind]*aspectDTO{
		trend.Color:  dto.Color,
		trend.Fabric: dto.Fabric,
		trend.Style:  dto.Style,
	}
	for kind, a := range aspects {
		if a == nil || a.Score == nil {
			return trend.Extraction{}, fmt.Errorf("%w: missing %s sub-score", domain.ErrParseFailure, kind)
		}
		if *a.Score < 0 || *a.Score > 100 {
			return trend.Extraction{}, fmt.Errorf(
				"%w: %s sub-score %.2f outside [0,100]", domain.ErrParseFailure, kind, *a.Score)
		}
	}

	return trend.Extraction{
		Attributes: trend.ProductAttributes{
			DetectedColor:  dto.Color.Detected,
			DetectedFabric: dto.Fabric.Detected,
			DetectedStyle:  dto.Style.Detected,
		},
		Color:  trend.SubScore{Kind: trend.Color, Value: *dto.Color.Score, Reasoning: dto.Color.Reasoning},
		Fabric: trend.SubScore{Kind: trend.Fabric, Value: *dto.Fabric.Score, Reasoning: dto.Fabric.Reasoning},
		Style:  trend.SubScore{Kind: trend.Style, Value: *dto.Style.Score, Reasoning: dto.Style.Reasoning},
	}, nil
}

// stripFences removes a markdown code fence some models wrap around JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
