package httpapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain/trend"
)

func imageB64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestScore_AttributesPath(t *testing.T) {
	_, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", scoreRequest{
		ProductAttributes: &productAttributesDTO{
			DetectedColor:  "crimson",
			DetectedFabric: "linen",
			DetectedStyle:  "oversized",
		},
		TrendReferences: testTrendReferences(),
		EstimatedPrice:  50,
		EstimatedCost:   20,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[assessmentResponse](t, rec)
	if resp.DemandScore != 100 {
		t.Errorf("demand score = %d, want 100", resp.DemandScore)
	}
	if resp.RiskTier != "low" {
		t.Errorf("risk tier = %s", resp.RiskTier)
	}
	if resp.RecommendedQuantity != 200 {
		t.Errorf("quantity = %d, want 200", resp.RecommendedQuantity)
	}
	if len(resp.SubScores) != 3 {
		t.Errorf("expected 3 sub-scores, got %d", len(resp.SubScores))
	}
}

func TestScore_ImagePath(t *testing.T) {
	f, r := newTestServer(t)
	f.extract.ext = trend.Extraction{
		Attributes: trend.ProductAttributes{DetectedColor: "sage"},
		Color:      trend.SubScore{Kind: trend.Color, Value: 90},
		Fabric:     trend.SubScore{Kind: trend.Fabric, Value: 75},
		Style:      trend.SubScore{Kind: trend.Style, Value: 80},
	}

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", scoreRequest{
		ImageBase64:     imageB64("garment photo"),
		TrendReferences: testTrendReferences(),
		EstimatedPrice:  40,
		EstimatedCost:   15,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[assessmentResponse](t, rec)
	if resp.DemandScore != 82 {
		t.Errorf("demand score = %d, want 82", resp.DemandScore)
	}
}

func TestScore_RequiresInput(t *testing.T) {
	_, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", scoreRequest{
		TrendReferences: testTrendReferences(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Code != codeInvalidInput {
		t.Errorf("error code = %s", resp.Code)
	}
}

func TestScore_BadReferences(t *testing.T) {
	_, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", scoreRequest{
		ProductAttributes: &productAttributesDTO{DetectedColor: "red"},
		TrendReferences: []trendReferenceDTO{
			{Kind: "color", Name: "Red", Confidence: 90},
			// fabric and style references missing
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScore_ParseFailureIsBadGateway(t *testing.T) {
	f, r := newTestServer(t)
	f.extract.ext = trend.Extraction{
		Color:  trend.SubScore{Kind: trend.Color, Value: 500},
		Fabric: trend.SubScore{Kind: trend.Fabric, Value: 50},
		Style:  trend.SubScore{Kind: trend.Style, Value: 50},
	}

	rec := doJSON(t, r, http.MethodPost, "/api/v1/score", scoreRequest{
		ImageBase64:     imageB64("img"),
		TrendReferences: testTrendReferences(),
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Code != codeParseFailure {
		t.Errorf("error code = %s, want %s", resp.Code, codeParseFailure)
	}
}

func TestCreateEmbedding_CreatedThenCached(t *testing.T) {
	_, r := newTestServer(t)

	body := embedRequest{ImageBase64: imageB64("image bytes")}

	first := doJSON(t, r, http.MethodPost, "/api/v1/embeddings", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first call status = %d, want 201", first.Code)
	}
	resp1 := decodeBody[embedResponse](t, first)
	if resp1.Cached {
		t.Error("first call should not be cached")
	}

	second := doJSON(t, r, http.MethodPost, "/api/v1/embeddings", body)
	if second.Code != http.StatusOK {
		t.Fatalf("second call status = %d, want 200", second.Code)
	}
	resp2 := decodeBody[embedResponse](t, second)
	if !resp2.Cached {
		t.Error("second call should be cached")
	}
	if resp1.EmbeddingID != resp2.EmbeddingID {
		t.Errorf("embedding ids differ: %s vs %s", resp1.EmbeddingID, resp2.EmbeddingID)
	}
}

func TestCreateEmbedding_LinksProduct(t *testing.T) {
	f, r := newTestServer(t)

	p := domain.ProductSummary{ID: "p1", Name: "Blazer", Price: 90}
	if _, err := f.products.Upsert(context.Background(), &p); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doJSON(t, r, http.MethodPost, "/api/v1/embeddings", embedRequest{
		ImageBase64: imageB64("blazer shot"),
		ProductID:   "p1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[embedResponse](t, rec)
	if f.products.products["p1"].ImageHash != resp.EmbeddingID {
		t.Errorf("product not linked: %s vs %s", f.products.products["p1"].ImageHash, resp.EmbeddingID)
	}
}

func TestCreateEmbedding_LinkUnknownProduct(t *testing.T) {
	_, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/embeddings", embedRequest{
		ImageBase64: imageB64("shot"),
		ProductID:   "ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateEmbedding_ProviderFailure(t *testing.T) {
	f, r := newTestServer(t)
	f.embedder.err = domain.ErrProviderFailure

	rec := doJSON(t, r, http.MethodPost, "/api/v1/embeddings", embedRequest{
		ImageBase64: imageB64("image"),
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Code != codeProviderFailure {
		t.Errorf("error code = %s", resp.Code)
	}
}

func TestCreateEmbedding_InvalidBase64(t *testing.T) {
	_, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/embeddings", embedRequest{
		ImageBase64: "not base64!!!",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProducts_CreateAndGet(t *testing.T) {
	_, r := newTestServer(t)

	created := doJSON(t, r, http.MethodPost, "/api/v1/products", productRequest{
		Name:        "Slip Dress",
		Category:    "dresses",
		Price:       49.99,
		ImageBase64: imageB64("product shot"),
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", created.Code, created.Body.String())
	}
	p := decodeBody[productResponse](t, created)
	if p.ID == "" {
		t.Fatal("expected server-assigned id")
	}
	if p.ImageHash == "" {
		t.Error("expected embedding link on created product")
	}
	if loc := created.Header().Get("Location"); loc != "/api/v1/products/"+p.ID {
		t.Errorf("Location = %q", loc)
	}

	got := doJSON(t, r, http.MethodGet, "/api/v1/products/"+p.ID, nil)
	if got.Code != http.StatusOK {
		t.Fatalf("get status = %d", got.Code)
	}
	fetched := decodeBody[productResponse](t, got)
	if fetched.Name != "Slip Dress" {
		t.Errorf("name = %q", fetched.Name)
	}
}

func TestProducts_PutUpsert(t *testing.T) {
	_, r := newTestServer(t)

	first := doJSON(t, r, http.MethodPut, "/api/v1/products/p1", productRequest{Name: "Blazer", Price: 90})
	if first.Code != http.StatusCreated {
		t.Fatalf("create status = %d", first.Code)
	}

	second := doJSON(t, r, http.MethodPut, "/api/v1/products/p1", productRequest{Name: "Blazer", Price: 85})
	if second.Code != http.StatusOK {
		t.Fatalf("update status = %d", second.Code)
	}
	p := decodeBody[productResponse](t, second)
	if p.Price != 85 {
		t.Errorf("price = %v, want 85", p.Price)
	}
}

func TestProducts_Delete(t *testing.T) {
	_, r := newTestServer(t)

	created := doJSON(t, r, http.MethodPut, "/api/v1/products/p1", productRequest{Name: "Blazer", Price: 90})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d", created.Code)
	}

	del := doJSON(t, r, http.MethodDelete, "/api/v1/products/p1", nil)
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", del.Code)
	}

	got := doJSON(t, r, http.MethodGet, "/api/v1/products/p1", nil)
	if got.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", got.Code)
	}
	again := doJSON(t, r, http.MethodDelete, "/api/v1/products/p1", nil)
	if again.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", again.Code)
	}
}

func TestProducts_GetMissing(t *testing.T) {
	_, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Code != codeProductNotFound {
		t.Errorf("error code = %s", resp.Code)
	}
}

func TestSimilar_RankedResults(t *testing.T) {
	f, r := newTestServer(t)

	f.records.records["h-q"] = domain.EmbeddingRecord{ImageHash: "h-q", Vector: []float32{1, 0}}
	f.records.records["h-a"] = domain.EmbeddingRecord{ImageHash: "h-a", Vector: []float32{0.9, 0.1}}
	f.records.records["h-b"] = domain.EmbeddingRecord{ImageHash: "h-b", Vector: []float32{0, 1}}
	for _, p := range []domain.ProductSummary{
		{ID: "q", Name: "Query", ImageHash: "h-q"},
		{ID: "a", Name: "Close", ImageHash: "h-a"},
		{ID: "b", Name: "Far", ImageHash: "h-b"},
	} {
		prod := p
		if _, err := f.products.Upsert(context.Background(), &prod); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products/q/similar?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[similarResponse](t, rec)
	if resp.SourceProduct.ID != "q" {
		t.Errorf("source = %s", resp.SourceProduct.ID)
	}
	if len(resp.SimilarProducts) != 2 {
		t.Fatalf("got %d results", len(resp.SimilarProducts))
	}
	if resp.SimilarProducts[0].Product.ID != "a" {
		t.Errorf("best match = %s, want a", resp.SimilarProducts[0].Product.ID)
	}
}

func TestSimilar_NoEmbeddingConflict(t *testing.T) {
	f, r := newTestServer(t)

	p := domain.ProductSummary{ID: "q", Name: "Query"}
	if _, err := f.products.Upsert(context.Background(), &p); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products/q/similar", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Code != codeNoEmbedding {
		t.Errorf("error code = %s, want %s", resp.Code, codeNoEmbedding)
	}
}

func TestSimilar_BadLimit(t *testing.T) {
	_, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/products/q/similar?limit=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=0 status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/products/q/similar?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=abc status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	f, r := newTestServer(t)

	rec := doJSON(t, r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy status = %d", rec.Code)
	}

	f.pinger.err = domain.ErrProviderFailure
	rec = doJSON(t, r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d, want 503", rec.Code)
	}
}
