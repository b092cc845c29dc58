package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain/trend"
	embeddinguc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/embedding"
	healthuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/health"
	productuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/product"
	scoreuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/score"
	similarityuc "github.com/alejandrooalejo/trendcast-studio-sub000/internal/usecase/similarity"
)

// --- Mocks behind the use case services ---

type mockRecordStore struct {
	records map[string]domain.EmbeddingRecord
}

func (m *mockRecordStore) Get(_ context.Context, imageHash string) (domain.EmbeddingRecord, error) {
	rec, ok := m.records[imageHash]
	if !ok {
		return domain.EmbeddingRecord{}, fmt.Errorf("%w: %s", domain.ErrNoEmbedding, imageHash)
	}
	return rec, nil
}

func (m *mockRecordStore) Put(_ context.Context, rec *domain.EmbeddingRecord) error {
	m.records[rec.ImageHash] = *rec
	return nil
}

func (m *mockRecordStore) PutWithTTL(ctx context.Context, rec *domain.EmbeddingRecord, _ time.Duration) error {
	return m.Put(ctx, rec)
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) EmbedImage(_ context.Context, _ []byte) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockProductRepo struct {
	products map[string]domain.ProductSummary
	order    []string
}

func (m *mockProductRepo) Upsert(_ context.Context, p *domain.ProductSummary) (bool, error) {
	_, exists := m.products[p.ID]
	m.products[p.ID] = *p
	if !exists {
		m.order = append(m.order, p.ID)
	}
	return !exists, nil
}

func (m *mockProductRepo) Get(_ context.Context, id string) (domain.ProductSummary, error) {
	p, ok := m.products[id]
	if !ok {
		return domain.ProductSummary{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p, nil
}

func (m *mockProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	delete(m.products, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockProductRepo) ListCandidates(
	_ context.Context, cursor string, _ int,
) ([]domain.ProductSummary, string, error) {
	if cursor != "" {
		return nil, "", nil
	}
	out := make([]domain.ProductSummary, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.products[id])
	}
	return out, "", nil
}

type mockExtractor struct {
	ext trend.Extraction
	err error
}

func (m *mockExtractor) ExtractAttributes(
	_ context.Context, _ []byte, _ trend.ReferenceSet,
) (trend.Extraction, error) {
	return m.ext, m.err
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Fixtures ---

type fixtures struct {
	records  *mockRecordStore
	embedder *mockEmbedder
	products *mockProductRepo
	extract  *mockExtractor
	pinger   *mockPinger
}

func newTestServer(t *testing.T) (*fixtures, chi.Router) {
	t.Helper()

	f := &fixtures{
		records:  &mockRecordStore{records: make(map[string]domain.EmbeddingRecord)},
		embedder: &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}},
		products: &mockProductRepo{products: make(map[string]domain.ProductSummary)},
		extract:  &mockExtractor{},
		pinger:   &mockPinger{},
	}

	logger := zap.NewNop()
	embSvc := embeddinguc.New(f.records, f.embedder, nil, logger)
	scoreSvc := scoreuc.New(f.extract, logger)
	simSvc := similarityuc.New(f.products, embSvc, logger)
	prodSvc := productuc.New(f.products, embSvc, logger)
	healthSvc := healthuc.New(f.pinger, nil)

	srv := NewServer(scoreSvc, embSvc, simSvc, prodSvc, healthSvc, logger)
	r := chi.NewRouter()
	srv.Routes(r)
	return f, r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func testTrendReferences() []trendReferenceDTO {
	return []trendReferenceDTO{
		{Kind: "color", Name: "Crimson", Identifier: "#DC143C", Confidence: 92, Appearances: 140},
		{Kind: "fabric", Name: "Linen", Identifier: "18%", Confidence: 88, Appearances: 95},
		{Kind: "style", Name: "Oversized", Identifier: "rising", Confidence: 85, Appearances: 110},
	}
}
