package similarity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// mockProducts serves a fixed, ordered candidate pool with cursor paging.
type mockProducts struct {
	pool      []domain.ProductSummary
	listCalls int
}

func (m *mockProducts) Get(_ context.Context, id string) (domain.ProductSummary, error) {
	for _, p := range m.pool {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.ProductSummary{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
}

func (m *mockProducts) ListCandidates(
	_ context.Context, cursor string, limit int,
) ([]domain.ProductSummary, string, error) {
	m.listCalls++
	offset := 0
	if cursor != "" {
		offset, _ = strconv.Atoi(cursor)
	}
	if offset >= len(m.pool) {
		return nil, "", nil
	}
	end := offset + limit
	if end > len(m.pool) {
		end = len(m.pool)
	}
	page := m.pool[offset:end]
	next := ""
	if end < len(m.pool) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

// mockEmbeddings maps image hash to vector; absent hashes are ErrNoEmbedding.
type mockEmbeddings struct {
	vectors map[string][]float32
}

func (m *mockEmbeddings) Lookup(_ context.Context, imageHash string) (domain.EmbeddingRecord, error) {
	vec, ok := m.vectors[imageHash]
	if !ok {
		return domain.EmbeddingRecord{}, fmt.Errorf("%w: %s", domain.ErrNoEmbedding, imageHash)
	}
	return domain.EmbeddingRecord{ImageHash: imageHash, Vector: vec}, nil
}
