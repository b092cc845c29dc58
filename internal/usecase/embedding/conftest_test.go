package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

// mockRecordStore is an in-memory RecordStore. TTLs are recorded, not
// enforced.
type mockRecordStore struct {
	mu      sync.Mutex
	records map[string]domain.EmbeddingRecord
	ttls    map[string]time.Duration
	getErr  error
	putErr  error
	puts    int
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{
		records: make(map[string]domain.EmbeddingRecord),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mockRecordStore) Get(_ context.Context, imageHash string) (domain.EmbeddingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.EmbeddingRecord{}, m.getErr
	}
	rec, ok := m.records[imageHash]
	if !ok {
		return domain.EmbeddingRecord{}, fmt.Errorf("%w: %s", domain.ErrNoEmbedding, imageHash)
	}
	return rec, nil
}

func (m *mockRecordStore) Put(_ context.Context, rec *domain.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.records[rec.ImageHash] = *rec
	m.puts++
	return nil
}

func (m *mockRecordStore) PutWithTTL(ctx context.Context, rec *domain.EmbeddingRecord, ttl time.Duration) error {
	m.mu.Lock()
	m.ttls[rec.ImageHash] = ttl
	m.mu.Unlock()
	return m.Put(ctx, rec)
}

// mockEmbedder counts provider calls; embedFn overrides the default result.
type mockEmbedder struct {
	mu      sync.Mutex
	calls   int
	embedFn func(ctx context.Context, image []byte) (domain.EmbeddingResult, error)
	result  domain.EmbeddingResult
	err     error
}

func (m *mockEmbedder) EmbedImage(ctx context.Context, image []byte) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	fn := m.embedFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, image)
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
