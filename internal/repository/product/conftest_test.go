package product

import (
	"context"
	"sort"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/db"
)

// mockStore is an in-memory implementation of the consumer interface: a KV
// map plus one scored member set standing in for the candidate index.
type mockStore struct {
	data    map[string][]byte
	counter map[string]int64
	zset    map[string]map[string]float64
}

func newMockStore() *mockStore {
	return &mockStore{
		data:    make(map[string][]byte),
		counter: make(map[string]int64),
		zset:    make(map[string]map[string]float64),
	}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	m.counter[key] += val
	return m.counter[key], nil
}

func (m *mockStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	if m.zset[key] == nil {
		m.zset[key] = make(map[string]float64)
	}
	m.zset[key][member] = score
	return nil
}

func (m *mockStore) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	members := make([]string, 0, len(m.zset[key]))
	for member := range m.zset[key] {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		return m.zset[key][members[i]] < m.zset[key][members[j]]
	})

	if start < 0 || start >= int64(len(members)) {
		return nil, nil
	}
	end := stop + 1
	if end > int64(len(members)) {
		end = int64(len(members))
	}
	return members[start:end], nil
}

func (m *mockStore) ZRem(_ context.Context, key, member string) error {
	delete(m.zset[key], member)
	return nil
}
