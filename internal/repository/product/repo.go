// Package product persists corpus product summaries with an insertion-ordered
// index for cursor pagination.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/db"
	"github.com/alejandrooalejo/trendcast-studio-sub000/internal/domain"
)

var (
	keyPrefix = domain.KeyPrefix + "product:"
	indexKey  = domain.KeyPrefix + "product_index"
	seqKey    = domain.KeyPrefix + "product_seq"
)

// store is the consumer interface for product records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZRem(ctx context.Context, key, member string) error
}

// Repo implements the product summary repository.
type Repo struct {
	store store
}

// New creates a product repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert creates or updates a product summary. Returns true if created.
// New products are appended to the insertion-ordered index, which fixes the
// deterministic tie-break order for similarity ranking.
func (r *Repo) Upsert(ctx context.Context, p *domain.ProductSummary) (bool, error) {
	if p.ID == "" {
		return false, fmt.Errorf("%w: product has no id", domain.ErrInvalidInput)
	}
	key := productKey(p.ID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", p.ID, err)
	}

	data, err := json.Marshal(toDTO(p))
	if err != nil {
		return false, fmt.Errorf("marshal product %s: %w", p.ID, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return false, fmt.Errorf("put product %s: %w", p.ID, err)
	}

	if !exists {
		seq, err := r.store.IncrBy(ctx, seqKey, 1)
		if err != nil {
			return false, fmt.Errorf("next sequence for %s: %w", p.ID, err)
		}
		if err := r.store.ZAdd(ctx, indexKey, float64(seq), p.ID); err != nil {
			return false, fmt.Errorf("index product %s: %w", p.ID, err)
		}
	}

	return !exists, nil
}

// Get returns a product summary by id.
func (r *Repo) Get(ctx context.Context, id string) (domain.ProductSummary, error) {
	data, err := r.store.Get(ctx, productKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ProductSummary{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return domain.ProductSummary{}, fmt.Errorf("get product %s: %w", id, err)
	}

	var dto productDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domain.ProductSummary{}, fmt.Errorf("unmarshal product %s: %w", id, err)
	}
	return fromDTO(dto), nil
}

// Delete removes a product and its index entry. The record goes first so a
// concurrent ListCandidates sees at worst a dangling index entry, which it
// already skips.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := productKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if err := r.store.ZRem(ctx, indexKey, id); err != nil {
		return fmt.Errorf("unindex product %s: %w", id, err)
	}
	return nil
}

// ListCandidates returns one page of the candidate pool in insertion order.
// cursor is an opaque offset token ("" for the first page); the returned
// cursor is "" when the pool is exhausted.
func (r *Repo) ListCandidates(ctx context.Context, cursor string, limit int) (
	[]domain.ProductSummary, string, error,
) {
	if limit <= 0 {
		limit = 100
	}

	offset := int64(0)
	if cursor != "" {
		parsed, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("%w: bad cursor %q", domain.ErrInvalidInput, cursor)
		}
		offset = parsed
	}

	ids, err := r.store.ZRange(ctx, indexKey, offset, offset+int64(limit)-1)
	if err != nil {
		return nil, "", fmt.Errorf("list candidates: %w", err)
	}

	out := make([]domain.ProductSummary, 0, len(ids))
	for _, id := range ids {
		p, err := r.Get(ctx, id)
		if err != nil {
			// Index entries may briefly outlive a deleted record; skip them.
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return nil, "", err
		}
		out = append(out, p)
	}

	next := ""
	if len(ids) == limit {
		next = strconv.FormatInt(offset+int64(len(ids)), 10)
	}
	return out, next, nil
}

func productKey(id string) string {
	return keyPrefix + id
}
