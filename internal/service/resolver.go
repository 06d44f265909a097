package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/bpkad/budget-exec/internal/model"
)

type AccountFetcher interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.AccountCode, error)
}

// AccountResolver memoizes account-code lookups behind a bounded FIFO cache.
// Once an id is cached it is never fetched again: ids the store cannot
// resolve are cached permanently as a not-found record so a broken reference
// does not turn into a retry storm. When the cache grows past its cap the
// oldest-inserted entries are evicted first; recency of use is irrelevant.
type AccountResolver struct {
	fetcher AccountFetcher

	mu    sync.Mutex
	cap   int
	cache map[uuid.UUID]model.AccountCode
	order []uuid.UUID
}

const defaultAccountCacheSize = 100

func NewAccountResolver(fetcher AccountFetcher, cacheSize int) *AccountResolver {
	if cacheSize <= 0 {
		cacheSize = defaultAccountCacheSize
	}
	return &AccountResolver{
		fetcher: fetcher,
		cap:     cacheSize,
		cache:   make(map[uuid.UUID]model.AccountCode, cacheSize),
	}
}

// Resolve returns a record for every requested id. Cached ids are answered
// without touching the store; the rest are fetched in one bulk call.
func (r *AccountResolver) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.AccountCode, error) {
	result := make(map[uuid.UUID]model.AccountCode, len(ids))

	r.mu.Lock()
	var missing []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if record, ok := r.cache[id]; ok {
			result[id] = record
			continue
		}
		missing = append(missing, id)
	}
	r.mu.Unlock()

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := r.fetcher.ListByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.AccountCode, len(fetched))
	for _, record := range fetched {
		byID[record.ID] = record
	}

	r.mu.Lock()
	for _, id := range missing {
		record, ok := byID[id]
		if !ok {
			record = model.AccountCode{ID: id, Name: model.NotFoundAccountName}
		}
		r.insert(id, record)
		result[id] = record
	}
	r.mu.Unlock()

	return result, nil
}

// insert assumes the lock is held. A concurrent Resolve may have cached the
// id while the fetch was in flight; the first insertion wins.
func (r *AccountResolver) insert(id uuid.UUID, record model.AccountCode) {
	if _, exists := r.cache[id]; exists {
		return
	}
	r.cache[id] = record
	r.order = append(r.order, id)
	for len(r.order) > r.cap {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.cache, oldest)
	}
}

// Len reports the current cache population.
func (r *AccountResolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
