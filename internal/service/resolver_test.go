package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/bpkad/budget-exec/internal/model"
)

func TestResolveFetchesOnceThenHitsCache(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.accounts[id] = model.AccountCode{ID: id, Code: "5.2.3.1.1.27", Name: "Road Maintenance"}

	resolver := NewAccountResolver(store, 10)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if first[id].Name != "Road Maintenance" {
		t.Fatalf("first Resolve returned %+v", first[id])
	}
	if store.accountFetchCalls != 1 {
		t.Fatalf("fetch calls after first Resolve = %d, want 1", store.accountFetchCalls)
	}

	second, err := resolver.Resolve(ctx, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if second[id] != first[id] {
		t.Fatalf("cached record %+v differs from fetched %+v", second[id], first[id])
	}
	if store.accountFetchCalls != 1 {
		t.Fatalf("fetch calls after cached Resolve = %d, want 1", store.accountFetchCalls)
	}
}

func TestResolveCachesMissingIDsPermanently(t *testing.T) {
	store := newFakeStore()
	missing := uuid.New()

	resolver := NewAccountResolver(store, 10)
	ctx := context.Background()

	result, err := resolver.Resolve(ctx, []uuid.UUID{missing})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	record := result[missing]
	if !record.IsNotFound() {
		t.Fatalf("missing id resolved to %+v, want not-found record", record)
	}
	if record.ID != missing {
		t.Fatalf("not-found record carries id %s, want %s", record.ID, missing)
	}

	// The id appears in the store later, but the cached not-found record
	// must keep answering; no second fetch happens.
	store.accounts[missing] = model.AccountCode{ID: missing, Code: "5.1", Name: "Late Arrival"}
	again, err := resolver.Resolve(ctx, []uuid.UUID{missing})
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !again[missing].IsNotFound() {
		t.Fatalf("second Resolve returned %+v, want cached not-found record", again[missing])
	}
	if store.accountFetchCalls != 1 {
		t.Fatalf("fetch calls = %d, want 1", store.accountFetchCalls)
	}
}

func TestResolveEvictsOldestInsertedFirst(t *testing.T) {
	store := newFakeStore()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	store.accounts[a] = model.AccountCode{ID: a, Code: "1", Name: "A"}
	store.accounts[b] = model.AccountCode{ID: b, Code: "2", Name: "B"}
	store.accounts[c] = model.AccountCode{ID: c, Code: "3", Name: "C"}

	resolver := NewAccountResolver(store, 2)
	ctx := context.Background()

	mustResolve := func(id uuid.UUID) {
		t.Helper()
		if _, err := resolver.Resolve(ctx, []uuid.UUID{id}); err != nil {
			t.Fatalf("Resolve(%s): %v", id, err)
		}
	}

	mustResolve(a)
	mustResolve(b)
	// Re-using a does not refresh its position; insertion order rules.
	mustResolve(a)
	if store.accountFetchCalls != 2 {
		t.Fatalf("fetch calls = %d, want 2", store.accountFetchCalls)
	}

	mustResolve(c) // evicts a, the oldest insertion
	if resolver.Len() != 2 {
		t.Fatalf("cache size = %d, want 2", resolver.Len())
	}

	mustResolve(a) // must hit the store again
	if store.accountFetchCalls != 4 {
		t.Fatalf("fetch calls = %d, want 4", store.accountFetchCalls)
	}

	mustResolve(b) // b was evicted by a's re-insertion
	if store.accountFetchCalls != 5 {
		t.Fatalf("fetch calls = %d, want 5", store.accountFetchCalls)
	}
}

func TestResolveDeduplicatesRequestedIDs(t *testing.T) {
	store := newFakeStore()
	id := uuid.New()
	store.accounts[id] = model.AccountCode{ID: id, Code: "9", Name: "Dup"}

	resolver := NewAccountResolver(store, 10)
	result, err := resolver.Resolve(context.Background(), []uuid.UUID{id, id, id})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("result size = %d, want 1", len(result))
	}
	if resolver.Len() != 1 {
		t.Fatalf("cache size = %d, want 1", resolver.Len())
	}
}
