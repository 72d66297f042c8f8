package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps all records in process. A transaction takes the store
// lock for its whole lifetime, which gives the same single-writer-per-call
// model the ledger platform provides: no interleaving between Begin and
// Commit/Rollback. Used by tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
	lists   map[string][][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
		lists:   make(map[string][][]byte),
	}
}

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	s.mu.Lock()
	return &memoryTx{
		store:   s,
		writes:  make(map[string][]byte),
		deletes: make(map[string]bool),
		appends: make(map[string][][]byte),
	}, nil
}

// memoryTx journals writes in an overlay and only merges them into the store
// on Commit. Reads consult the overlay first so a transaction observes its
// own writes.
type memoryTx struct {
	store   *MemoryStore
	writes  map[string][]byte
	deletes map[string]bool
	appends map[string][][]byte
	done    bool
}

func (t *memoryTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if t.deletes[key] {
		return nil, false, nil
	}
	if v, ok := t.writes[key]; ok {
		return cloneBytes(v), true, nil
	}
	v, ok := t.store.records[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

func (t *memoryTx) Put(ctx context.Context, key string, value []byte) error {
	delete(t.deletes, key)
	t.writes[key] = cloneBytes(value)
	return nil
}

func (t *memoryTx) Delete(ctx context.Context, key string) error {
	delete(t.writes, key)
	t.deletes[key] = true
	return nil
}

func (t *memoryTx) Append(ctx context.Context, key string, value []byte) error {
	t.appends[key] = append(t.appends[key], cloneBytes(value))
	return nil
}

func (t *memoryTx) List(ctx context.Context, key string) ([][]byte, error) {
	committed := t.store.lists[key]
	pending := t.appends[key]
	out := make([][]byte, 0, len(committed)+len(pending))
	for _, v := range committed {
		out = append(out, cloneBytes(v))
	}
	for _, v := range pending {
		out = append(out, cloneBytes(v))
	}
	return out, nil
}

func (t *memoryTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	for k, v := range t.writes {
		t.store.records[k] = v
	}
	for k := range t.deletes {
		delete(t.store.records, k)
	}
	for k, vs := range t.appends {
		t.store.lists[k] = append(t.store.lists[k], vs...)
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func cloneBytes(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
