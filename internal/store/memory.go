package store

import (
	"context"
	"sync"
	"time"
)

const backendMemory = "memory"

type memDoc struct {
	mu   sync.Mutex
	body []byte
}

type memCollection struct {
	keys []string // insertion order
	docs map[string]*memDoc
}

// MemoryStore keeps documents in process memory. The collection maps are
// guarded by one RWMutex and every document by its own mutex, so a reader
// never observes a half written document and Update is serialized per key.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[Collection]*memCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[Collection]*memCollection)}
}

func (s *MemoryStore) lookup(c Collection, key string) (*memDoc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[c]
	if !ok {
		return nil, false
	}
	d, ok := coll.docs[key]
	return d, ok
}

// Get returns a copy of the stored document.
func (s *MemoryStore) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	defer observe(backendMemory, "get", time.Now())

	d, ok := s.lookup(c, key)
	if !ok {
		return nil, ErrNotFound
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return clone(d.body), nil
}

// Put stores doc under key, replacing whatever was there.
func (s *MemoryStore) Put(ctx context.Context, c Collection, key string, doc []byte) error {
	defer observe(backendMemory, "put", time.Now())

	if d, ok := s.lookup(c, key); ok {
		d.mu.Lock()
		d.body = clone(doc)
		d.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[c]
	if !ok {
		coll = &memCollection{docs: make(map[string]*memDoc)}
		s.collections[c] = coll
	}
	// Lost the race against another Put of the same key.
	if d, ok := coll.docs[key]; ok {
		d.mu.Lock()
		d.body = clone(doc)
		d.mu.Unlock()
		return nil
	}
	coll.docs[key] = &memDoc{body: clone(doc)}
	coll.keys = append(coll.keys, key)
	return nil
}

// Update runs fn under the document's lock.
func (s *MemoryStore) Update(ctx context.Context, c Collection, key string, fn UpdateFunc) error {
	defer observe(backendMemory, "update", time.Now())

	d, ok := s.lookup(c, key)
	if !ok {
		return ErrNotFound
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	next, err := fn(clone(d.body))
	if err != nil {
		return err
	}
	d.body = clone(next)
	return nil
}

func (s *MemoryStore) PutField(ctx context.Context, c Collection, key string, path []string, value any) error {
	return s.Update(ctx, c, key, func(doc []byte) ([]byte, error) {
		return setField(doc, path, value)
	})
}

// List returns every document of the collection in insertion order.
func (s *MemoryStore) List(ctx context.Context, c Collection) ([][]byte, error) {
	defer observe(backendMemory, "list", time.Now())

	s.mu.RLock()
	coll, ok := s.collections[c]
	if !ok {
		s.mu.RUnlock()
		return nil, nil
	}
	docs := make([]*memDoc, 0, len(coll.keys))
	for _, k := range coll.keys {
		docs = append(docs, coll.docs[k])
	}
	s.mu.RUnlock()

	out := make([][]byte, 0, len(docs))
	for _, d := range docs {
		d.mu.Lock()
		out = append(out, clone(d.body))
		d.mu.Unlock()
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
