package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"

	"social-service/internal/docstore"
)

var errUnavailable = errors.New("store unavailable")

// faultyStore wraps a MemoryStore, records write paths and fails calls whose path
// starts with a configured prefix.
type faultyStore struct {
	*docstore.MemoryStore

	mu        sync.Mutex
	failGet   string
	failWrite string
	writes    []string
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: docstore.NewMemoryStore()}
}

func (s *faultyStore) Get(ctx context.Context, path string) ([]byte, error) {
	if s.failGet != "" && strings.HasPrefix(path, s.failGet) {
		return nil, errUnavailable
	}
	return s.MemoryStore.Get(ctx, path)
}

func (s *faultyStore) Put(ctx context.Context, path string, value any) error {
	if err := s.record(path); err != nil {
		return err
	}
	return s.MemoryStore.Put(ctx, path, value)
}

func (s *faultyStore) Post(ctx context.Context, path string, value any) (string, error) {
	if err := s.record(path); err != nil {
		return "", err
	}
	return s.MemoryStore.Post(ctx, path, value)
}

func (s *faultyStore) Patch(ctx context.Context, path string, fields any) error {
	if err := s.record(path); err != nil {
		return err
	}
	return s.MemoryStore.Patch(ctx, path, fields)
}

func (s *faultyStore) Delete(ctx context.Context, path string) error {
	if err := s.record(path); err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, path)
}

func (s *faultyStore) record(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, path)
	if s.failWrite != "" && strings.HasPrefix(path, s.failWrite) {
		return errUnavailable
	}
	return nil
}

func (s *faultyStore) writesTo(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.writes {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// plainStore hides the conditional-write methods of the wrapped store.
type plainStore struct {
	docstore.Store
}
