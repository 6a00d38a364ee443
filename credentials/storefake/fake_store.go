package storefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/wakelni-client/credentials"
)

var _ credentials.BatchStore = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store. It backs the "memory" store option
// and the tests.
type FakeStore struct {
	values map[string]string
	writes int
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string]string),
	}
}

// NewFakeStoreWith returns a store pre-populated with values.
func NewFakeStoreWith(values map[string]string) *FakeStore {
	s := NewFakeStore()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *FakeStore) Get(_ context.Context, key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", credentials.ErrKeyNotFound
	}
	return v, nil
}

func (s *FakeStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

func (s *FakeStore) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.writes++
	}
	return nil
}

func (s *FakeStore) SetAll(_ context.Context, values map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	s.writes++
	return nil
}

func (s *FakeStore) RemoveAll(_ context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	s.writes++
	return nil
}

func (s *FakeStore) Replace(_ context.Context, values map[string]string, remove ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, k := range remove {
		delete(s.values, k)
	}
	for k, v := range values {
		s.values[k] = v
	}
	s.writes++
	return nil
}

// Snapshot returns a copy of the current contents.
func (s *FakeStore) Snapshot() map[string]string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Writes counts mutating operations that changed or could change the contents.
func (s *FakeStore) Writes() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.writes
}
