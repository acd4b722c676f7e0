// internal/common/storage/memory.go
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"assessment-backend/internal/common/errors"
)

// MemoryStore is an in-memory ObjectStore and Presigner. It backs the
// "memory" storage provider for local development and is the store fake
// used throughout the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// FailPuts, FailGets and FailLists force the respective operation to
	// fail with a transport error, simulating an unreachable store.
	FailPuts  bool
	FailGets  bool
	FailLists bool
}

type memoryObject struct {
	body        []byte
	contentType string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts {
		return errors.NewStorageUnreachableError(fmt.Errorf("memory store: puts disabled"))
	}
	buf := make([]byte, len(body))
	copy(buf, body)
	m.objects[key] = memoryObject{body: buf, contentType: contentType}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailGets {
		return nil, errors.NewStorageUnreachableError(fmt.Errorf("memory store: gets disabled"))
	}
	obj, ok := m.objects[key]
	if !ok {
		return nil, errors.NewObjectNotFoundError(key)
	}
	buf := make([]byte, len(obj.body))
	copy(buf, obj.body)
	return buf, nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailLists {
		return nil, errors.NewStorageUnreachableError(fmt.Errorf("memory store: lists disabled"))
	}
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStore) PresignPut(_ context.Context, key, contentType string, ttl time.Duration) (*PresignedURL, error) {
	return &PresignedURL{
		URL:       fmt.Sprintf("memory://put/%s?contentType=%s", key, contentType),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key string, ttl time.Duration) (*PresignedURL, error) {
	return &PresignedURL{
		URL:       fmt.Sprintf("memory://get/%s", key),
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}
