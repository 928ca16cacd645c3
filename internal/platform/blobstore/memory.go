package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type storedBlob struct {
	content     []byte
	contentType string
}

// MemoryStore is a thread-safe in-memory Store for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]storedBlob
	// FailPut makes every Put fail; used to exercise fallback paths.
	FailPut bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]storedBlob)}
}

func (s *MemoryStore) Backend() string { return BackendMemory }

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (Object, error) {
	if !validKey(key) {
		return Object{}, ErrInvalidKey
	}
	if s.FailPut {
		return Object{}, fmt.Errorf("memory store: put disabled")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("read content: %w", err)
	}

	s.mu.Lock()
	s.blobs[key] = storedBlob{content: data, contentType: contentType}
	s.mu.Unlock()

	return Object{Backend: BackendMemory, Key: key, Size: int64(len(data)), ContentType: contentType}, nil
}

func (s *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	blob, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.content)), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.blobs, key)
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
