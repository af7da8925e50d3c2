package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type object struct {
	contentType string
	data        []byte
}

// Memory is an in-process Storage for development and tests.
type Memory struct {
	objects map[string]object
	baseURL string
	maxSize int64
	mu      sync.RWMutex
}

// MemoryOption configures Memory.
type MemoryOption func(*Memory)

// WithBaseURL sets the prefix returned by URL.
func WithBaseURL(u string) MemoryOption {
	return func(m *Memory) {
		if u != "" {
			m.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithMaxImageSize limits uploads.
func WithMaxImageSize(n int64) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// NewMemory creates an empty Memory storage.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		objects: make(map[string]object),
		baseURL: "memory://images",
		maxSize: DefaultMaxImageSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Put implements Storage.
func (m *Memory) Put(_ context.Context, key string, r io.Reader, _ int64) (*FileInfo, error) {
	data, contentType, err := readImage(key, r, m.maxSize)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.objects[key] = object{contentType: contentType, data: data}
	m.mu.Unlock()

	return &FileInfo{Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

// Get implements Storage.
func (m *Memory) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete implements Storage. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// URL implements Storage.
func (m *Memory) URL(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return m.baseURL + "/" + strings.TrimPrefix(key, "/"), nil
}

var _ Storage = (*Memory)(nil)
