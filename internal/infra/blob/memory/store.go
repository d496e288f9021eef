// Package memory implements an in-memory blob Store for tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"sessioncore/internal/blob/core"
)

type object struct {
	info core.Info
	data []byte
}

// Store implements core.Store backed by process memory. Intended for tests.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New returns an in-memory blob store.
func New() *Store { return &Store{objects: make(map[string]object)} }

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores a new blob; errors if key exists.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return core.Info{}, fmt.Errorf("blob %s already exists", key)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	info := core.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		Metadata:     cloneMetadata(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.objects[key] = object{info: info, data: data}
	return info, nil
}

// Get returns blob metadata and a reader over a copy of its content.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, nil, fmt.Errorf("blob %s not found", key)
	}
	data := append([]byte(nil), obj.data...)
	info := obj.info
	info.Metadata = cloneMetadata(info.Metadata)
	return info, io.NopCloser(bytes.NewReader(data)), nil
}

// Head returns blob metadata only.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return core.Info{}, fmt.Errorf("blob %s not found", key)
	}
	info := obj.info
	info.Metadata = cloneMetadata(info.Metadata)
	return info, nil
}

// Delete removes the blob returning true if it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	if ok {
		delete(s.objects, key)
	}
	return ok, nil
}

// List returns all blobs matching prefix ordered by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Info, 0, len(s.objects))
	for key, obj := range s.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		info := obj.info
		info.Metadata = cloneMetadata(info.Metadata)
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PresignURL returns unsupported for the memory driver.
func (s *Store) PresignURL(_ context.Context, _ string, _ core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
