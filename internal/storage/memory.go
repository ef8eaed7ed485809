package storage

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

const memoryBackend = "memory"

// ErrObjectNotFound is returned by MemoryStorage for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

type memoryObject struct {
	data         []byte
	contentType  string
	tags         map[string]string
	lastModified time.Time
}

// MemoryStorage is an in-memory implementation of Storage.
type MemoryStorage struct {
	mu         sync.RWMutex
	objects    map[string]*memoryObject
	publicBase string
	now        func() time.Time
}

// NewMemoryStorage creates an empty in-memory store serving URLs under publicBase.
func NewMemoryStorage(publicBase string) *MemoryStorage {
	return &MemoryStorage{
		objects:    make(map[string]*memoryObject),
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}
}

// Upload reads the whole payload into memory.
func (s *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, _ int64, contentType string, tags map[string]string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Backend: memoryBackend, Op: "put", Key: key, Err: err}
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return &Error{Backend: memoryBackend, Op: "put", Key: key, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = &memoryObject{
		data:         data,
		contentType:  contentType,
		tags:         copyTags(tags),
		lastModified: s.now(),
	}
	return nil
}

// Delete removes an object.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return &Error{Backend: memoryBackend, Op: "delete", Key: key, Err: ErrObjectNotFound}
	}
	delete(s.objects, key)
	return nil
}

// SetTags replaces the tags of an object.
func (s *MemoryStorage) SetTags(_ context.Context, key string, tags map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return &Error{Backend: memoryBackend, Op: "tag", Key: key, Err: ErrObjectNotFound}
	}
	obj.tags = copyTags(tags)
	return nil
}

// ClearTags removes the tags of an object.
func (s *MemoryStorage) ClearTags(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return &Error{Backend: memoryBackend, Op: "untag", Key: key, Err: ErrObjectNotFound}
	}
	obj.tags = map[string]string{}
	return nil
}

// Tags returns a copy of the object's tags.
func (s *MemoryStorage) Tags(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, &Error{Backend: memoryBackend, Op: "get tags", Key: key, Err: ErrObjectNotFound}
	}
	return copyTags(obj.tags), nil
}

// List returns objects under prefix sorted by key.
func (s *MemoryStorage) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ObjectInfo
	for key, obj := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.lastModified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// PublicURL returns publicBase + "/" + key.
func (s *MemoryStorage) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// Object returns the stored payload and content type.
func (s *MemoryStorage) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Len returns the number of stored objects.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
