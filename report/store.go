package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/websines/meetingscribe/core"
)

// ErrNotFound is returned when no artifact exists for the given handle.
var ErrNotFound = fmt.Errorf("report artifact not found")

// Artifact describes one stored workbook.
type Artifact struct {
	Handle    string
	Filename  string
	Size      int
	CreatedAt time.Time
}

// Store persists generated workbooks and addresses them by opaque handle.
type Store interface {
	// Save stores the workbook bytes and returns its artifact record.
	Save(filename string, data []byte) (Artifact, error)
	// Get returns a copy of the stored bytes or ErrNotFound.
	Get(handle string) ([]byte, Artifact, error)
	// List returns a snapshot of all stored artifacts.
	List() ([]Artifact, error)
	// Delete removes the artifact or returns ErrNotFound.
	Delete(handle string) error
	// URL renders the download URL for a stored artifact.
	URL(a Artifact) string
}

// MemoryStoreOptions configure a MemoryStore.
type MemoryStoreOptions struct {
	// BaseURL prefixes download URLs, e.g. "https://files.example.com/reports".
	BaseURL string
}

// MemoryStore is an in-process Store for tests and single-process use. Bytes
// are copied on save and retrieval so callers cannot mutate internal buffers.
type MemoryStore struct {
	mu        sync.RWMutex
	baseURL   string
	artifacts map[string]entry
}

type entry struct {
	meta Artifact
	data []byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(optFns ...func(o *MemoryStoreOptions)) *MemoryStore {
	opts := MemoryStoreOptions{BaseURL: "memory://reports"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &MemoryStore{
		baseURL:   opts.BaseURL,
		artifacts: make(map[string]entry),
	}
}

// Save implements Store.
func (s *MemoryStore) Save(filename string, data []byte) (Artifact, error) {
	if filename == "" {
		return Artifact{}, fmt.Errorf("artifact filename must not be empty")
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	meta := Artifact{
		Handle:    core.NewID(),
		Filename:  filename,
		Size:      len(cp),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[meta.Handle] = entry{meta: meta, data: cp}

	return meta, nil
}

// Get implements Store.
func (s *MemoryStore) Get(handle string) ([]byte, Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.artifacts[handle]
	if !ok {
		return nil, Artifact{}, ErrNotFound
	}

	cp := make([]byte, len(e.data))
	copy(cp, e.data)
	return cp, e.meta, nil
}

// List implements Store.
func (s *MemoryStore) List() ([]Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Artifact, 0, len(s.artifacts))
	for _, e := range s.artifacts {
		out = append(out, e.meta)
	}
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[handle]; !ok {
		return ErrNotFound
	}
	delete(s.artifacts, handle)
	return nil
}

// URL implements Store.
func (s *MemoryStore) URL(a Artifact) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, a.Handle, a.Filename)
}
