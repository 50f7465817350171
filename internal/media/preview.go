package media

import (
	"sync"

	"github.com/google/uuid"
)

// Preview is an object-local reference to a staged file. It stays valid
// until released.
type Preview struct {
	ID  string
	URL string
}

// PreviewRegistry keeps the bytes behind every live preview. Entries must
// be released explicitly; the registry never expires them on its own.
type PreviewRegistry struct {
	mu      sync.RWMutex
	prefix  string
	entries map[string]File
}

// NewPreviewRegistry serves previews under prefix, e.g. "/previews/".
func NewPreviewRegistry(prefix string) *PreviewRegistry {
	return &PreviewRegistry{prefix: prefix, entries: make(map[string]File)}
}

func (r *PreviewRegistry) Acquire(f File) Preview {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = f
	r.mu.Unlock()
	return Preview{ID: id, URL: r.prefix + id}
}

// Release frees a preview. Releasing twice is harmless.
func (r *PreviewRegistry) Release(p Preview) {
	r.mu.Lock()
	delete(r.entries, p.ID)
	r.mu.Unlock()
}

func (r *PreviewRegistry) Lookup(id string) (File, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.entries[id]
	return f, ok
}

// Len reports the number of live previews.
func (r *PreviewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
