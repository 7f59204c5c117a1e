package jobs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Tirth2116/OceanEye/internal/progress"
)

type entry struct {
	rec Record
	// best is the furthest progress any status poll has observed.
	best progress.Progress
	// done is closed when rec reaches a terminal state.
	done chan struct{}
}

// Registry is the in-memory map of job records. All methods are safe for
// concurrent use. Each method holds the lock for a single map operation and
// never while doing I/O.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Get returns a snapshot of the record with the given ID.
func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Record{}, false
	}
	return e.rec.clone(), true
}

// List returns snapshots of all records, oldest first.
func (r *Registry) List() []Record {
	r.mu.RLock()
	out := make([]Record, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.rec.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) add(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[rec.ID]; exists {
		return fmt.Errorf("job %s already registered", rec.ID)
	}
	r.entries[rec.ID] = &entry{rec: rec.clone(), done: make(chan struct{})}
	return nil
}

// transition moves a record to the given status and applies mutate to it in the
// same critical section, so readers see the status and its companion fields
// change together.
func (r *Registry) transition(id string, to Status, mutate func(*Record)) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	if !isValidTransition(e.rec.Status, to) {
		return e.rec.clone(), &TransitionError{JobID: id, From: e.rec.Status, To: to}
	}

	if mutate != nil {
		mutate(&e.rec)
	}
	e.rec.Status = to
	if to.Terminal() {
		close(e.done)
	}
	return e.rec.clone(), nil
}

// observe folds p into the record's high-water progress and returns the result.
func (r *Registry) observe(id string, p progress.Progress) progress.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return p
	}
	e.best = e.best.Max(p)
	return e.best
}

func (r *Registry) doneChan(id string) (<-chan struct{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.done, true
}
