package viewer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("viewer not found")

// Builder creates the viewer state for a new id.
type Builder func(id string) (*Viewer, error)

type Registry struct {
	build Builder

	mu      sync.RWMutex
	viewers map[string]*Viewer
}

func NewRegistry(build Builder) *Registry {
	return &Registry{
		build:   build,
		viewers: map[string]*Viewer{},
	}
}

func (r *Registry) Create() (*Viewer, error) {
	v, err := r.build(uuid.NewString())
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewers[v.ID] = v
	return v, nil
}

func (r *Registry) Get(id string) (*Viewer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.viewers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (r *Registry) Exists(id string) bool {
	_, err := r.Get(id)
	return err == nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.viewers, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.viewers)
}

// Sweep drops viewers idle for longer than idle and returns their ids.
func (r *Registry) Sweep(idle time.Duration) []string {
	cutoff := time.Now().Add(-idle)

	r.mu.RLock()
	candidates := make([]*Viewer, 0, len(r.viewers))
	for _, v := range r.viewers {
		candidates = append(candidates, v)
	}
	r.mu.RUnlock()

	var removed []string
	for _, v := range candidates {
		if v.LastSeen().Before(cutoff) {
			r.Remove(v.ID)
			removed = append(removed, v.ID)
		}
	}
	return removed
}

// Janitor sweeps idle viewers every interval until ctx is done.
func (r *Registry) Janitor(ctx context.Context, idle, interval time.Duration) {
	if idle <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(idle); len(removed) > 0 {
				log.Printf("dropped %d idle viewers", len(removed))
			}
		}
	}
}
