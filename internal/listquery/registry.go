package listquery

import (
	"sync"
	"time"
)

// Forgetter drops per-session state by session id.
type Forgetter interface {
	Forget(key string)
}

// Registry keeps one controller per session for a single list page. A
// controller left idle longer than the TTL is treated as unmounted and
// replaced by a fresh one on next use.
type Registry[T any] struct {
	newFetch func(key string) FetchFunc[T]
	opts     []Option
	idleTTL  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry[T]
}

type registryEntry[T any] struct {
	controller *Controller[T]
	lastUsed   time.Time
}

// NewRegistry creates a registry keyed by session id. newFetch builds the
// page's fetch function for a new session. idleTTL <= 0 disables idle expiry.
func NewRegistry[T any](newFetch func(key string) FetchFunc[T], idleTTL time.Duration, opts ...Option) *Registry[T] {
	return &Registry[T]{
		newFetch: newFetch,
		opts:     opts,
		idleTTL:  idleTTL,
		now:      time.Now,
		entries:  make(map[string]*registryEntry[T]),
	}
}

// Get returns the session's controller, creating it if needed.
func (r *Registry[T]) Get(key string) *Controller[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.entries[key]; ok && !r.expired(e, now) {
		e.lastUsed = now
		return e.controller
	}

	e := &registryEntry[T]{
		controller: New(r.newFetch(key), r.opts...),
		lastUsed:   now,
	}
	r.entries[key] = e
	return e.controller
}

// Forget drops the session's controller.
func (r *Registry[T]) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Sweep drops every idle controller and returns how many were removed.
func (r *Registry[T]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for key, e := range r.entries {
		if r.expired(e, now) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live controllers.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[T]) expired(e *registryEntry[T], now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(e.lastUsed) > r.idleTTL
}

// Sweeper is a registry that can drop idle state.
type Sweeper interface {
	Forgetter
	Sweep() int
	Len() int
}

// Group fans Forget and Sweep out to several registries.
type Group []Sweeper

func (g Group) Forget(key string) {
	for _, r := range g {
		r.Forget(key)
	}
}

func (g Group) Sweep() int {
	n := 0
	for _, r := range g {
		n += r.Sweep()
	}
	return n
}

func (g Group) Len() int {
	n := 0
	for _, r := range g {
		n += r.Len()
	}
	return n
}
