package client

import (
	"context"
	"sync"
)

// ListCache holds cached lists keyed by resource ("tasks", "notes", ...). It
// exists so UI code can mutate optimistically: apply the guessed next state
// immediately, roll back to the snapshot if the network call fails, and mark
// the key stale on settle so the next read refetches server truth.
type ListCache[T any] struct {
	mu      sync.Mutex
	lists   map[string][]T
	stale   map[string]bool
	fetches map[string]context.CancelFunc
}

func NewListCache[T any]() *ListCache[T] {
	return &ListCache[T]{
		lists:   make(map[string][]T),
		stale:   make(map[string]bool),
		fetches: make(map[string]context.CancelFunc),
	}
}

// Get returns a copy of the cached list so callers cannot mutate cache state.
func (c *ListCache[T]) Get(key string) ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.lists[key]
	if !ok {
		return nil, false
	}
	out := make([]T, len(items))
	copy(out, items)
	return out, true
}

func (c *ListCache[T]) Set(key string, items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = items
	c.stale[key] = false
}

// Invalidate marks the key stale without dropping the cached value; stale data
// keeps rendering until a refetch replaces it.
func (c *ListCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale[key] = true
}

func (c *ListCache[T]) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[key]
}

// BeginFetch registers a refetch for the key, cancelling any previous one so a
// slow stale response cannot clobber a later optimistic write. The caller runs
// the fetch under the returned context and calls Set on success.
func (c *ListCache[T]) BeginFetch(ctx context.Context, key string) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, ok := c.fetches[key]; ok {
		cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.fetches[key] = cancel
	return fetchCtx
}

// CancelFetch aborts the in-flight refetch for the key, if any.
func (c *ListCache[T]) CancelFetch(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cancel, ok := c.fetches[key]; ok {
		cancel()
		delete(c.fetches, key)
	}
}

// snapshot returns the current list copy without flipping the stale bit.
func (c *ListCache[T]) snapshot(key string) ([]T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.lists[key]
	if !ok {
		return nil, false
	}
	out := make([]T, len(items))
	copy(out, items)
	return out, true
}

// restore puts a snapshot back verbatim, preserving the stale bit semantics of
// a rollback: the value is last known server truth, not fresh.
func (c *ListCache[T]) restore(key string, items []T, existed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !existed {
		delete(c.lists, key)
		return
	}
	c.lists[key] = items
}

// Mutation is one optimistic update against a cache key. Apply must be pure:
// it receives a copy of the current list and returns the guessed next state
// without touching shared element data in place.
type Mutation[T any] struct {
	Cache   *ListCache[T]
	Key     string
	Apply   func(items []T) []T
	Call    func(ctx context.Context) error
	OnError func(err error)
}

// Run executes the optimistic protocol: cancel pending refetch, snapshot,
// apply locally, fire the network call, roll back on failure, invalidate on
// settle. The cache is never left between the optimistic state and the
// snapshot.
func (m Mutation[T]) Run(ctx context.Context) error {
	m.Cache.CancelFetch(m.Key)

	snapshot, existed := m.Cache.snapshot(m.Key)

	if existed {
		working := make([]T, len(snapshot))
		copy(working, snapshot)
		m.Cache.Set(m.Key, m.Apply(working))
	}

	err := m.Call(ctx)
	if err != nil {
		m.Cache.restore(m.Key, snapshot, existed)
		if m.OnError != nil {
			m.OnError(err)
		}
		return err
	}

	m.Cache.Invalidate(m.Key)
	return nil
}
