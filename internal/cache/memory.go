package cache

import (
	"context"
	"sync"
	"time"
)

type memList struct {
	items   []string
	expires time.Time
}

// MemoryBackend is an in-process Backend with Redis list semantics. It is
// used for the "memory" backend and in tests.
type MemoryBackend struct {
	mu    sync.Mutex
	lists map[string]*memList
	now   func() time.Time
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{lists: make(map[string]*memList), now: time.Now}
}

// get returns the live list for key, dropping it if expired. Caller holds mu.
func (m *MemoryBackend) get(key string) *memList {
	l, ok := m.lists[key]
	if !ok {
		return nil
	}
	if !l.expires.IsZero() && !m.now().Before(l.expires) {
		delete(m.lists, key)
		return nil
	}
	return l
}

func (m *MemoryBackend) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(key) != nil, nil
}

func (m *MemoryBackend) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.get(key)
	if l == nil {
		return []string{}, nil
	}
	lo, hi, ok := span(int64(len(l.items)), start, stop)
	if !ok {
		return []string{}, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, l.items[lo:hi+1])
	return out, nil
}

// LPush prepends each value in turn, so the last value ends up at index 0.
func (m *MemoryBackend) LPush(_ context.Context, key string, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.get(key)
	if l == nil {
		l = &memList{}
		m.lists[key] = l
	}
	items := make([]string, 0, len(values)+len(l.items))
	for i := len(values) - 1; i >= 0; i-- {
		items = append(items, values[i])
	}
	l.items = append(items, l.items...)
	return nil
}

func (m *MemoryBackend) LTrim(_ context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.get(key)
	if l == nil {
		return nil
	}
	lo, hi, ok := span(int64(len(l.items)), start, stop)
	if !ok {
		delete(m.lists, key)
		return nil
	}
	l.items = append([]string(nil), l.items[lo:hi+1]...)
	return nil
}

func (m *MemoryBackend) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l := m.get(key); l != nil {
		l.expires = m.now().Add(ttl)
	}
	return nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() error { return nil }

// span converts Redis-style inclusive indexes (negative counts from the end)
// into a valid [lo, hi] range over n items.
func span(n, start, stop int64) (lo, hi int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
