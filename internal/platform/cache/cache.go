// Package cache holds catalog read results between requests. Entries are grouped by record
// kind so a write to one kind invalidates every cached read of that kind at once.
//
// Every kind carries a generation that Invalidate advances. Readers take the generation
// before querying the backing store and hand it to Set, which drops results fetched
// before the latest invalidation.
package cache

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
)

// Store caches encoded read results.
type Store interface {
	Get(ctx context.Context, kind domain.RecordKind, key string) ([]byte, bool, error)
	Generation(ctx context.Context, kind domain.RecordKind) (int64, error)
	Set(ctx context.Context, kind domain.RecordKind, gen int64, key string, value []byte) error
	Invalidate(ctx context.Context, kind domain.RecordKind) error
}

// Nop never stores anything. Every read goes to the backing store.
type Nop struct{}

func (Nop) Get(context.Context, domain.RecordKind, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context, domain.RecordKind) (int64, error)        { return 0, nil }
func (Nop) Set(context.Context, domain.RecordKind, int64, string, []byte) error { return nil }
func (Nop) Invalidate(context.Context, domain.RecordKind) error                 { return nil }

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local Store with per-entry expiry.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[domain.RecordKind]map[string]memoryEntry
	gens    map[domain.RecordKind]int64
}

// MemoryOption customises the Memory store.
type MemoryOption func(*Memory)

// WithMemoryClock overrides the clock used for expiry.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewMemory constructs a Memory store. A non-positive ttl keeps entries until invalidated.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[domain.RecordKind]map[string]memoryEntry),
		gens:    make(map[domain.RecordKind]int64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m *Memory) Get(_ context.Context, kind domain.RecordKind, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[kind][key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		if current, still := m.entries[kind][key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(m.entries[kind], key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

func (m *Memory) Generation(_ context.Context, kind domain.RecordKind) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[kind], nil
}

// Set stores value unless kind was invalidated after gen was read.
func (m *Memory) Set(_ context.Context, kind domain.RecordKind, gen int64, key string, value []byte) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[kind] != gen {
		return nil
	}
	bucket, ok := m.entries[kind]
	if !ok {
		bucket = make(map[string]memoryEntry)
		m.entries[kind] = bucket
	}
	bucket[key] = entry
	return nil
}

func (m *Memory) Invalidate(_ context.Context, kind domain.RecordKind) error {
	m.mu.Lock()
	delete(m.entries, kind)
	m.gens[kind]++
	m.mu.Unlock()
	return nil
}

// Len reports the number of live and expired entries held for kind.
func (m *Memory) Len(kind domain.RecordKind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries[kind])
}

// Key joins query parts into a cache key. Parts are escaped so distinct parts never share a key.
func Key(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, part := range parts {
		cleaned[i] = url.QueryEscape(strings.TrimSpace(part))
	}
	return strings.Join(cleaned, ":")
}
