package pages

import (
	"sort"
	"sync"
	"time"

	"sklinet.org/web/internal/cms"
)

// Entry is a generated page kept in the Store.
type Entry struct {
	HTML        []byte
	Status      int
	Redirect    *cms.Redirect
	GeneratedAt time.Time
}

type storeKey struct {
	locale string
	path   string
}

// Store keeps generated pages in memory, keyed by locale and path.
type Store struct {
	mu      sync.RWMutex
	entries map[storeKey]Entry
}

func NewStore() *Store {
	return &Store{entries: map[storeKey]Entry{}}
}

func (s *Store) Get(locale, path string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[storeKey{locale, path}]
	return e, ok
}

func (s *Store) Put(locale, path string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[storeKey{locale, path}] = e
}

// Replace swaps the whole content of the store.
func (s *Store) Replace(entries map[cms.StaticPath]Entry) {
	next := make(map[storeKey]Entry, len(entries))
	for p, e := range entries {
		next[storeKey{p.Locale, p.Path}] = e
	}
	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Paths lists stored pages sorted by locale then path.
func (s *Store) Paths() []cms.StaticPath {
	s.mu.RLock()
	out := make([]cms.StaticPath, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, cms.StaticPath{Path: k.path, Locale: k.locale})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Locale != out[j].Locale {
			return out[i].Locale < out[j].Locale
		}
		return out[i].Path < out[j].Path
	})
	return out
}

const (
	defaultMissingCapacity = 512
	defaultMissingTTL      = time.Minute
)

type missingEntry struct {
	entry   Entry
	expires time.Time
}

// missingCache remembers recent not-found renders for a short time. It is
// bounded: when full, expired entries are dropped first, then the entry
// closest to expiry.
type missingCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[storeKey]missingEntry
}

func newMissingCache(capacity int, ttl time.Duration) *missingCache {
	return &missingCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  map[storeKey]missingEntry{},
	}
}

func (c *missingCache) get(key storeKey) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if !c.now().Before(m.expires) {
		delete(c.entries, key)
		return Entry{}, false
	}
	return m.entry, true
}

func (c *missingCache) put(key storeKey, e Entry) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		var oldest storeKey
		var oldestExp time.Time
		for k, m := range c.entries {
			if !now.Before(m.expires) {
				delete(c.entries, k)
				continue
			}
			if oldestExp.IsZero() || m.expires.Before(oldestExp) {
				oldest, oldestExp = k, m.expires
			}
		}
		if len(c.entries) >= c.capacity {
			delete(c.entries, oldest)
		}
	}
	c.entries[key] = missingEntry{entry: e, expires: now.Add(c.ttl)}
}

func (c *missingCache) clear() {
	c.mu.Lock()
	c.entries = map[storeKey]missingEntry{}
	c.mu.Unlock()
}

func (c *missingCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
