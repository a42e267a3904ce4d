package cms

import (
	"context"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Cached wraps a Provider with an in-memory TTL cache. Preview reads always
// go to the underlying provider so editors see their latest drafts.
type Cached struct {
	next Provider
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// NewCached decorates next. A non-positive ttl uses the five minute default.
func NewCached(next Provider, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cached{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		items: map[string]cacheEntry{},
	}
}

// Purge drops every cached entry.
func (c *Cached) Purge() {
	c.mu.Lock()
	c.items = map[string]cacheEntry{}
	c.mu.Unlock()
}

func (c *Cached) StaticPaths(ctx context.Context, locale string) ([]StaticPath, error) {
	key := cacheKey("static_paths", locale)
	if v, ok := c.lookup(key); ok {
		return append([]StaticPath(nil), v.([]StaticPath)...), nil
	}
	paths, err := c.next.StaticPaths(ctx, locale)
	if err != nil {
		return nil, err
	}
	c.store(key, append([]StaticPath(nil), paths...))
	return paths, nil
}

func (c *Cached) Page(ctx context.Context, path, locale string, preview bool) (Page, error) {
	if preview {
		return c.next.Page(ctx, path, locale, true)
	}
	key := cacheKey("page", locale, path)
	if v, ok := c.lookup(key); ok {
		return clonePage(v.(Page)), nil
	}
	page, err := c.next.Page(ctx, path, locale, false)
	if err != nil {
		return Page{}, err
	}
	c.store(key, clonePage(page))
	return page, nil
}

func (c *Cached) WebSetting(ctx context.Context, locale string, preview bool) (WebSetting, error) {
	if preview {
		return c.next.WebSetting(ctx, locale, true)
	}
	key := cacheKey("web_setting", locale)
	if v, ok := c.lookup(key); ok {
		return v.(WebSetting), nil
	}
	ws, err := c.next.WebSetting(ctx, locale, false)
	if err != nil {
		return WebSetting{}, err
	}
	c.store(key, ws)
	return ws, nil
}

func (c *Cached) Site(ctx context.Context, locale string) (Site, error) {
	key := cacheKey("site", locale)
	if v, ok := c.lookup(key); ok {
		return v.(Site), nil
	}
	site, err := c.next.Site(ctx, locale)
	if err != nil {
		return Site{}, err
	}
	c.store(key, site)
	return site, nil
}

func (c *Cached) Redirect(ctx context.Context, path, locale string) (Redirect, error) {
	key := cacheKey("redirect", locale, path)
	if v, ok := c.lookup(key); ok {
		return v.(Redirect), nil
	}
	r, err := c.next.Redirect(ctx, path, locale)
	if err != nil {
		return Redirect{}, err
	}
	c.store(key, r)
	return r, nil
}

func (c *Cached) lookup(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || now.After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (c *Cached) store(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry{value: value, expires: c.now().Add(c.ttl)}
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}

func clonePage(src Page) Page {
	cp := src
	if src.Redirect != nil {
		r := *src.Redirect
		cp.Redirect = &r
	}
	if src.Blocks != nil {
		cp.Blocks = append([]Block(nil), src.Blocks...)
	}
	return cp
}
