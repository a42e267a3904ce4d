package cms

import (
	"context"
	"testing"
	"time"
)

type countingProvider struct {
	Provider
	pageCalls int
}

func (p *countingProvider) Page(ctx context.Context, path, locale string, preview bool) (Page, error) {
	p.pageCalls++
	return p.Provider.Page(ctx, path, locale, preview)
}

func TestCachedServesFromCacheUntilExpiry(t *testing.T) {
	inner := &countingProvider{Provider: NewLocalStoreFS(testContentFS())}
	c := NewCached(inner, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Page(ctx, "/sluzby", "cs", false); err != nil {
			t.Fatalf("Page: %v", err)
		}
	}
	if inner.pageCalls != 1 {
		t.Fatalf("expected a single upstream call, got %d", inner.pageCalls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Page(ctx, "/sluzby", "cs", false); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if inner.pageCalls != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", inner.pageCalls)
	}
}

func TestCachedBypassesPreview(t *testing.T) {
	inner := &countingProvider{Provider: NewLocalStoreFS(testContentFS())}
	c := NewCached(inner, time.Minute)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := c.Page(ctx, "/koncept", "cs", true); err != nil {
			t.Fatalf("Page: %v", err)
		}
	}
	if inner.pageCalls != 2 {
		t.Fatalf("preview reads must not be cached, got %d calls", inner.pageCalls)
	}
}

func TestCachedPurge(t *testing.T) {
	inner := &countingProvider{Provider: NewLocalStoreFS(testContentFS())}
	c := NewCached(inner, time.Hour)
	ctx := context.Background()
	_, _ = c.Page(ctx, "/", "cs", false)
	c.Purge()
	_, _ = c.Page(ctx, "/", "cs", false)
	if inner.pageCalls != 2 {
		t.Fatalf("expected purge to drop entries, got %d calls", inner.pageCalls)
	}
}

func TestCachedReturnsIndependentCopies(t *testing.T) {
	c := NewCached(NewLocalStoreFS(testContentFS()), time.Hour)
	ctx := context.Background()
	first, err := c.Page(ctx, "/", "cs", false)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	first.Blocks[0].ID = "mutated"
	second, _ := c.Page(ctx, "/", "cs", false)
	if second.Blocks[0].ID != "hero-1" {
		t.Fatalf("cached page was mutated: %+v", second.Blocks[0])
	}
}
