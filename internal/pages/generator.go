package pages

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/observability"
)

// Site describes the locales served by the generator.
type Site struct {
	Locales       []string
	DefaultLocale string
	Hostname      string
}

// Generator pre-renders the static path set and generates pages on demand
// according to the fallback mode.
type Generator struct {
	enumerator *Enumerator
	resolver   *Resolver
	renderer   *Renderer
	store      *Store
	site       Site
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	result   StaticPathsResult
	inflight map[storeKey]struct{}
	wg       sync.WaitGroup
	// slots limits concurrent background generations.
	slots   chan struct{}
	missing *missingCache
}

// maxBackgroundGenerations caps GenerateAsync concurrency.
const maxBackgroundGenerations = 8

func NewGenerator(e *Enumerator, res *Resolver, ren *Renderer, store *Store, site Site, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewStore()
	}
	return &Generator{
		enumerator: e,
		resolver:   res,
		renderer:   ren,
		store:      store,
		site:       site,
		logger:     logger,
		now:        time.Now,
		result:     StaticPathsResult{Fallback: FallbackBlocking},
		inflight:   map[storeKey]struct{}{},
		slots:      make(chan struct{}, maxBackgroundGenerations),
		missing:    newMissingCache(defaultMissingCapacity, defaultMissingTTL),
	}
}

// Static reports whether pages are served from the store.
func (g *Generator) Static() bool {
	return g.enumerator.Active(g.site.Locales)
}

// Fallback returns the fallback mode of the last enumeration.
func (g *Generator) Fallback() Fallback {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result.Fallback
}

// Known reports whether (path, locale) was enumerated.
func (g *Generator) Known(locale, path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result.Has(path, locale)
}

// Lookup returns a stored page, or a recent not-found render of a path
// generated in the background.
func (g *Generator) Lookup(locale, path string) (Entry, bool) {
	if e, ok := g.store.Get(locale, path); ok {
		return e, true
	}
	return g.missing.get(storeKey{locale, path})
}

// Prerender enumerates the static path set, renders every page and swaps
// the store content. It is also the revalidation entry point.
func (g *Generator) Prerender(ctx context.Context) (int, error) {
	start := g.now()
	result, err := g.enumerator.StaticPaths(ctx, g.site.Locales)
	if err != nil {
		return 0, err
	}
	entries := make(map[cms.StaticPath]Entry, len(result.Paths))
	for _, p := range result.Paths {
		e, err := g.Build(ctx, p.Locale, p.Path, false)
		if err != nil {
			return 0, fmt.Errorf("pages: prerender %s %s: %w", p.Locale, p.Path, err)
		}
		if e.Status == http.StatusNotFound {
			g.logger.Warn("enumerated page not found", zap.String("locale", p.Locale), zap.String("path", p.Path))
			continue
		}
		entries[p] = e
	}
	g.store.Replace(entries)
	g.missing.clear()
	g.mu.Lock()
	g.result = result
	g.mu.Unlock()
	observability.SetStaticPages(len(entries))
	g.logger.Info("static pages generated",
		zap.Int("pages", len(entries)),
		zap.String("fallback", string(result.Fallback)),
		zap.Duration("took", g.now().Sub(start)),
	)
	return len(entries), nil
}

// Build resolves and renders one page. With store set, successful pages and
// redirects are kept for later requests.
func (g *Generator) Build(ctx context.Context, locale, path string, store bool) (Entry, error) {
	params := Params{
		Slug:          cms.SplitSlug(path),
		Locale:        locale,
		DefaultLocale: g.site.DefaultLocale,
		Hostname:      g.site.Hostname,
	}
	res, err := g.resolver.Resolve(ctx, params)
	if err != nil {
		return Entry{}, err
	}
	e, err := g.renderResult(ctx, res, path)
	if err != nil {
		return Entry{}, err
	}
	if store && e.Status != http.StatusNotFound {
		g.store.Put(locale, path, e)
	}
	return e, nil
}

func (g *Generator) renderResult(ctx context.Context, res Result, path string) (Entry, error) {
	e := Entry{GeneratedAt: g.now()}
	switch res.Kind {
	case KindRedirect:
		e.Status = res.Props.Redirect.Status()
		e.Redirect = res.Props.Redirect
		return e, nil
	case KindNotFound:
		e.Status = http.StatusNotFound
	default:
		e.Status = http.StatusOK
	}
	var buf bytes.Buffer
	if err := g.renderer.Render(ctx, &buf, RenderInput{Props: res.Props, AsPath: path, Status: e.Status, Static: true}); err != nil {
		return Entry{}, err
	}
	e.HTML = buf.Bytes()
	return e, nil
}

// NotFound renders the 404 layout for locale without looking the page up.
func (g *Generator) NotFound(ctx context.Context, locale, path string) (Entry, error) {
	props, err := g.resolver.Shell(ctx, Params{
		Slug:          cms.SplitSlug(path),
		Locale:        locale,
		DefaultLocale: g.site.DefaultLocale,
		Hostname:      g.site.Hostname,
	})
	if err != nil {
		return Entry{}, err
	}
	return g.renderResult(ctx, Result{Kind: KindNotFound, Props: props}, path)
}

// GenerateAsync builds a page in the background unless it is already being
// generated or all generation slots are busy; it reports whether a build
// was started. Not-found results go to the bounded missing cache, so the
// loading placeholder resolves to a 404 for a while without growing the
// store.
func (g *Generator) GenerateAsync(locale, path string) bool {
	key := storeKey{locale, path}
	g.mu.Lock()
	if _, busy := g.inflight[key]; busy {
		g.mu.Unlock()
		return false
	}
	select {
	case g.slots <- struct{}{}:
	default:
		g.mu.Unlock()
		g.logger.Debug("background generation skipped, no free slot", zap.String("locale", locale), zap.String("path", path))
		return false
	}
	g.inflight[key] = struct{}{}
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
			<-g.slots
		}()
		ctx := observability.WithLogger(context.Background(), g.logger)
		e, err := g.Build(ctx, locale, path, true)
		if err != nil {
			g.logger.Error("background generation failed", zap.String("locale", locale), zap.String("path", path), zap.Error(err))
			return
		}
		if e.Status == http.StatusNotFound {
			g.missing.put(key, e)
		}
	}()
	return true
}

// Wait blocks until background generations finish.
func (g *Generator) Wait() {
	g.wg.Wait()
}
