package pages

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sklinet.org/web/internal/blocks"
	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/i18n"
	"sklinet.org/web/internal/render"
)

// fakeProvider is an in-memory cms.Provider keyed by locale.
type fakeProvider struct {
	mu        sync.Mutex
	pages     map[string]map[string]cms.Page
	settings  map[string]cms.WebSetting
	redirects map[string]map[string]cms.Redirect
	site      cms.Site
	err       error
	pageCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		pages:     map[string]map[string]cms.Page{},
		settings:  map[string]cms.WebSetting{},
		redirects: map[string]map[string]cms.Redirect{},
		site:      cms.Site{Name: "Sklinet", Hostname: "https://www.example.com"},
	}
}

func (f *fakeProvider) addPage(locale string, p cms.Page) {
	if f.pages[locale] == nil {
		f.pages[locale] = map[string]cms.Page{}
	}
	p.Locale = locale
	f.pages[locale][p.URL] = p
}

func (f *fakeProvider) StaticPaths(_ context.Context, locale string) ([]cms.StaticPath, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []cms.StaticPath
	for url := range f.pages[locale] {
		out = append(out, cms.StaticPath{Path: url, Locale: locale})
	}
	return out, nil
}

func (f *fakeProvider) Page(_ context.Context, path, locale string, preview bool) (cms.Page, error) {
	f.mu.Lock()
	f.pageCalls++
	f.mu.Unlock()
	if f.err != nil {
		return cms.Page{}, f.err
	}
	p, ok := f.pages[locale][path]
	if !ok || (p.Draft && !preview) {
		return cms.Page{}, cms.ErrNotFound
	}
	return p, nil
}

func (f *fakeProvider) WebSetting(_ context.Context, locale string, _ bool) (cms.WebSetting, error) {
	ws, ok := f.settings[locale]
	if !ok {
		return cms.WebSetting{}, cms.ErrNotFound
	}
	return ws, nil
}

func (f *fakeProvider) Site(context.Context, string) (cms.Site, error) {
	return f.site, nil
}

func (f *fakeProvider) Redirect(_ context.Context, path, locale string) (cms.Redirect, error) {
	r, ok := f.redirects[locale][path]
	if !ok {
		return cms.Redirect{}, cms.ErrNotFound
	}
	return r, nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageCalls
}

// sampleProvider has a Czech home page, an English about page and a menu.
func sampleProvider() *fakeProvider {
	f := newFakeProvider()
	menu := []cms.MenuItem{{Label: "Úvod", URL: "/"}, {Label: "O nás", URL: "/o-nas"}}
	f.settings["cs"] = cms.WebSetting{Locale: "cs", SiteName: "Sklinet", MainMenu: menu, SEO: cms.SEO{Description: "Weby na míru"}}
	f.settings["en"] = cms.WebSetting{Locale: "en", SiteName: "Sklinet", MainMenu: []cms.MenuItem{{Label: "About", URL: "/about"}}}
	f.addPage("cs", cms.Page{ID: "1", URL: "/", Title: "Úvod", Blocks: []cms.Block{
		{ID: "hero-1", Type: "hero", Data: map[string]any{"title": "Vítejte"}},
		{ID: "text-1", Type: "rich_text", Data: map[string]any{"body": "Ahoj **světe**"}},
	}})
	f.addPage("cs", cms.Page{ID: "2", URL: "/o-nas", Title: "O nás"})
	f.addPage("en", cms.Page{ID: "3", URL: "/about", Title: "About", Blocks: []cms.Block{
		{ID: "article-1", Type: "article", Data: map[string]any{"title": "Our story", "body": "Since 2003.", "publishedAt": "2024-01-02"}},
	}})
	f.redirects["cs"] = map[string]cms.Redirect{"/stara": {Source: "/stara", Destination: "/o-nas", Permanent: true}}
	return f
}

func newTestEngine(t *testing.T) *render.Engine {
	t.Helper()
	bundle, err := i18n.LoadEmbedded("cs", []string{"cs", "en"})
	require.NoError(t, err)
	e, err := render.New(render.Options{I18n: bundle})
	require.NoError(t, err)
	return e
}

func newTestRenderer(t *testing.T, cfg RendererConfig) *Renderer {
	t.Helper()
	if cfg.TimeZone == "" {
		cfg.TimeZone = "Europe/Prague"
	}
	return NewRenderer(newTestEngine(t), cfg)
}

func newTestResolver(p cms.Provider) *Resolver {
	return NewResolver(p, blocks.Default(), "Europe/Prague")
}
