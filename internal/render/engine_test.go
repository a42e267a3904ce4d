package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"sklinet.org/web/internal/appctx"
	"sklinet.org/web/internal/blocks"
	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/i18n"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	bundle, err := i18n.LoadEmbedded("cs", []string{"cs", "en"})
	require.NoError(t, err)
	e, err := New(Options{I18n: bundle})
	require.NoError(t, err)
	return e
}

func renderDoc(t *testing.T, e *Engine, name string, data any) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, name, data))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestEmbeddedTemplatesDefineLayoutParts(t *testing.T) {
	e := newTestEngine(t)
	for _, name := range []string{"base", "head", "progress", "layout", "navbar", "blocks", "preview_toolbar", "gtm_noscript", "loading", "error", "lazy/grid_helper", blocks.UnknownTemplate} {
		require.True(t, e.Has(name), "missing template %s", name)
	}
	for _, typ := range blocks.Default().Types() {
		require.True(t, e.Has("block/"+typ), "missing block template for %s", typ)
	}
}

func TestRenderBlocksInOrder(t *testing.T) {
	e := newTestEngine(t)
	app := appctx.New()
	app.Locale, app.DefaultLocale = "en", "cs"
	app.Page = &cms.Page{URL: "/"}
	v := &View{
		App:  app,
		Lang: "en",
		Blocks: []blocks.Entry{
			{ID: "hero-1", Type: "hero", Template: "block/hero", Props: blocks.Props{Data: blocks.HeroData{Title: "Welcome"}}},
			{ID: "x-1", Type: "carousel", Template: blocks.UnknownTemplate},
			{ID: "cta-1", Type: "call_to_action", Template: "block/call_to_action", Props: blocks.Props{Data: blocks.CallToActionData{Title: "Talk", Link: blocks.Link{Href: "/en/contact", Label: "Go"}}}},
		},
	}
	doc := renderDoc(t, e, "base", v)
	sections := doc.Find(".blocks > .block")
	require.Equal(t, 2, sections.Length(), "unknown blocks are hidden outside preview")
	require.Equal(t, "hero-1", sections.Eq(0).AttrOr("id", ""))
	require.Equal(t, "cta-1", sections.Eq(1).AttrOr("id", ""))
	require.Equal(t, "/en/contact", doc.Find("#cta-1 a").AttrOr("href", ""))
	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
}

func TestUnknownBlockMarkerInPreview(t *testing.T) {
	e := newTestEngine(t)
	app := appctx.New()
	app.Page = &cms.Page{URL: "/"}
	app.Preview = true
	v := &View{App: app, Lang: "cs", Blocks: []blocks.Entry{{ID: "x-1", Type: "carousel", Template: "block/carousel"}}}
	doc := renderDoc(t, e, "base", v)
	marker := doc.Find(`[data-block-type="carousel"]`)
	require.Equal(t, 1, marker.Length())
	require.Contains(t, marker.Text(), "Neznámý blok")
}

func TestGridHelperRenderedOnce(t *testing.T) {
	e := newTestEngine(t)
	app := appctx.New()
	app.Preview = true
	v := &View{App: app, Lang: "cs", GridHelper: true}
	for i := 0; i < 2; i++ {
		doc := renderDoc(t, e, "base", v)
		require.Equal(t, 12, doc.Find(".grid-helper__col").Length())
	}
}

func TestRenderErrorWritesNothing(t *testing.T) {
	e := newTestEngine(t)
	var buf bytes.Buffer
	err := e.Render(&buf, "does-not-exist", nil)
	require.Error(t, err)
	require.Zero(t, buf.Len())
}

func TestDevModeReadsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "loading.tmpl", `{{define "loading"}}custom {{t .Lang "page.loading"}}{{end}}`))
	e, err := New(Options{Dir: dir, Dev: true})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, "loading", LoadingView{Lang: "cs"}))
	require.True(t, strings.HasPrefix(buf.String(), "custom page.loading"))
}
