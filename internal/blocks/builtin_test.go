package blocks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sklinet.org/web/internal/calendar"
	"sklinet.org/web/internal/cms"
)

func TestRichTextIsSanitized(t *testing.T) {
	out, err := RenderMarkdown("# Nadpis\n\n<script>alert(1)</script>\n\n[odkaz](https://example.com)")
	require.NoError(t, err)
	html := string(out)
	require.Contains(t, html, "<h1")
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, `rel="nofollow"`)
}

func TestArticleBlockCarriesItem(t *testing.T) {
	cal, err := calendar.Init(context.Background(), calendar.PhaseFetch, "en", "UTC")
	require.NoError(t, err)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	blocks := []cms.Block{{
		ID:   "article-1",
		Type: "article",
		Data: map[string]any{
			"title":       "Launch",
			"body":        "We **launched** a new product today. It is fast and friendly.",
			"author":      "Jana",
			"publishedAt": "2024-05-14T09:00:00Z",
			"image":       map[string]any{"url": "/img/launch.png"},
		},
	}}
	m, err := Default().Resolve(context.Background(), Context{Locale: "en", Calendar: cal, Now: now}, blocks)
	require.NoError(t, err)
	item := m.FirstItem()
	require.NotNil(t, item)
	require.Equal(t, "Launch", item.Title)
	require.Equal(t, "/img/launch.png", item.Image)
	require.Equal(t, "We launched a new product today. It is fast and friendly.", item.Description)

	e, _ := m.Get("article-1")
	data := e.Props.Data.(ArticleData)
	require.Equal(t, "05/14/2024", data.Date)
}

func TestArticleDateOnlyUsesSiteZone(t *testing.T) {
	cal, err := calendar.Init(context.Background(), calendar.PhaseFetch, "en", "America/New_York")
	require.NoError(t, err)
	blocks := []cms.Block{{
		ID:   "article-1",
		Type: "article",
		Data: map[string]any{"title": "Launch", "publishedAt": "2024-05-14"},
	}}
	m, err := Default().Resolve(context.Background(), Context{Locale: "en", Calendar: cal}, blocks)
	require.NoError(t, err)
	e, _ := m.Get("article-1")
	data := e.Props.Data.(ArticleData)
	require.Equal(t, "05/14/2024", data.Date)
	require.Equal(t, "America/New_York", data.Published.Location().String())
	require.True(t, data.Published.Equal(time.Date(2024, 5, 14, 0, 0, 0, 0, cal.Location())))
}

func TestLinksAreLocalized(t *testing.T) {
	blocks := []cms.Block{
		{ID: "cta", Type: "call_to_action", Data: map[string]any{"title": "Contact", "label": "Write us", "url": "/kontakt"}},
		{ID: "links", Type: "menu_links", Data: map[string]any{"links": []any{
			map[string]any{"label": "Docs", "url": "https://docs.example.com"},
			map[string]any{"label": "About", "url": "/o-nas"},
			"ignored",
		}}},
	}
	m, err := Default().Resolve(context.Background(), Context{LocalePrefix: "/en"}, blocks)
	require.NoError(t, err)
	cta, _ := m.Get("cta")
	require.Equal(t, "/en/kontakt", cta.Props.Data.(CallToActionData).Link.Href)

	links, _ := m.Get("links")
	data := links.Props.Data.(MenuLinksData)
	require.Len(t, data.Links, 2)
	require.True(t, data.Links[0].External)
	require.Equal(t, "https://docs.example.com", data.Links[0].Href)
	require.Equal(t, "/en/o-nas", data.Links[1].Href)
}

func TestExcerptTruncatesOnWordBoundary(t *testing.T) {
	got := Excerpt("<p>Jedna dva tři čtyři pět</p><script>x()</script>", 12)
	require.Equal(t, "Jedna dva…", got)
	require.False(t, strings.Contains(Excerpt("<style>a{}</style><b>bold</b>", 0), "a{}"))
}
