package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sklinet.org/web/internal/config"
)

func testConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	values := map[string]string{
		"WEB_CONTENT_DIR":    "../../content",
		"WEB_PUBLIC_DIR":     "../../public",
		"WEB_HOSTNAME":       "https://www.example.com",
		"WEB_LOCALES":        "cs,en",
		"WEB_DEFAULT_LOCALE": "cs",
		"WEB_SSG_FALLBACK":   "blocking",
		"WEB_PREVIEW_SECRET": "top-secret",
		"WEB_ENV":            "development",
	}
	for k, v := range env {
		values[k] = v
	}
	cfg, err := config.Load(
		config.WithConfigFile(""),
		config.WithEnvFile(""),
		config.WithEnvMap(values),
		config.WithoutSystemEnv(),
	)
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, env map[string]string) (*site, http.Handler) {
	t.Helper()
	s, err := newSite(testConfig(t, env), zap.NewNop())
	require.NoError(t, err)
	if s.generator.Static() {
		_, err := s.generator.Prerender(context.Background())
		require.NoError(t, err)
	}
	return s, s.router()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthzOK(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestMetricsExposed(t *testing.T) {
	_, h := newTestServer(t, nil)
	get(t, h, "/")
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "web_page_renders_total")
}

func TestHomePageRenders(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "cs", rec.Header().Get("Content-Language"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	require.Equal(t, "cs", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, 1, doc.Find("#page-progress").Length())
	require.Contains(t, doc.Find(".block--hero").Text(), "Weby, které fungují")
	require.Equal(t, "https://www.example.com/", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
}

func TestLocalizedPageAndDefaultPrefixRedirect(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := get(t, h, "/en/services")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	rec = get(t, h, "/cs/sluzby")
	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
	require.Equal(t, "/sluzby", rec.Header().Get("Location"))

	rec = get(t, h, "/cs//evil.example/x")
	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
	require.Equal(t, "/evil.example/x", rec.Header().Get("Location"))
}

func TestContentRedirectAndNotFound(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := get(t, h, "/reference")
	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
	require.Equal(t, "/sluzby", rec.Header().Get("Location"))

	rec = get(t, h, "/tohle-neexistuje")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewShowsDrafts(t *testing.T) {
	_, h := newTestServer(t, nil)
	require.Equal(t, http.StatusNotFound, get(t, h, "/pripravujeme").Code)

	rec := get(t, h, "/api/preview?secret=top-secret&slug=/pripravujeme")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/pripravujeme", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	page := httptest.NewRecorder()
	h.ServeHTTP(page, req)
	require.Equal(t, http.StatusOK, page.Code)
	require.Contains(t, page.Body.String(), "preview-toolbar")
}

func TestAssetsServed(t *testing.T) {
	_, h := newTestServer(t, nil)
	rec := get(t, h, "/assets/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestRunExportWritesFiles(t *testing.T) {
	out := t.TempDir()
	cfg := testConfig(t, nil)
	require.NoError(t, runExport(context.Background(), cfg, zap.NewNop(), out))

	for _, rel := range []string{
		"index.html",
		filepath.Join("sluzby", "index.html"),
		filepath.Join("en", "services", "index.html"),
		"404.html",
		filepath.Join("en", "404.html"),
	} {
		_, err := os.Stat(filepath.Join(out, rel))
		require.NoError(t, err, rel)
	}
	_, err := os.Stat(filepath.Join(out, "pripravujeme", "index.html"))
	require.True(t, os.IsNotExist(err), "drafts are not exported")
}
