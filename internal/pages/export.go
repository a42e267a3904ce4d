package pages

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sklinet.org/web/internal/appctx"
)

// Export pre-renders the static path set and writes every page to
// <dir>/<locale-prefix>/<path>/index.html, plus a 404.html per locale.
// Redirects are written as meta refresh documents.
func (g *Generator) Export(ctx context.Context, dir string) (int, error) {
	if _, err := g.Prerender(ctx); err != nil {
		return 0, err
	}
	written := 0
	for _, p := range g.store.Paths() {
		e, ok := g.store.Get(p.Locale, p.Path)
		if !ok {
			continue
		}
		body := e.HTML
		if e.Redirect != nil {
			body = redirectDocument(e.Redirect.Destination)
		}
		target := ExportPath(dir, p.Locale, g.site.DefaultLocale, p.Path)
		if err := writeFile(target, body); err != nil {
			return written, err
		}
		written++
	}
	for _, locale := range g.site.Locales {
		e, err := g.NotFound(ctx, locale, "/404")
		if err != nil {
			return written, fmt.Errorf("pages: export 404 %s: %w", locale, err)
		}
		prefix := strings.TrimPrefix(appctx.LocalePrefix(locale, g.site.DefaultLocale), "/")
		if err := writeFile(filepath.Join(dir, prefix, "404.html"), e.HTML); err != nil {
			return written, err
		}
	}
	g.logger.Info("static export written", zap.String("dir", dir), zap.Int("pages", written))
	return written, nil
}

// ExportPath maps a page to its index.html location under dir.
func ExportPath(dir, locale, defaultLocale, pagePath string) string {
	prefix := strings.TrimPrefix(appctx.LocalePrefix(locale, defaultLocale), "/")
	rel := filepath.FromSlash(strings.Trim(pagePath, "/"))
	return filepath.Join(dir, prefix, rel, "index.html")
}

func writeFile(target string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("pages: create %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return fmt.Errorf("pages: write %s: %w", target, err)
	}
	return nil
}

func redirectDocument(dest string) []byte {
	d := html.EscapeString(dest)
	return []byte(`<!doctype html><html><head><meta charset="utf-8"><meta http-equiv="refresh" content="0; url=` + d +
		`"><link rel="canonical" href="` + d + `"><meta name="robots" content="noindex"></head><body><a href="` + d + `">` + d + `</a></body></html>`)
}
