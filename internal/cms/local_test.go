package cms

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"
)

func testContentFS() fstest.MapFS {
	return fstest.MapFS{
		"site.yaml": {Data: []byte("name: Sklinet\nhostname: https://www.example.com/\n")},
		"cs/web-setting.yaml": {Data: []byte(`
siteName: Sklinet
seo:
  title: Sklinet
  description: Webové aplikace
mainMenu:
  - label: Úvod
    url: /
  - label: Služby
    url: /sluzby
    children:
      - label: Web
        url: /sluzby/web
`)},
		"cs/redirects.yaml": {Data: []byte(`
- from: /stara
  to: /nova
  permanent: true
- from: /docasna
  to: https://example.org/
`)},
		"cs/pages/index.yaml": {Data: []byte(`
title: Úvod
blocks:
  - id: hero-1
    type: hero
    data:
      title: Vítejte
`)},
		"cs/pages/sluzby.yaml": {Data: []byte(`
url: /sluzby
title: Služby
updatedAt: 2024-03-01T10:00:00Z
`)},
		"cs/pages/koncept.yaml": {Data: []byte(`
url: /koncept
title: Koncept
draft: true
`)},
		"cs/pages/presun.yaml": {Data: []byte(`
url: /presun
redirect:
  to: /sluzby
`)},
	}
}

func TestLocalStoreStaticPathsSkipsDrafts(t *testing.T) {
	s := NewLocalStoreFS(testContentFS())
	paths, err := s.StaticPaths(context.Background(), "cs")
	if err != nil {
		t.Fatalf("StaticPaths: %v", err)
	}
	want := []string{"/", "/presun", "/sluzby"}
	if len(paths) != len(want) {
		t.Fatalf("unexpected paths %+v", paths)
	}
	for i, p := range paths {
		if p.Path != want[i] || p.Locale != "cs" {
			t.Errorf("path %d: got %+v want %s", i, p, want[i])
		}
	}
}

func TestLocalStoreStaticPathsUnknownLocale(t *testing.T) {
	s := NewLocalStoreFS(testContentFS())
	paths, err := s.StaticPaths(context.Background(), "de")
	if err != nil {
		t.Fatalf("StaticPaths: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no paths, got %+v", paths)
	}
}

func TestLocalStorePage(t *testing.T) {
	s := NewLocalStoreFS(testContentFS())
	ctx := context.Background()

	home, err := s.Page(ctx, "/", "cs", false)
	if err != nil {
		t.Fatalf("Page(/): %v", err)
	}
	if home.ID != "index" || len(home.Blocks) != 1 || home.Blocks[0].Data["title"] != "Vítejte" {
		t.Fatalf("unexpected home page %+v", home)
	}

	services, err := s.Page(ctx, "sluzby", "cs", false)
	if err != nil {
		t.Fatalf("Page(sluzby): %v", err)
	}
	if !services.UpdatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected updatedAt %s", services.UpdatedAt)
	}

	if _, err := s.Page(ctx, "/koncept", "cs", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft should be hidden outside preview, got %v", err)
	}
	if _, err := s.Page(ctx, "/koncept", "cs", true); err != nil {
		t.Errorf("draft should be visible in preview: %v", err)
	}

	moved, err := s.Page(ctx, "/presun", "cs", false)
	if err != nil {
		t.Fatalf("Page(presun): %v", err)
	}
	if moved.Redirect == nil || moved.Redirect.Destination != "/sluzby" {
		t.Errorf("expected page redirect, got %+v", moved.Redirect)
	}

	if _, err := s.Page(ctx, "/../etc/passwd", "cs", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected traversal to be rejected, got %v", err)
	}
}

func TestLocalStoreWebSettingAndSite(t *testing.T) {
	s := NewLocalStoreFS(testContentFS())
	ctx := context.Background()
	ws, err := s.WebSetting(ctx, "cs", false)
	if err != nil {
		t.Fatalf("WebSetting: %v", err)
	}
	if len(ws.MainMenu) != 2 || ws.MainMenu[1].Children[0].URL != "/sluzby/web" {
		t.Fatalf("unexpected menu %+v", ws.MainMenu)
	}
	if _, err := s.WebSetting(ctx, "en", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing locale, got %v", err)
	}
	site, err := s.Site(ctx, "cs")
	if err != nil {
		t.Fatalf("Site: %v", err)
	}
	if site.Hostname != "https://www.example.com" {
		t.Errorf("expected trimmed hostname, got %s", site.Hostname)
	}
}

func TestLocalStoreRedirect(t *testing.T) {
	s := NewLocalStoreFS(testContentFS())
	ctx := context.Background()
	r, err := s.Redirect(ctx, "/stara", "cs")
	if err != nil {
		t.Fatalf("Redirect: %v", err)
	}
	if r.Destination != "/nova" || r.Status() != 308 {
		t.Errorf("unexpected redirect %+v", r)
	}
	r, err = s.Redirect(ctx, "/docasna", "cs")
	if err != nil {
		t.Fatalf("Redirect: %v", err)
	}
	if r.Status() != 307 {
		t.Errorf("expected temporary redirect, got %d", r.Status())
	}
	if _, err := s.Redirect(ctx, "/nic", "cs"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreMalformedYAML(t *testing.T) {
	fsys := fstest.MapFS{"cs/pages/broken.yaml": {Data: []byte("title: [unterminated\n")}}
	s := NewLocalStoreFS(fsys)
	_, err := s.Page(context.Background(), "/broken", "cs", false)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
