package cms

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sklinet.org/web/internal/observability"
)

// LocalStore serves content from YAML documents laid out as
//
//	<root>/site.yaml
//	<root>/<locale>/web-setting.yaml
//	<root>/<locale>/redirects.yaml
//	<root>/<locale>/pages/*.yaml
//
// It is used when no remote CMS is configured.
type LocalStore struct {
	fsys fs.FS
}

// NewLocalStore opens a store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{fsys: os.DirFS(dir)}
}

// NewLocalStoreFS opens a store over an arbitrary filesystem (used by tests and embeds).
func NewLocalStoreFS(fsys fs.FS) *LocalStore {
	return &LocalStore{fsys: fsys}
}

type localSEO struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	NoIndex     bool   `yaml:"noIndex"`
}

type localPage struct {
	URL       string    `yaml:"url"`
	Title     string    `yaml:"title"`
	Draft     bool      `yaml:"draft"`
	UpdatedAt time.Time `yaml:"updatedAt"`
	SEO       localSEO  `yaml:"seo"`
	Redirect  *struct {
		To         string `yaml:"to"`
		Permanent  bool   `yaml:"permanent"`
		StatusCode int    `yaml:"statusCode"`
	} `yaml:"redirect"`
	Blocks []struct {
		ID   string         `yaml:"id"`
		Type string         `yaml:"type"`
		Data map[string]any `yaml:"data"`
	} `yaml:"blocks"`
}

type localMenuItem struct {
	Label    string          `yaml:"label"`
	URL      string          `yaml:"url"`
	Children []localMenuItem `yaml:"children"`
}

type localWebSetting struct {
	SiteName   string          `yaml:"siteName"`
	LogoURL    string          `yaml:"logoUrl"`
	FooterText string          `yaml:"footerText"`
	SEO        localSEO        `yaml:"seo"`
	MainMenu   []localMenuItem `yaml:"mainMenu"`
}

type localRedirect struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Permanent  bool   `yaml:"permanent"`
	StatusCode int    `yaml:"statusCode"`
}

// StaticPaths lists the URLs of every published page in locale.
func (s *LocalStore) StaticPaths(ctx context.Context, locale string) ([]StaticPath, error) {
	start := time.Now()
	pages, err := s.pages(locale)
	observability.ObserveCMSFetch("static_paths", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	paths := make([]StaticPath, 0, len(pages))
	for _, p := range pages {
		if p.Draft {
			continue
		}
		paths = append(paths, StaticPath{Path: p.URL, Locale: locale})
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Path < paths[j].Path })
	return paths, nil
}

// Page returns the page whose url equals path. Drafts are visible only in preview.
func (s *LocalStore) Page(ctx context.Context, p, locale string, preview bool) (Page, error) {
	p = SanitizePath(p)
	if p == "" {
		return Page{}, ErrNotFound
	}
	start := time.Now()
	pages, err := s.pages(locale)
	observability.ObserveCMSFetch("page", err, time.Since(start))
	if err != nil {
		return Page{}, err
	}
	for _, page := range pages {
		if page.URL != p {
			continue
		}
		if page.Draft && !preview {
			return Page{}, ErrNotFound
		}
		return page, nil
	}
	return Page{}, ErrNotFound
}

// WebSetting reads <locale>/web-setting.yaml.
func (s *LocalStore) WebSetting(ctx context.Context, locale string, preview bool) (WebSetting, error) {
	var raw localWebSetting
	if err := s.decode(path.Join(locale, "web-setting.yaml"), &raw); err != nil {
		return WebSetting{}, err
	}
	return WebSetting{
		Locale:     locale,
		SiteName:   strings.TrimSpace(raw.SiteName),
		LogoURL:    strings.TrimSpace(raw.LogoURL),
		FooterText: strings.TrimSpace(raw.FooterText),
		MainMenu:   mapLocalMenu(raw.MainMenu),
		SEO:        mapLocalSEO(raw.SEO),
	}, nil
}

// Site reads site.yaml.
func (s *LocalStore) Site(ctx context.Context, locale string) (Site, error) {
	var raw struct {
		Name     string `yaml:"name"`
		Hostname string `yaml:"hostname"`
	}
	if err := s.decode("site.yaml", &raw); err != nil {
		return Site{}, err
	}
	return Site{Name: strings.TrimSpace(raw.Name), Hostname: strings.TrimRight(strings.TrimSpace(raw.Hostname), "/")}, nil
}

// Redirect looks up path in <locale>/redirects.yaml.
func (s *LocalStore) Redirect(ctx context.Context, p, locale string) (Redirect, error) {
	var rules []localRedirect
	if err := s.decode(path.Join(locale, "redirects.yaml"), &rules); err != nil {
		return Redirect{}, err
	}
	p = SanitizePath(p)
	for _, rule := range rules {
		if SanitizePath(rule.From) == p && strings.TrimSpace(rule.To) != "" {
			return Redirect{
				Source:      p,
				Destination: strings.TrimSpace(rule.To),
				Permanent:   rule.Permanent,
				StatusCode:  rule.StatusCode,
			}, nil
		}
	}
	return Redirect{}, ErrNotFound
}

func (s *LocalStore) pages(locale string) ([]Page, error) {
	dir := path.Join(locale, "pages")
	entries, err := fs.ReadDir(s.fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cms: read %s: %w", dir, err)
	}
	pages := make([]Page, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		var raw localPage
		file := path.Join(dir, e.Name())
		if err := s.decode(file, &raw); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(e.Name(), ".yaml")
		pages = append(pages, mapLocalPage(id, locale, raw))
	}
	return pages, nil
}

func (s *LocalStore) decode(name string, out any) error {
	raw, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("cms: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cms: parse %s: %w", name, err)
	}
	return nil
}

func mapLocalPage(id, locale string, raw localPage) Page {
	url := SanitizePath(raw.URL)
	if strings.TrimSpace(raw.URL) == "" {
		url = "/" + id
		if id == "index" {
			url = "/"
		}
	}
	page := Page{
		ID:        id,
		URL:       url,
		Locale:    locale,
		Title:     strings.TrimSpace(raw.Title),
		SEO:       mapLocalSEO(raw.SEO),
		Draft:     raw.Draft,
		UpdatedAt: raw.UpdatedAt,
	}
	for i, b := range raw.Blocks {
		blockID := strings.TrimSpace(b.ID)
		if blockID == "" {
			blockID = fmt.Sprintf("%s-%d", b.Type, i+1)
		}
		page.Blocks = append(page.Blocks, Block{ID: blockID, Type: strings.TrimSpace(b.Type), Data: b.Data})
	}
	if raw.Redirect != nil && strings.TrimSpace(raw.Redirect.To) != "" {
		page.Redirect = &Redirect{
			Source:      url,
			Destination: strings.TrimSpace(raw.Redirect.To),
			Permanent:   raw.Redirect.Permanent,
			StatusCode:  raw.Redirect.StatusCode,
		}
	}
	return page
}

func mapLocalSEO(raw localSEO) SEO {
	return SEO{
		Title:       strings.TrimSpace(raw.Title),
		Description: strings.TrimSpace(raw.Description),
		Image:       strings.TrimSpace(raw.Image),
		NoIndex:     raw.NoIndex,
	}
}

func mapLocalMenu(items []localMenuItem) []MenuItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		out = append(out, MenuItem{
			Label:    strings.TrimSpace(it.Label),
			URL:      strings.TrimSpace(it.URL),
			Children: mapLocalMenu(it.Children),
		})
	}
	return out
}
