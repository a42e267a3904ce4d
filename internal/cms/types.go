package cms

import (
	"net/http"
	"time"
)

// Page is a locale-scoped content page composed of ordered blocks.
type Page struct {
	ID        string
	URL       string
	Locale    string
	Title     string
	SEO       SEO
	Blocks    []Block
	Redirect  *Redirect
	Draft     bool
	UpdatedAt time.Time
}

// SEO holds optional metadata overrides.
type SEO struct {
	Title       string
	Description string
	Image       string
	NoIndex     bool
}

// Block is a single content unit on a page. Data carries the raw CMS attributes.
type Block struct {
	ID   string
	Type string
	Data map[string]any
}

// MenuItem is an entry of the main navigation menu.
type MenuItem struct {
	Label    string
	URL      string
	Children []MenuItem
}

// WebSetting is the per-locale singleton holding site-wide configuration.
type WebSetting struct {
	Locale     string
	SiteName   string
	LogoURL    string
	FooterText string
	MainMenu   []MenuItem
	SEO        SEO
}

// Site identifies the website served by the CMS.
type Site struct {
	Name     string
	Hostname string
}

// Redirect instructs the renderer to short-circuit to another location.
type Redirect struct {
	Source      string
	Destination string
	Permanent   bool
	StatusCode  int
}

// Status returns the HTTP status for the redirect.
func (r Redirect) Status() int {
	if r.StatusCode >= 300 && r.StatusCode < 400 {
		return r.StatusCode
	}
	if r.Permanent {
		return http.StatusPermanentRedirect
	}
	return http.StatusTemporaryRedirect
}

// MetaItem is per-block metadata (e.g. an article) used as SEO fallback for the page.
type MetaItem struct {
	Title       string
	Description string
	Image       string
	Author      string
	PublishedAt time.Time
}

// StaticPath is a page path known to the CMS for one locale.
type StaticPath struct {
	Path   string
	Locale string
}
