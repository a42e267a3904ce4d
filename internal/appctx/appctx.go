// Package appctx defines the per-render application context handed to
// every template of a page.
package appctx

import (
	"strings"

	"github.com/google/uuid"

	"sklinet.org/web/internal/calendar"
	"sklinet.org/web/internal/cms"
)

// App is built fresh for every render and passed down explicitly.
type App struct {
	RenderID      string
	CurrentURL    string
	Hostname      string
	Locale        string
	DefaultLocale string
	Page          *cms.Page
	Site          cms.Site
	Item          *cms.MetaItem
	WebSetting    cms.WebSetting
	Redirect      *cms.Redirect
	Preview       bool
	Calendar      *calendar.Formatter
}

// New returns an App with a fresh render ID.
func New() *App {
	return &App{RenderID: uuid.NewString()}
}

// LocalePrefix returns "" for the default locale and "/<locale>" otherwise.
func LocalePrefix(locale, defaultLocale string) string {
	if locale == "" || locale == defaultLocale {
		return ""
	}
	return "/" + locale
}

// LocalePrefix returns the URL prefix of the render locale.
func (a *App) LocalePrefix() string {
	return LocalePrefix(a.Locale, a.DefaultLocale)
}

// CanonicalURL joins the site hostname with the current URL. An empty
// current URL denotes the site root.
func (a *App) CanonicalURL() string {
	host := strings.TrimRight(a.Hostname, "/")
	if host == "" {
		host = strings.TrimRight(a.Site.Hostname, "/")
	}
	if a.CurrentURL == "" {
		return host + "/"
	}
	return host + a.CurrentURL
}

// HasPage reports whether the render has page content (false for 404s).
func (a *App) HasPage() bool { return a.Page != nil }
