package render

import (
	"html/template"
	"time"

	"sklinet.org/web/internal/appctx"
	"sklinet.org/web/internal/blocks"
	"sklinet.org/web/internal/calendar"
	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/nav"
	"sklinet.org/web/internal/seo"
)

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	GTMContainerID string // e.g. GTM-XXXXXXX
}

// View is the data passed to the "base" layout.
type View struct {
	App    *appctx.App
	Lang   string
	Status int

	Meta        seo.Meta
	JSONLD      []template.JS
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Blocks      []blocks.Entry

	Analytics     Analytics
	ProgressColor string
	GridHelper    bool
	Year          int
	Now           time.Time
	// Static marks output kept in the page store or exported to disk;
	// such output must not contain text relative to the render time.
	Static bool
}

// NotFound reports whether the layout renders without page content.
func (v *View) NotFound() bool {
	return v.App == nil || v.App.Page == nil
}

// BlockView is the data passed to a single block template.
type BlockView struct {
	ID      string
	Type    string
	Data    any
	Item    *cms.MetaItem
	Lang    string
	Preview bool

	calendar *calendar.Formatter
	now      time.Time
	static   bool
}

// Relative formats t relative to the render time ("Yesterday at 9:00 AM").
// It is empty for static output.
func (b BlockView) Relative(t time.Time) string {
	if b.static || b.calendar == nil || t.IsZero() {
		return ""
	}
	return b.calendar.Calendar(t, b.now)
}

// LoadingView is the data of the fallback placeholder.
type LoadingView struct {
	Lang string
}

// ErrorView is the data of the error page.
type ErrorView struct {
	Lang      string
	Status    int
	RequestID string
}
