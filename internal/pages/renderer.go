package pages

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"time"

	"sklinet.org/web/internal/appctx"
	"sklinet.org/web/internal/calendar"
	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/nav"
	"sklinet.org/web/internal/render"
	"sklinet.org/web/internal/seo"
)

// RendererConfig holds site-wide render settings.
type RendererConfig struct {
	TimeZone      string
	GTMCode       string
	ProgressColor string
	GridHelper    bool
}

// Renderer composes the page layout from resolved props.
type Renderer struct {
	engine *render.Engine
	cfg    RendererConfig
	now    func() time.Time
}

func NewRenderer(engine *render.Engine, cfg RendererConfig) *Renderer {
	if cfg.ProgressColor == "" {
		cfg.ProgressColor = "#00B5EC"
	}
	return &Renderer{engine: engine, cfg: cfg, now: time.Now}
}

// RenderInput is one render request.
type RenderInput struct {
	Props Props
	// AsPath is the requested path without the locale prefix.
	AsPath string
	// IsFallback renders only the loading placeholder.
	IsFallback bool
	// Status is reflected in the document (robots, 404 copy). Zero means 200.
	Status int
	// Static is set for pages kept in the store or exported.
	Static bool
}

// Render writes the page document for in to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, in RenderInput) error {
	props := in.Props
	item := props.Blocks.FirstItem()
	menuItems := props.WebSetting.MainMenu
	if menuItems == nil {
		menuItems = []cms.MenuItem{}
	}
	asPath := in.AsPath
	if asPath == "" {
		asPath = props.Path
	}
	currentURL := CurrentURL(props.Locale, props.DefaultLocale, asPath)

	if in.IsFallback {
		return r.engine.Render(w, "loading", render.LoadingView{Lang: props.Locale})
	}

	cal, err := calendar.Init(ctx, calendar.PhaseRender, props.Locale, r.cfg.TimeZone)
	if err != nil {
		return err
	}

	now := r.now()
	app := appctx.New()
	app.CurrentURL = currentURL
	app.Hostname = props.Hostname
	app.Locale = props.Locale
	app.DefaultLocale = props.DefaultLocale
	app.Page = props.Page
	app.Site = props.Site
	app.Item = item
	app.WebSetting = props.WebSetting
	app.Redirect = props.Redirect
	app.Preview = props.Preview
	app.Calendar = cal

	status := in.Status
	if status == 0 {
		status = http.StatusOK
		if props.Page == nil {
			status = http.StatusNotFound
		}
	}
	view := &render.View{
		App:           app,
		Lang:          props.Locale,
		Status:        status,
		Nav:           nav.Build(menuItems, props.Path, app.LocalePrefix()),
		Breadcrumbs:   nav.Breadcrumbs(props.Path, app.LocalePrefix(), menuItems),
		Blocks:        props.Blocks.Entries(),
		Analytics:     render.Analytics{GTMContainerID: r.cfg.GTMCode},
		ProgressColor: r.cfg.ProgressColor,
		GridHelper:    r.cfg.GridHelper,
		Year:          now.In(cal.Location()).Year(),
		Now:           now,
		Static:        in.Static,
	}
	view.Meta = seo.Build(seo.Input{
		Page:       props.Page,
		Item:       item,
		WebSetting: props.WebSetting,
		Site:       props.Site,
		Canonical:  app.CanonicalURL(),
		Locale:     props.Locale,
	})
	view.JSONLD = structuredData(app, view)
	return r.engine.Render(w, "base", view)
}

func structuredData(app *appctx.App, view *render.View) []template.JS {
	if app.Page == nil {
		return nil
	}
	name := view.Meta.OG.SiteName
	root := app.Hostname
	out := []template.JS{
		seo.JSON(seo.Organization(name, root, app.WebSetting.LogoURL)),
		seo.JSON(seo.WebSite(name, root, app.Locale)),
	}
	if len(view.Breadcrumbs) > 1 {
		items := make([]seo.BreadcrumbItem, 0, len(view.Breadcrumbs))
		for _, c := range view.Breadcrumbs {
			label := c.Label
			if label == "" {
				label = name
			}
			items = append(items, seo.BreadcrumbItem{Name: label, Item: root + c.Href})
		}
		out = append(out, seo.JSON(seo.BreadcrumbList(items)))
	}
	if it := app.Item; it != nil && !it.PublishedAt.IsZero() {
		out = append(out, seo.JSON(seo.Article(it.Title, app.CanonicalURL(), it.Image, it.Author, it.PublishedAt)))
	}
	return out
}
