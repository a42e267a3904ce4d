// Package handlers contains the HTTP handlers of the site.
package handlers

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"sklinet.org/web/internal/cms"
	mw "sklinet.org/web/internal/middleware"
	"sklinet.org/web/internal/observability"
	"sklinet.org/web/internal/pages"
	"sklinet.org/web/internal/render"
)

// Pages serves CMS pages, from the static store when static generation is
// active and rendered per request otherwise.
type Pages struct {
	Generator     *pages.Generator
	Resolver      *pages.Resolver
	Renderer      *pages.Renderer
	Engine        *render.Engine
	DefaultLocale string
	Hostname      string
}

func (h *Pages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locale := mw.Lang(r, h.DefaultLocale)
	pagePath := cms.SanitizePath(mw.PagePath(ctx))
	if pagePath == "" {
		h.serveNotFound(w, r, locale, "/")
		return
	}

	if mw.IsPreview(ctx) || !h.Generator.Static() {
		h.serveDynamic(w, r, locale, pagePath, mw.IsPreview(ctx))
		return
	}

	if e, ok := h.Generator.Lookup(locale, pagePath); ok {
		h.writeEntry(w, r, locale, e, "static")
		return
	}

	switch h.Generator.Fallback() {
	case pages.FallbackFalse:
		if !h.Generator.Known(locale, pagePath) {
			h.serveNotFound(w, r, locale, pagePath)
			return
		}
		h.serveBlocking(w, r, locale, pagePath)
	case pages.FallbackTrue:
		h.Generator.GenerateAsync(locale, pagePath)
		h.serveLoading(w, r, locale)
	default:
		h.serveBlocking(w, r, locale, pagePath)
	}
}

func (h *Pages) serveBlocking(w http.ResponseWriter, r *http.Request, locale, pagePath string) {
	e, err := h.Generator.Build(r.Context(), locale, pagePath, true)
	if err != nil {
		h.serveError(w, r, locale, err)
		return
	}
	h.writeEntry(w, r, locale, e, "generated")
}

func (h *Pages) serveDynamic(w http.ResponseWriter, r *http.Request, locale, pagePath string, preview bool) {
	res, err := h.Resolver.Resolve(r.Context(), pages.Params{
		Slug:          cms.SplitSlug(pagePath),
		Locale:        locale,
		DefaultLocale: h.DefaultLocale,
		Preview:       preview,
		Hostname:      h.Hostname,
	})
	if err != nil {
		h.serveError(w, r, locale, err)
		return
	}
	if res.Kind == pages.KindRedirect {
		h.writeEntry(w, r, locale, pages.Entry{Status: res.Props.Redirect.Status(), Redirect: res.Props.Redirect}, "dynamic")
		return
	}
	status := http.StatusOK
	if res.Kind == pages.KindNotFound {
		status = http.StatusNotFound
	}
	var buf bytes.Buffer
	if err := h.Renderer.Render(r.Context(), &buf, pages.RenderInput{Props: res.Props, AsPath: pagePath, Status: status}); err != nil {
		h.serveError(w, r, locale, err)
		return
	}
	h.writeEntry(w, r, locale, pages.Entry{Status: status, HTML: buf.Bytes()}, "dynamic")
}

func (h *Pages) serveNotFound(w http.ResponseWriter, r *http.Request, locale, pagePath string) {
	e, err := h.Generator.NotFound(r.Context(), locale, pagePath)
	if err != nil {
		h.serveError(w, r, locale, err)
		return
	}
	h.writeEntry(w, r, locale, e, "not_found")
}

func (h *Pages) serveLoading(w http.ResponseWriter, r *http.Request, locale string) {
	var buf bytes.Buffer
	err := h.Renderer.Render(r.Context(), &buf, pages.RenderInput{
		Props:      pages.Props{Locale: locale, DefaultLocale: h.DefaultLocale},
		IsFallback: true,
	})
	if err != nil {
		h.serveError(w, r, locale, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	h.writeEntry(w, r, locale, pages.Entry{Status: http.StatusOK, HTML: buf.Bytes()}, "fallback")
}

func (h *Pages) writeEntry(w http.ResponseWriter, r *http.Request, locale string, e pages.Entry, outcome string) {
	if e.Redirect != nil {
		observability.ObservePageRender(locale, "redirect")
		http.Redirect(w, r, e.Redirect.Destination, e.Redirect.Status())
		return
	}
	if e.Status == http.StatusNotFound {
		outcome = "not_found"
	}
	observability.ObservePageRender(locale, outcome)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(e.Status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(e.HTML)
}

func (h *Pages) serveError(w http.ResponseWriter, r *http.Request, locale string, err error) {
	observability.FromContext(r.Context()).Error("page render failed",
		zap.String("path", r.URL.Path),
		zap.String("locale", locale),
		zap.Error(err),
	)
	observability.ObservePageRender(locale, "error")
	var buf bytes.Buffer
	view := render.ErrorView{Lang: locale, Status: http.StatusInternalServerError, RequestID: requestID(r)}
	if rerr := h.Engine.Render(&buf, "error", view); rerr != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(buf.Bytes())
}
