package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sklinet.org/web/internal/appctx"
	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/i18n"
	mw "sklinet.org/web/internal/middleware"
	"sklinet.org/web/internal/observability"
)

// Preview toggles preview mode for editors.
type Preview struct {
	Secret   string
	Cookies  *mw.PreviewCookies
	Provider cms.Provider
	Bundle   *i18n.Bundle
}

// Enter handles GET /api/preview?secret=...&slug=/path[&locale=en]. It
// verifies the secret and that the page exists as a draft or published page,
// then sets the preview cookie and redirects to the page.
func (h *Preview) Enter(w http.ResponseWriter, r *http.Request) {
	if h.Secret == "" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if subtle.ConstantTimeCompare([]byte(q.Get("secret")), []byte(h.Secret)) != 1 {
		mw.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	slug := cms.SanitizePath(q.Get("slug"))
	if slug == "" {
		mw.WriteError(w, http.StatusBadRequest, "invalid slug")
		return
	}
	def := h.Bundle.Fallback()
	locale := strings.ToLower(strings.TrimSpace(q.Get("locale")))
	if locale == "" {
		locale = def
	}
	if !h.Bundle.IsSupported(locale) {
		mw.WriteError(w, http.StatusBadRequest, "invalid locale")
		return
	}
	if _, err := h.Provider.Page(r.Context(), slug, locale, true); err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			mw.WriteError(w, http.StatusUnauthorized, "invalid slug")
			return
		}
		observability.FromContext(r.Context()).Error("preview lookup failed", zap.String("slug", slug), zap.Error(err))
		mw.WriteError(w, http.StatusBadGateway, "content unavailable")
		return
	}
	h.Cookies.Enable(w, slug)
	target := appctx.LocalePrefix(locale, def) + slug
	if strings.HasSuffix(target, "/") && len(target) > 1 {
		target = strings.TrimSuffix(target, "/")
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// Exit handles GET /api/exit-preview.
func (h *Preview) Exit(w http.ResponseWriter, r *http.Request) {
	h.Cookies.Clear(w)
	target := "/"
	if slug := cms.SanitizePath(r.URL.Query().Get("slug")); slug != "" {
		target = slug
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
