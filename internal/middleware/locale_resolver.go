package middleware

import (
	"net/http"
	"strings"

	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/i18n"
)

// LocaleCookie remembers an explicit language choice for locale detection.
const LocaleCookie = "hl"

// Locale resolves the page locale from the first path segment. A segment
// naming a supported non-default locale selects it and is stripped from the
// page path; anything else is served in the default locale. A path prefixed
// with the default locale is redirected to its unprefixed form.
//
// With detect set, a request for "/" is redirected to the locale preferred by
// the `hl` cookie or Accept-Language header when that is not the default.
func Locale(bundle *i18n.Bundle, detect bool) func(http.Handler) http.Handler {
	def := bundle.Fallback()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale, pagePath := def, r.URL.Path
			seg, rest := splitFirst(r.URL.Path)
			switch {
			case seg == def:
				// rest may start with "//"; the target must stay on this host.
				target := cms.SanitizePath(rest)
				if target == "" {
					target = "/"
				}
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusPermanentRedirect)
				return
			case seg != "" && bundle.IsSupported(seg):
				locale, pagePath = seg, rest
			case detect && r.URL.Path == "/":
				if preferred := detectLocale(bundle, r); preferred != def {
					http.Redirect(w, r, "/"+preferred, http.StatusTemporaryRedirect)
					return
				}
			}
			w.Header().Set("Content-Language", locale)
			ctx := WithLocale(r.Context(), locale)
			ctx = WithPagePath(ctx, pagePath)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(bundle *i18n.Bundle, r *http.Request) string {
	if c, err := r.Cookie(LocaleCookie); err == nil {
		if v := strings.ToLower(strings.TrimSpace(c.Value)); bundle.IsSupported(v) {
			return v
		}
	}
	return bundle.Resolve(r.Header.Get("Accept-Language"))
}

// splitFirst returns the first path segment and the remaining path ("/" when empty).
func splitFirst(p string) (string, string) {
	trimmed := strings.TrimPrefix(p, "/")
	if trimmed == "" {
		return "", "/"
	}
	seg, rest, found := strings.Cut(trimmed, "/")
	if !found || rest == "" {
		return seg, "/"
	}
	return seg, "/" + rest
}

// Lang returns the request locale or the fallback when the middleware did not run.
func Lang(r *http.Request, fallback string) string {
	if l, ok := LocaleFrom(r.Context()); ok {
		return l
	}
	return fallback
}

// VaryLocale marks responses as varying by Accept-Language and the locale
// cookie, since the same URL may be answered with a detection redirect.
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		w.Header().Add("Vary", "Cookie")
		next.ServeHTTP(w, r)
	})
}
