package pages

import "sklinet.org/web/internal/appctx"

// CurrentURL returns the locale-prefixed URL of asPath, with the site root
// of the default locale collapsing to "".
//
//	CurrentURL("cs", "cs", "/")       == ""
//	CurrentURL("cs", "cs", "/about")  == "/about"
//	CurrentURL("en", "cs", "/")       == "/en"
//	CurrentURL("en", "cs", "/about")  == "/en/about"
func CurrentURL(locale, defaultLocale, asPath string) string {
	prefix := appctx.LocalePrefix(locale, defaultLocale)
	p := asPath
	if prefix != "" && p == "/" {
		p = ""
	}
	u := prefix + p
	if u == "/" {
		return ""
	}
	return u
}
