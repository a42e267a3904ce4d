// Package i18n holds UI string translations and locale negotiation.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Locales embeds the bundled translation files (locales/<lang>.json).
//
//go:embed locales/*.json
var Locales embed.FS

type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported map[string]struct{}
	tags      []language.Tag
	codes     []string
	matcher   language.Matcher
}

// Load reads <lang>.json for every supported language from fsys. Only the
// fallback language is required to exist.
func Load(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	b := &Bundle{
		dict:      map[string]map[string]string{},
		fallback:  fallback,
		supported: map[string]struct{}{},
	}
	if len(supported) == 0 {
		supported = []string{fallback}
	}
	// The matcher falls back to its first tag, so the fallback goes first.
	ordered := append([]string{fallback}, supported...)
	for _, l := range ordered {
		if _, seen := b.supported[l]; seen {
			continue
		}
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", l, err)
		}
		b.supported[l] = struct{}{}
		b.tags = append(b.tags, tag)
		b.codes = append(b.codes, l)

		raw, err := fs.ReadFile(fsys, l+".json")
		if err != nil {
			// allow missing file for non-default locales
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// LoadEmbedded loads the translations compiled into the binary.
func LoadEmbedded(fallback string, supported []string) (*Bundle, error) {
	sub, err := fs.Sub(Locales, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub, fallback, supported)
}

func (b *Bundle) Supported() []string {
	out := make([]string, 0, len(b.supported))
	for k := range b.supported {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang is one of the configured locales.
func (b *Bundle) IsSupported(lang string) bool {
	_, ok := b.supported[lang]
	return ok
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Resolve chooses best language from Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	if strings.TrimSpace(acceptLang) == "" {
		return b.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.codes) {
		return b.fallback
	}
	return b.codes[idx]
}
