// Package pages turns CMS content into rendered pages: it enumerates the
// static path set, resolves page data and renders the layout.
package pages

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/observability"
)

// StaticPathsResult is the enumerated static path set and the fallback mode
// for everything outside it.
type StaticPathsResult struct {
	Paths    []cms.StaticPath
	Fallback Fallback
}

// Has reports whether (path, locale) is part of the set.
func (r StaticPathsResult) Has(path, locale string) bool {
	for _, p := range r.Paths {
		if p.Path == path && p.Locale == locale {
			return true
		}
	}
	return false
}

// EnumeratorConfig controls static path enumeration.
type EnumeratorConfig struct {
	StaticGeneration bool
	Development      bool
	// Fallback applies when static generation is active. Defaults to FallbackFalse.
	Fallback Fallback
}

// Enumerator lists the pages to pre-render.
type Enumerator struct {
	provider cms.Provider
	cfg      EnumeratorConfig
}

func NewEnumerator(provider cms.Provider, cfg EnumeratorConfig) *Enumerator {
	if cfg.Fallback == "" {
		cfg.Fallback = FallbackFalse
	}
	return &Enumerator{provider: provider, cfg: cfg}
}

// Active reports whether static generation applies for the given locales.
func (e *Enumerator) Active(locales []string) bool {
	return e.cfg.StaticGeneration && !e.cfg.Development && len(locales) > 0
}

// StaticPaths asks the provider for the known paths of every locale. When
// static generation is inactive it returns no paths and FallbackBlocking so
// every page renders on demand.
func (e *Enumerator) StaticPaths(ctx context.Context, locales []string) (StaticPathsResult, error) {
	if !e.Active(locales) {
		return StaticPathsResult{Paths: []cms.StaticPath{}, Fallback: FallbackBlocking}, nil
	}
	seen := map[cms.StaticPath]struct{}{}
	paths := make([]cms.StaticPath, 0, 64)
	for _, locale := range locales {
		found, err := e.provider.StaticPaths(ctx, locale)
		if err != nil {
			return StaticPathsResult{}, fmt.Errorf("pages: static paths for %s: %w", locale, err)
		}
		for _, p := range found {
			if p.Locale == "" {
				p.Locale = locale
			}
			p.Path = cms.SanitizePath(p.Path)
			if p.Path == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	observability.FromContext(ctx).Info("static paths enumerated",
		zap.Int("count", len(paths)),
		zap.Strings("locales", locales),
		zap.String("fallback", string(e.cfg.Fallback)),
	)
	return StaticPathsResult{Paths: paths, Fallback: e.cfg.Fallback}, nil
}
