// Package nav turns the CMS main menu into navigation view models.
package nav

import (
	"path"
	"strings"
	"unicode"

	"sklinet.org/web/internal/cms"
)

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	Label    string
	Active   bool
	External bool
	Children []RenderedItem
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Build renders menu items with active state given the current page path.
// Internal links are prefixed with localePrefix ("" or "/en").
func Build(items []cms.MenuItem, currentPath, localePrefix string) []RenderedItem {
	if len(items) == 0 {
		return []RenderedItem{}
	}
	if currentPath == "" {
		currentPath = "/"
	}
	out := make([]RenderedItem, 0, len(items))
	for _, it := range items {
		children := Build(it.Children, currentPath, localePrefix)
		rendered := RenderedItem{
			Href:     Localize(it.URL, localePrefix),
			Label:    it.Label,
			External: isExternal(it.URL),
			Children: children,
		}
		rendered.Active = !rendered.External && isActive(it.URL, currentPath)
		for _, c := range children {
			if c.Active {
				rendered.Active = true
			}
		}
		out = append(out, rendered)
	}
	return out
}

// Localize prefixes an internal link with the locale prefix.
func Localize(href, localePrefix string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		href = "/"
	}
	if isExternal(href) || localePrefix == "" {
		return href
	}
	if href == "/" {
		return localePrefix
	}
	return localePrefix + href
}

func isExternal(href string) bool {
	h := strings.ToLower(href)
	return strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://") ||
		strings.HasPrefix(h, "mailto:") || strings.HasPrefix(h, "tel:") || strings.HasPrefix(h, "//")
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/services" or "/services/..."
	if currentPath == itemPath {
		return true
	}
	return strings.HasPrefix(currentPath, strings.TrimSuffix(itemPath, "/")+"/")
}

// Breadcrumbs builds breadcrumb entries from the current path.
// Rules:
// - Always start with Home
// - Segments that appear in the menu use the menu label
// - Other segments use a prettified segment label
func Breadcrumbs(currentPath, localePrefix string, menu []cms.MenuItem) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: Localize("/", localePrefix), LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	labels := menuLabels(menu, map[string]string{})
	href := ""
	for i, seg := range parts {
		if seg == "" {
			continue
		}
		href += "/" + seg
		label, ok := labels[href]
		if !ok {
			label = titleFromSegment(seg)
		}
		crumbs = append(crumbs, Crumb{
			Href:   Localize(href, localePrefix),
			Label:  label,
			Active: i == len(parts)-1,
		})
	}
	return crumbs
}

func menuLabels(items []cms.MenuItem, into map[string]string) map[string]string {
	for _, it := range items {
		if !isExternal(it.URL) && it.Label != "" {
			into[path.Clean("/"+strings.TrimPrefix(it.URL, "/"))] = it.Label
		}
		menuLabels(it.Children, into)
	}
	return into
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	// replace hyphens/underscores with spaces and capitalize first letter
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
