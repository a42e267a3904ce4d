package seo

import (
	"encoding/json"
	"html/template"
	"time"
)

// JSON marshals v for a <script type="application/ld+json"> element. It
// returns an empty value on error.
func JSON(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url, inLanguage string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if inLanguage != "" {
		m["inLanguage"] = inLanguage
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Article returns a minimal Article schema payload.
func Article(headline, url, imageURL, authorName string, published time.Time) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Article",
		"headline": headline,
	}
	if url != "" {
		m["url"] = url
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if authorName != "" {
		m["author"] = map[string]any{"@type": "Person", "name": authorName}
	}
	if !published.IsZero() {
		m["datePublished"] = published.Format(time.RFC3339)
	}
	return m
}
