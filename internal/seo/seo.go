// Package seo builds page metadata and schema.org payloads.
package seo

import (
	"strings"

	"sklinet.org/web/internal/cms"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
	Locale      string
}

type Twitter struct {
	Card  string
	Image string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	NoIndex     bool
	OG          OpenGraph
	Twitter     Twitter
}

// Input is what a page knows about itself when building metadata.
type Input struct {
	Page       *cms.Page
	Item       *cms.MetaItem
	WebSetting cms.WebSetting
	Site       cms.Site
	Canonical  string
	Locale     string
}

// Build resolves metadata with precedence page SEO, then the page's first
// block item, then the web setting defaults.
func Build(in Input) Meta {
	var pageSEO cms.SEO
	var pageTitle string
	if in.Page != nil {
		pageSEO = in.Page.SEO
		pageTitle = in.Page.Title
	}
	var item cms.MetaItem
	if in.Item != nil {
		item = *in.Item
	}
	siteName := first(in.WebSetting.SiteName, in.Site.Name)

	title := first(pageSEO.Title, item.Title, pageTitle)
	switch {
	case title == "":
		title = first(in.WebSetting.SEO.Title, siteName)
	case siteName != "" && title != siteName:
		title = title + " | " + siteName
	}
	m := Meta{
		Title:       title,
		Description: first(pageSEO.Description, item.Description, in.WebSetting.SEO.Description),
		Canonical:   in.Canonical,
		NoIndex:     pageSEO.NoIndex,
	}
	image := first(pageSEO.Image, item.Image, in.WebSetting.SEO.Image)
	ogType := "website"
	if in.Item != nil && !item.PublishedAt.IsZero() {
		ogType = "article"
	}
	m.OG = OpenGraph{
		Title:       title,
		Description: m.Description,
		Image:       image,
		Type:        ogType,
		URL:         in.Canonical,
		SiteName:    siteName,
		Locale:      in.Locale,
	}
	m.Twitter = Twitter{Card: "summary", Image: image}
	if image != "" {
		m.Twitter.Card = "summary_large_image"
	}
	return m
}

func first(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
