package blocks

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/nav"
)

const excerptLength = 160

// Link is a resolved, locale-aware hyperlink.
type Link struct {
	Label    string
	Href     string
	External bool
}

type HeroData struct {
	Title    string
	Subtitle string
	Image    string
	CTA      *Link
}

type RichTextData struct {
	HTML template.HTML
}

type ImageData struct {
	Src     string
	Alt     string
	Caption string
	Width   int
	Height  int
}

type CallToActionData struct {
	Title string
	Text  string
	Link  Link
}

type ArticleData struct {
	Title     string
	Excerpt   string
	Body      template.HTML
	Image     string
	Author    string
	Date      string
	Published time.Time
}

type MenuLinksData struct {
	Title string
	Links []Link
}

// Default returns a registry with the built-in block types.
func Default() *Registry {
	r, err := NewRegistry(
		Definition{Type: "hero", Props: heroProps},
		Definition{Type: "rich_text", Props: richTextProps},
		Definition{Type: "image", Props: imageProps},
		Definition{Type: "call_to_action", Props: callToActionProps},
		Definition{Type: "article", Props: articleProps},
		Definition{Type: "menu_links", Props: menuLinksProps},
	)
	if err != nil {
		panic(err)
	}
	return r
}

func heroProps(_ context.Context, bc Context, b cms.Block) (Props, error) {
	d := HeroData{
		Title:    str(b.Data, "title"),
		Subtitle: str(b.Data, "subtitle", "text"),
		Image:    str(b.Data, "image", "imageUrl"),
	}
	if l, ok := link(bc, b.Data["cta"]); ok {
		d.CTA = &l
	}
	return Props{Data: d}, nil
}

func richTextProps(_ context.Context, _ Context, b cms.Block) (Props, error) {
	out, err := RenderMarkdown(str(b.Data, "body", "content", "text"))
	if err != nil {
		return Props{}, err
	}
	return Props{Data: RichTextData{HTML: out}}, nil
}

func imageProps(_ context.Context, _ Context, b cms.Block) (Props, error) {
	src := str(b.Data, "src", "url", "image")
	if src == "" {
		return Props{}, fmt.Errorf("image block without src")
	}
	return Props{Data: ImageData{
		Src:     src,
		Alt:     str(b.Data, "alt"),
		Caption: str(b.Data, "caption"),
		Width:   num(b.Data["width"]),
		Height:  num(b.Data["height"]),
	}}, nil
}

func callToActionProps(_ context.Context, bc Context, b cms.Block) (Props, error) {
	d := CallToActionData{Title: str(b.Data, "title"), Text: str(b.Data, "text")}
	if l, ok := link(bc, b.Data); ok {
		d.Link = l
	}
	return Props{Data: d}, nil
}

// articleProps exposes the article as the block's meta item so the page can
// inherit its title and description.
func articleProps(_ context.Context, bc Context, b cms.Block) (Props, error) {
	body, err := RenderMarkdown(str(b.Data, "body", "content"))
	if err != nil {
		return Props{}, err
	}
	loc := time.UTC
	if bc.Calendar != nil {
		loc = bc.Calendar.Location()
	}
	published := timeValue(b.Data["publishedAt"], loc)
	d := ArticleData{
		Title:     str(b.Data, "title"),
		Body:      body,
		Image:     str(b.Data, "image"),
		Author:    str(b.Data, "author"),
		Published: published,
	}
	d.Excerpt = str(b.Data, "description", "excerpt")
	if d.Excerpt == "" {
		d.Excerpt = Excerpt(string(body), excerptLength)
	}
	if bc.Calendar != nil && !published.IsZero() {
		d.Date = bc.Calendar.Date(published)
	}
	item := &cms.MetaItem{
		Title:       d.Title,
		Description: d.Excerpt,
		Image:       d.Image,
		Author:      d.Author,
		PublishedAt: published,
	}
	return Props{Item: item, Data: d}, nil
}

func menuLinksProps(_ context.Context, bc Context, b cms.Block) (Props, error) {
	d := MenuLinksData{Title: str(b.Data, "title")}
	raw, _ := b.Data["links"].([]any)
	for _, it := range raw {
		if l, ok := link(bc, it); ok {
			d.Links = append(d.Links, l)
		}
	}
	return Props{Data: d}, nil
}

func link(bc Context, v any) (Link, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Link{}, false
	}
	href := str(m, "url", "href")
	if href == "" {
		return Link{}, false
	}
	localized := nav.Localize(href, bc.LocalePrefix)
	return Link{
		Label:    str(m, "label", "title"),
		Href:     localized,
		External: strings.Contains(href, "://"),
	}, true
}

func str(data map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			// media fields arrive as {"url": "..."}
			if s := str(v, "url"); s != "" {
				return s
			}
		}
	}
	return ""
}

func num(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	}
	return 0
}

// timeValue reads a CMS timestamp. Values without an offset, including
// date-only ones, are taken in loc.
func timeValue(v any, loc *time.Location) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
