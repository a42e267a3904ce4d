package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sklinet.org/web/internal/observability"
)

const staticPathsPageSize = 100

// Client reads content from a Strapi-style headless CMS REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient constructs a Client with the provided base URL and API token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

type collectionResponse struct {
	Data []entry `json:"data"`
	Meta struct {
		Pagination struct {
			Page      int `json:"page"`
			PageCount int `json:"pageCount"`
		} `json:"pagination"`
	} `json:"meta"`
}

type singleResponse struct {
	Data *entry `json:"data"`
}

type entry struct {
	ID         int             `json:"id"`
	Attributes json.RawMessage `json:"attributes"`
}

type seoAttributes struct {
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	MetaImage       string `json:"metaImage"`
	NoIndex         bool   `json:"noIndex"`
}

type pageAttributes struct {
	URL         string           `json:"url"`
	Title       string           `json:"title"`
	Locale      string           `json:"locale"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	PublishedAt *time.Time       `json:"publishedAt"`
	SEO         *seoAttributes   `json:"seo"`
	Blocks      []map[string]any `json:"blocks"`
	Redirect    *struct {
		To         string `json:"to"`
		Permanent  bool   `json:"permanent"`
		StatusCode int    `json:"statusCode"`
	} `json:"redirect"`
}

type menuItemAttributes struct {
	Label    string               `json:"label"`
	URL      string               `json:"url"`
	Children []menuItemAttributes `json:"children"`
}

type webSettingAttributes struct {
	SiteName   string         `json:"siteName"`
	LogoURL    string         `json:"logoUrl"`
	FooterText string         `json:"footerText"`
	Locale     string         `json:"locale"`
	SEO        *seoAttributes `json:"seo"`
	MainMenu   struct {
		Data *struct {
			Attributes struct {
				Items []menuItemAttributes `json:"items"`
			} `json:"attributes"`
		} `json:"data"`
	} `json:"mainMenu"`
}

type redirectAttributes struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Permanent  bool   `json:"permanent"`
	StatusCode int    `json:"statusCode"`
}

// StaticPaths pages through every published page URL for locale.
func (c *Client) StaticPaths(ctx context.Context, locale string) ([]StaticPath, error) {
	var paths []StaticPath
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("locale", locale)
		q.Set("fields[0]", "url")
		q.Set("pagination[page]", strconv.Itoa(page))
		q.Set("pagination[pageSize]", strconv.Itoa(staticPathsPageSize))
		var resp collectionResponse
		if err := c.get(ctx, "static_paths", "api/pages", q, &resp); err != nil {
			return nil, err
		}
		for _, e := range resp.Data {
			var attrs pageAttributes
			if err := json.Unmarshal(e.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("cms: decode page %d: %w", e.ID, err)
			}
			if p := SanitizePath(attrs.URL); p != "" {
				paths = append(paths, StaticPath{Path: p, Locale: locale})
			}
		}
		if resp.Meta.Pagination.PageCount <= page || len(resp.Data) == 0 {
			break
		}
	}
	return paths, nil
}

// Page fetches the page whose url equals path.
func (c *Client) Page(ctx context.Context, path, locale string, preview bool) (Page, error) {
	path = SanitizePath(path)
	if path == "" {
		return Page{}, ErrNotFound
	}
	q := url.Values{}
	q.Set("locale", locale)
	q.Set("filters[url][$eq]", path)
	q.Set("populate", "deep")
	if preview {
		q.Set("publicationState", "preview")
	}
	var resp collectionResponse
	if err := c.get(ctx, "page", "api/pages", q, &resp); err != nil {
		return Page{}, err
	}
	if len(resp.Data) == 0 {
		return Page{}, ErrNotFound
	}
	e := resp.Data[0]
	var attrs pageAttributes
	if err := json.Unmarshal(e.Attributes, &attrs); err != nil {
		return Page{}, fmt.Errorf("cms: decode page %s: %w", path, err)
	}
	page := Page{
		ID:        strconv.Itoa(e.ID),
		URL:       firstNonEmpty(SanitizePath(attrs.URL), path),
		Locale:    firstNonEmpty(attrs.Locale, locale),
		Title:     attrs.Title,
		SEO:       mapSEO(attrs.SEO),
		Draft:     attrs.PublishedAt == nil,
		UpdatedAt: attrs.UpdatedAt,
	}
	for _, raw := range attrs.Blocks {
		page.Blocks = append(page.Blocks, mapBlock(raw))
	}
	if attrs.Redirect != nil && attrs.Redirect.To != "" {
		page.Redirect = &Redirect{
			Source:      page.URL,
			Destination: attrs.Redirect.To,
			Permanent:   attrs.Redirect.Permanent,
			StatusCode:  attrs.Redirect.StatusCode,
		}
	}
	return page, nil
}

// WebSetting fetches the web-setting singleton for locale.
func (c *Client) WebSetting(ctx context.Context, locale string, preview bool) (WebSetting, error) {
	q := url.Values{}
	q.Set("locale", locale)
	q.Set("populate", "deep")
	if preview {
		q.Set("publicationState", "preview")
	}
	var resp singleResponse
	if err := c.get(ctx, "web_setting", "api/web-setting", q, &resp); err != nil {
		return WebSetting{}, err
	}
	if resp.Data == nil {
		return WebSetting{}, ErrNotFound
	}
	var attrs webSettingAttributes
	if err := json.Unmarshal(resp.Data.Attributes, &attrs); err != nil {
		return WebSetting{}, fmt.Errorf("cms: decode web setting: %w", err)
	}
	ws := WebSetting{
		Locale:     firstNonEmpty(attrs.Locale, locale),
		SiteName:   attrs.SiteName,
		LogoURL:    attrs.LogoURL,
		FooterText: attrs.FooterText,
		SEO:        mapSEO(attrs.SEO),
	}
	if attrs.MainMenu.Data != nil {
		ws.MainMenu = mapMenuItems(attrs.MainMenu.Data.Attributes.Items)
	}
	return ws, nil
}

// Site fetches the site identity.
func (c *Client) Site(ctx context.Context, locale string) (Site, error) {
	q := url.Values{}
	q.Set("locale", locale)
	var resp singleResponse
	if err := c.get(ctx, "site", "api/site", q, &resp); err != nil {
		return Site{}, err
	}
	if resp.Data == nil {
		return Site{}, ErrNotFound
	}
	var attrs struct {
		Name     string `json:"name"`
		Hostname string `json:"hostname"`
	}
	if err := json.Unmarshal(resp.Data.Attributes, &attrs); err != nil {
		return Site{}, fmt.Errorf("cms: decode site: %w", err)
	}
	return Site{Name: attrs.Name, Hostname: strings.TrimRight(attrs.Hostname, "/")}, nil
}

// Redirect looks up a redirect rule for path.
func (c *Client) Redirect(ctx context.Context, path, locale string) (Redirect, error) {
	q := url.Values{}
	q.Set("locale", locale)
	q.Set("filters[from][$eq]", path)
	var resp collectionResponse
	if err := c.get(ctx, "redirect", "api/redirects", q, &resp); err != nil {
		return Redirect{}, err
	}
	if len(resp.Data) == 0 {
		return Redirect{}, ErrNotFound
	}
	var attrs redirectAttributes
	if err := json.Unmarshal(resp.Data[0].Attributes, &attrs); err != nil {
		return Redirect{}, fmt.Errorf("cms: decode redirect: %w", err)
	}
	if attrs.To == "" {
		return Redirect{}, ErrNotFound
	}
	return Redirect{
		Source:      firstNonEmpty(attrs.From, path),
		Destination: attrs.To,
		Permanent:   attrs.Permanent,
		StatusCode:  attrs.StatusCode,
	}, nil
}

func (c *Client) get(ctx context.Context, resource, endpointPath string, q url.Values, out any) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "cms."+resource)
	span.SetAttributes(attribute.String("cms.resource", resource), attribute.String("cms.locale", q.Get("locale")))
	start := time.Now()
	defer func() {
		failure := err
		if errors.Is(failure, ErrNotFound) {
			failure = nil
		}
		if failure != nil {
			span.RecordError(failure)
			span.SetStatus(codes.Error, failure.Error())
		}
		observability.ObserveCMSFetch(resource, failure, time.Since(start))
		span.End()
	}()

	if c == nil || c.baseURL == "" {
		return fmt.Errorf("cms: client not configured")
	}
	endpoint, err := url.JoinPath(c.baseURL, endpointPath)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cms: %s request: %w", resource, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("cms: %s status %d", resource, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cms: decode %s: %w", resource, err)
	}
	return nil
}

func mapSEO(s *seoAttributes) SEO {
	if s == nil {
		return SEO{}
	}
	return SEO{
		Title:       strings.TrimSpace(s.MetaTitle),
		Description: strings.TrimSpace(s.MetaDescription),
		Image:       strings.TrimSpace(s.MetaImage),
		NoIndex:     s.NoIndex,
	}
}

func mapMenuItems(items []menuItemAttributes) []MenuItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		out = append(out, MenuItem{
			Label:    strings.TrimSpace(it.Label),
			URL:      strings.TrimSpace(it.URL),
			Children: mapMenuItems(it.Children),
		})
	}
	return out
}

// mapBlock converts a dynamic-zone component ("__component": "blocks.rich-text")
// into a Block with a registry type ("rich_text") and a page-unique ID.
func mapBlock(raw map[string]any) Block {
	component, _ := raw["__component"].(string)
	typ := component
	if i := strings.LastIndex(typ, "."); i >= 0 {
		typ = typ[i+1:]
	}
	typ = strings.ReplaceAll(strings.ToLower(typ), "-", "_")
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "__component" || k == "id" {
			continue
		}
		data[k] = v
	}
	return Block{
		ID:   typ + "-" + idString(raw["id"]),
		Type: typ,
		Data: data,
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return "0"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
