package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"sklinet.org/web/internal/appctx"
	"sklinet.org/web/internal/blocks"
	"sklinet.org/web/internal/calendar"
	"sklinet.org/web/internal/cms"
	"sklinet.org/web/internal/observability"
)

// Kind classifies a resolve result.
type Kind int

const (
	KindProps Kind = iota
	KindNotFound
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindProps:
		return "props"
	case KindNotFound:
		return "not_found"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Params identify the page to resolve.
type Params struct {
	Slug          []string
	Locale        string
	DefaultLocale string
	Preview       bool
	Hostname      string
}

// Props is everything the renderer needs for one page.
type Props struct {
	Path          string
	Locale        string
	DefaultLocale string
	Preview       bool
	Hostname      string

	// Page is nil for not-found results.
	Page       *cms.Page
	WebSetting cms.WebSetting
	Site       cms.Site
	Blocks     *blocks.PropsMap
	Redirect   *cms.Redirect
}

// Result is the outcome of Resolve.
type Result struct {
	Kind  Kind
	Props Props
}

// Resolver fetches page data from the CMS and resolves block props.
type Resolver struct {
	provider cms.Provider
	registry *blocks.Registry
	tz       string
	now      func() time.Time
}

func NewResolver(provider cms.Provider, registry *blocks.Registry, tz string) *Resolver {
	if registry == nil {
		registry = blocks.Default()
	}
	return &Resolver{provider: provider, registry: registry, tz: tz, now: time.Now}
}

// Resolve loads the page addressed by p. Provider failures other than
// cms.ErrNotFound are returned wrapped; there are no retries.
func (r *Resolver) Resolve(ctx context.Context, p Params) (res Result, err error) {
	props := r.baseProps(p)
	observability.FromContext(ctx).Info("GET "+props.Path,
		zap.String("locale", props.Locale),
		zap.Bool("preview", props.Preview),
	)

	ctx, span := observability.Tracer().Start(ctx, "pages.Resolve")
	span.SetAttributes(
		attribute.String("page.path", props.Path),
		attribute.String("page.locale", props.Locale),
		attribute.Bool("page.preview", props.Preview),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("page.result", res.Kind.String()))
		}
		span.End()
	}()

	cal, err := calendar.Init(ctx, calendar.PhaseFetch, props.Locale, r.tz)
	if err != nil {
		return Result{}, err
	}
	if err := r.loadShell(ctx, &props); err != nil {
		return Result{}, err
	}

	page, err := r.provider.Page(ctx, props.Path, props.Locale, props.Preview)
	switch {
	case errors.Is(err, cms.ErrNotFound):
		redirect, rerr := r.provider.Redirect(ctx, props.Path, props.Locale)
		if rerr == nil {
			props.Redirect = &redirect
			return Result{Kind: KindRedirect, Props: props}, nil
		}
		if !errors.Is(rerr, cms.ErrNotFound) {
			return Result{}, fmt.Errorf("pages: fetch redirect %s: %w", props.Path, rerr)
		}
		return Result{Kind: KindNotFound, Props: props}, nil
	case err != nil:
		return Result{}, fmt.Errorf("pages: fetch page %s: %w", props.Path, err)
	}

	if page.Redirect != nil {
		props.Redirect = page.Redirect
		return Result{Kind: KindRedirect, Props: props}, nil
	}

	props.Page = &page
	resolved, err := r.registry.Resolve(ctx, blocks.Context{
		Locale:       props.Locale,
		LocalePrefix: appctx.LocalePrefix(props.Locale, props.DefaultLocale),
		Preview:      props.Preview,
		Calendar:     cal,
		Page:         props.Page,
		Now:          r.now(),
	}, page.Blocks)
	if err != nil {
		return Result{}, fmt.Errorf("pages: resolve blocks %s: %w", props.Path, err)
	}
	props.Blocks = resolved
	return Result{Kind: KindProps, Props: props}, nil
}

// Shell returns not-found props (web setting and site only) without looking
// the page up.
func (r *Resolver) Shell(ctx context.Context, p Params) (Props, error) {
	props := r.baseProps(p)
	if err := r.loadShell(ctx, &props); err != nil {
		return Props{}, err
	}
	return props, nil
}

func (r *Resolver) baseProps(p Params) Props {
	locale := p.Locale
	if locale == "" {
		locale = p.DefaultLocale
	}
	return Props{
		Path:          cms.JoinSlug(p.Slug),
		Locale:        locale,
		DefaultLocale: p.DefaultLocale,
		Preview:       p.Preview,
		Hostname:      p.Hostname,
		Blocks:        blocks.NewPropsMap(0),
	}
}

// loadShell fills the web setting and site. Missing documents are tolerated
// so a site without them still renders.
func (r *Resolver) loadShell(ctx context.Context, props *Props) error {
	ws, err := r.provider.WebSetting(ctx, props.Locale, props.Preview)
	if err != nil && !errors.Is(err, cms.ErrNotFound) {
		return fmt.Errorf("pages: fetch web setting %s: %w", props.Locale, err)
	}
	props.WebSetting = ws
	site, err := r.provider.Site(ctx, props.Locale)
	if err != nil && !errors.Is(err, cms.ErrNotFound) {
		return fmt.Errorf("pages: fetch site: %w", err)
	}
	props.Site = site
	if props.Hostname == "" {
		props.Hostname = site.Hostname
	}
	return nil
}
