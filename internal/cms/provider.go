package cms

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a CMS resource cannot be located.
var ErrNotFound = errors.New("cms: not found")

// Provider is the content backend contract used by the page pipeline.
type Provider interface {
	// StaticPaths lists the page paths published in locale.
	StaticPaths(ctx context.Context, locale string) ([]StaticPath, error)
	// Page fetches the page at path; preview includes unpublished drafts.
	Page(ctx context.Context, path, locale string, preview bool) (Page, error)
	WebSetting(ctx context.Context, locale string, preview bool) (WebSetting, error)
	Site(ctx context.Context, locale string) (Site, error)
	// Redirect looks up a redirect rule whose source is path.
	Redirect(ctx context.Context, path, locale string) (Redirect, error)
}
