package middleware

import (
	"context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyLocale   ctxKey = "locale"
	ctxKeyPagePath ctxKey = "page_path"
	ctxKeyPreview  ctxKey = "preview"
)

// WithLocale stores the request locale in context
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKeyLocale, locale)
}

// LocaleFrom gets the request locale from context
func LocaleFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyLocale).(string)
	return v, ok && v != ""
}

// WithPagePath stores the page path (locale prefix stripped)
func WithPagePath(ctx context.Context, p string) context.Context {
	return context.WithValue(ctx, ctxKeyPagePath, p)
}

// PagePath returns the page path, or "/" when unset
func PagePath(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyPagePath).(string); ok && v != "" {
		return v
	}
	return "/"
}

// WithPreview marks the request as a preview
func WithPreview(ctx context.Context, data *PreviewData) context.Context {
	return context.WithValue(ctx, ctxKeyPreview, data)
}

// IsPreview returns whether preview mode is active
func IsPreview(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyPreview).(*PreviewData)
	return v != nil
}
