package pages

import (
	"fmt"
	"strings"
)

// Fallback decides what happens when a path outside the enumerated static
// set is requested.
type Fallback string

const (
	// FallbackFalse answers unknown paths with 404.
	FallbackFalse Fallback = "false"
	// FallbackBlocking renders unknown paths on first request and keeps the result.
	FallbackBlocking Fallback = "blocking"
	// FallbackTrue serves a loading placeholder while the page is generated in the background.
	FallbackTrue Fallback = "true"
)

// ParseFallback parses a configured fallback mode. Empty means FallbackFalse.
func ParseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false":
		return FallbackFalse, nil
	case "blocking":
		return FallbackBlocking, nil
	case "true":
		return FallbackTrue, nil
	default:
		return "", fmt.Errorf("pages: unknown fallback mode %q", s)
	}
}
