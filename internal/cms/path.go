package cms

import (
	"path"
	"strings"
)

// JoinSlug turns catch-all route segments into a page path ("/" for none).
func JoinSlug(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// SplitSlug is the inverse of JoinSlug.
func SplitSlug(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// SanitizePath normalises a page path. It returns "" for paths that try to
// escape the root.
func SanitizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if strings.Contains(p, "..") || strings.Contains(p, "\\") {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}
