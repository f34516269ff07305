// Package bundler turns an HTML document with external media references
// into a self-contained one: images become data URIs, videos are moved
// to the asset store and their references rewritten to stable URLs.
//
// Scanning and rewriting are regex-based on purpose. The admin-uploaded
// reports are frequently malformed HTML; textual pattern scanning
// degrades gracefully where a DOM parse would fail, and re-serialising a
// DOM would churn unrelated markup.
package bundler

import (
	"regexp"
	"strings"
)

// Context records the syntactic position a media reference was found in,
// so replacement can reconstruct the same quoting.
type Context int

const (
	// ContextAttr covers src="..." and href="..." attributes.
	ContextAttr Context = iota
	// ContextCSSURL covers background-image: url(...) and bare url(...).
	ContextCSSURL
)

// Reference is one media path literal extracted from HTML text.
type Reference struct {
	RawPath string
	Context Context
}

var (
	imageAttrRe = regexp.MustCompile(`(?i)(?:src|href)\s*=\s*["']([^"']+?\.(?:jpg|jpeg|png|gif|webp|svg))["']`)
	imageURLRe  = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")\s]+?\.(?:jpg|jpeg|png|gif|webp|svg))['"]?\s*\)`)
	videoAttrRe = regexp.MustCompile(`(?i)(?:src|href)\s*=\s*["']([^"']+?\.(?:mp4|mov|webm|m4v|ogv))["']`)
)

// ScanImages returns the deduplicated image references in html, in order
// of first occurrence. Paths that are already absolute (http, https) or
// already inlined (data:) need no resolution and are excluded.
func ScanImages(html string) []Reference {
	var out []Reference
	seen := make(map[string]struct{})
	collect := func(re *regexp.Regexp, ctx Context) {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			raw := m[1]
			if raw == "" || isExternal(raw) {
				continue
			}
			if _, dup := seen[raw]; dup {
				continue
			}
			seen[raw] = struct{}{}
			out = append(out, Reference{RawPath: raw, Context: ctx})
		}
	}
	collect(imageAttrRe, ContextAttr)
	collect(imageURLRe, ContextCSSURL)
	return out
}

// ScanVideos returns the deduplicated video references in html.
func ScanVideos(html string) []Reference {
	var out []Reference
	seen := make(map[string]struct{})
	for _, m := range videoAttrRe.FindAllStringSubmatch(html, -1) {
		raw := m[1]
		if raw == "" || isExternal(raw) {
			continue
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		out = append(out, Reference{RawPath: raw, Context: ContextAttr})
	}
	return out
}

// isExternal reports whether the path needs no filesystem resolution.
func isExternal(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:")
}
