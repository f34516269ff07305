// Package namekey turns human filenames and titles into canonical keys
// for fuzzy comparison. Uploaded artifacts rarely carry the exact name
// the seeded content was stored under ("The Everlasting Gift Book.pdf"
// vs "everlasting-gift-final.pdf"), so matching works on normalized
// alphanumeric keys plus a "core" significant fragment.
package namekey

import (
	"regexp"
	"strings"
)

// Words that carry no identity: publishing boilerplate that comes and
// goes between an uploaded artifact and the originally seeded one.
var stopWords = map[string]bool{
	"final":      true,
	"book":       true,
	"report":     true,
	"draft":      true,
	"version":    true,
	"manuscript": true,
	"copy":       true,
}

// Extensions stripped before keying. Anything else stays part of the key.
var fileExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "html": true, "htm": true,
	"epub": true, "zip": true, "txt": true, "md": true,
}

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
	wordRe     = regexp.MustCompile(`[A-Za-z0-9]+`)
	alphaRunRe = regexp.MustCompile(`[a-z]{3,}`)
)

// Normalize lower-cases text, drops a recognised file extension, and
// strips everything that is not [a-z0-9]. The result is a pure
// alphanumeric comparison key; Normalize is idempotent.
func Normalize(text string) string {
	lowered := strings.ToLower(stripExtension(text))
	return nonAlnumRe.ReplaceAllString(lowered, "")
}

// Core returns the longest alphabetic run (length >= 3) of the
// normalized text after a stop-word pre-pass. The longest word is
// usually the distinguishing title fragment. Returns "" when no run
// qualifies; callers must treat an empty core as a non-match, never as
// a wildcard.
func Core(text string) string {
	cleaned := stripStopWords(stripExtension(text))
	key := Normalize(cleaned)
	best := ""
	for _, run := range alphaRunRe.FindAllString(key, -1) {
		if len(run) > len(best) {
			best = run
		}
	}
	return best
}

// stripExtension removes one trailing recognised file extension.
func stripExtension(text string) string {
	i := strings.LastIndex(text, ".")
	if i < 0 {
		return text
	}
	if fileExtensions[strings.ToLower(text[i+1:])] {
		return text[:i]
	}
	return text
}

// stripStopWords removes generic words at word boundaries, keeping the
// separators so remaining words do not merge.
func stripStopWords(text string) string {
	return wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if stopWords[strings.ToLower(w)] {
			return ""
		}
		return w
	})
}
