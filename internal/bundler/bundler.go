package bundler

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

// VideoStore persists a video file outside the document and returns a
// stable URL for it. Videos are never inlined: base64 video inflates the
// document beyond what browsers and the database will tolerate.
type VideoStore interface {
	Store(data []byte, scopeID, category, filename string) (string, error)
}

// Document is the output of one bundling pass.
type Document struct {
	HTML            string
	ImagesEmbedded  int
	VideosRewritten int
}

// Bundler rewrites HTML documents so their media references are
// self-contained. Safe for concurrent use: each Bundle call works on its
// own inputs and output.
type Bundler struct {
	videos        VideoStore
	logger        *slog.Logger
	maxImageBytes int
}

// Option configures a Bundler.
type Option func(*Bundler)

// WithVideoStore enables video rewriting. Without it video references
// are left untouched.
func WithVideoStore(s VideoStore) Option {
	return func(b *Bundler) { b.videos = s }
}

// WithLogger sets the logger for per-item skip warnings.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bundler) { b.logger = l }
}

// WithMaxImageBytes caps the size of images that get inlined. Zero means
// no cap.
func WithMaxImageBytes(n int) Option {
	return func(b *Bundler) { b.maxImageBytes = n }
}

// New creates a Bundler.
func New(opts ...Option) *Bundler {
	b := &Bundler{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bundle embeds every resolvable image reference in html as a data URI
// and rewrites every resolvable video reference to a stored-asset URL.
// dirs is the prioritized search-directory set; scopeID namespaces
// stored videos (typically the book or version ID).
//
// Item-level failures (missing file, unreadable file, store error) are
// logged and skipped; the rest of the document is still processed. Only
// an unexpected panic falls back to returning the input unchanged.
func (b *Bundler) Bundle(ctx context.Context, html string, dirs []string, scopeID string) (doc Document, err error) {
	original := html
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bundle: recovered, returning original document",
				slog.Any("panic", r))
			doc = Document{HTML: original}
			err = nil
		}
	}()

	html, images := b.embedImages(ctx, html, dirs)
	videos := 0
	if b.videos != nil {
		html, videos = b.rewriteVideos(ctx, html, dirs, scopeID)
	}
	return Document{HTML: html, ImagesEmbedded: images, VideosRewritten: videos}, nil
}

func (b *Bundler) embedImages(ctx context.Context, html string, dirs []string) (string, int) {
	count := 0
	for _, ref := range ScanImages(html) {
		if ctx.Err() != nil {
			break
		}
		res, err := Resolve(ref.RawPath, dirs)
		if err != nil {
			b.logger.Warn("bundle: image not resolved, reference left as-is",
				slog.String("path", ref.RawPath))
			continue
		}
		if b.maxImageBytes > 0 && len(res.Data) > b.maxImageBytes {
			b.logger.Warn("bundle: image too large to inline",
				slog.String("path", ref.RawPath),
				slog.Int("bytes", len(res.Data)))
			continue
		}
		dataURI := fmt.Sprintf("data:%s;base64,%s", res.MIME, base64.StdEncoding.EncodeToString(res.Data))
		html = replaceReference(html, ref.RawPath, dataURI)
		count++
	}
	return html, count
}

func (b *Bundler) rewriteVideos(ctx context.Context, html string, dirs []string, scopeID string) (string, int) {
	var pairs []string
	count := 0
	for _, ref := range ScanVideos(html) {
		if ctx.Err() != nil {
			break
		}
		res, err := Resolve(ref.RawPath, dirs)
		if err != nil {
			b.logger.Warn("bundle: video not resolved, reference left as-is",
				slog.String("path", ref.RawPath))
			continue
		}
		name := filepath.Base(res.AbsPath)
		url, err := b.videos.Store(res.Data, scopeID, "videos", name)
		if err != nil {
			b.logger.Warn("bundle: video store failed",
				slog.String("path", ref.RawPath),
				slog.String("error", err.Error()))
			continue
		}
		pairs = append(pairs, ref.RawPath, url)
		if name != ref.RawPath {
			pairs = append(pairs, name, url)
		}
		count++
	}
	if len(pairs) > 0 {
		// Single-pass literal replacement: inserted URLs are never
		// rescanned, so a URL ending in the bare filename is safe.
		html = strings.NewReplacer(pairs...).Replace(html)
	}
	return html, count
}

// replaceReference substitutes every occurrence of raw with repl in each
// quoting context independently (src/href attributes, css url()), so the
// surrounding quotes survive the rewrite.
func replaceReference(html, raw, repl string) string {
	q := regexp.QuoteMeta(raw)
	attrRe := regexp.MustCompile(`((?i:src|href)\s*=\s*["'])` + q + `(["'])`)
	urlRe := regexp.MustCompile(`((?i:url)\(\s*['"]?)` + q + `(['"]?\s*\))`)
	html = attrRe.ReplaceAllString(html, "${1}"+repl+"${2}")
	html = urlRe.ReplaceAllString(html, "${1}"+repl+"${2}")
	return html
}
