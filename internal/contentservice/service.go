// Package contentservice coordinates the upload pipeline: seeded-content
// matching and linking, payload extraction, HTML bundling, and record
// persistence.
package contentservice

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/getlost/portal/internal/assetstore"
	"github.com/getlost/portal/internal/bundler"
	"github.com/getlost/portal/internal/contentstore"
	"github.com/getlost/portal/internal/manifest"
	"github.com/getlost/portal/internal/models"
	"github.com/getlost/portal/internal/seedmatch"
)

// EventSink receives content lifecycle notifications. May be nil.
type EventSink interface {
	PublishContentEvent(event, id, bookID string, imagesEmbedded, videosRewritten int)
}

// Service coordinates the content store, asset store, and bundler.
type Service struct {
	db         contentstore.Store
	assets     assetstore.Provider
	bundler    *bundler.Bundler
	reportsDir string
	logger     *slog.Logger
	events     EventSink
}

// NewService creates a content service. reportsDir is the configured
// fallback search directory for media resolution; events may be nil.
func NewService(db contentstore.Store, assets assetstore.Provider, b *bundler.Bundler, reportsDir string, logger *slog.Logger, events EventSink) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, assets: assets, bundler: b, reportsDir: reportsDir, logger: logger, events: events}
}

// Detail is the response payload for an upload or lookup.
type Detail struct {
	Record           models.Record `json:"record"`
	Linked           bool          `json:"linked"`
	MatchedCandidate string        `json:"matched_candidate,omitempty"`
}

// UploadReport processes an uploaded manuscript report for a book.
//
// If the filename matches a seeded report, the seeded record is linked
// in (copied under the book) and the payload itself is not bundled — the
// seeded HTML was bundled at ingest time. Otherwise the payload is
// treated as fresh admin-provided content: zip archives are extracted
// into a per-request temp directory (always removed), the HTML inside is
// bundled against the extraction dir first and the configured reports
// dir second, and the result is persisted.
func (s *Service) UploadReport(ctx context.Context, bookID, filename string, payload []byte) (*Detail, error) {
	seeded, err := s.db.ListSeeded(models.KindReport)
	if err != nil {
		return nil, err
	}
	if m := seedmatch.Find(filename, seeded); m != nil {
		newID, err := s.db.LinkToBook(&m.Record, bookID)
		if err != nil {
			return nil, err
		}
		linked, err := s.db.Get(newID)
		if err != nil {
			return nil, err
		}
		s.publish("content.linked", linked)
		s.logger.Info("upload matched seeded report",
			slog.String("book_id", bookID),
			slog.String("seeded_id", m.Record.ID),
			slog.String("candidate", m.MatchedCandidate))
		return &Detail{Record: *linked, Linked: true, MatchedCandidate: m.MatchedCandidate}, nil
	}

	rec, err := s.bundleUpload(ctx, bookID, filename, payload)
	if err != nil {
		return nil, err
	}
	s.publish("report.bundled", rec)
	s.logger.Info("report bundled",
		slog.String("book_id", bookID),
		slog.Int("images_embedded", rec.ImagesEmbedded),
		slog.Int("videos_rewritten", rec.VideosRewritten))
	return &Detail{Record: *rec}, nil
}

// bundleUpload turns a fresh (non-seeded) payload into a stored record.
func (s *Service) bundleUpload(ctx context.Context, bookID, filename string, payload []byte) (*models.Record, error) {
	meta := models.Metadata{
		UploadFileNames: []string{filename},
		SourceChecksum:  sha256sum(payload),
	}

	var html string
	searchDirs := []string{s.reportsDir}

	switch {
	case isZip(payload):
		tmpDir, cleanup, err := extractZip(payload)
		if err != nil {
			return nil, err
		}
		// The extraction dir must not outlive the request.
		defer cleanup()

		htmlPath, err := findHTML(tmpDir)
		if err != nil {
			return nil, err
		}
		data, err := readFile(htmlPath)
		if err != nil {
			return nil, err
		}
		html = string(data)
		searchDirs = append([]string{filepath.Dir(htmlPath)}, searchDirs...)

	case isPDF(payload):
		url, err := s.assets.Store(payload, bookID, "reports", sanitizeName(filename))
		if err != nil {
			return nil, err
		}
		meta.PDFURL = url

	default:
		html = string(payload)
	}

	rec := &models.Record{
		Kind:     models.KindReport,
		BookID:   bookID,
		Title:    titleFromFilename(filename),
		Metadata: meta.Encode(),
	}

	if html != "" {
		doc, err := s.bundler.Bundle(ctx, html, searchDirs, bookID)
		if err != nil {
			return nil, fmt.Errorf("contentservice: bundle: %w", err)
		}
		rec.HTML = doc.HTML
		rec.ImagesEmbedded = doc.ImagesEmbedded
		rec.VideosRewritten = doc.VideosRewritten
	}

	if err := s.db.Insert(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// LinkSeeded copies a seeded record under the given book and returns the
// new record. Explicit admin action; no filename matching involved.
func (s *Service) LinkSeeded(_ context.Context, seededID, bookID string) (*models.Record, error) {
	rec, err := s.db.Get(seededID)
	if err != nil {
		return nil, err
	}
	if !rec.Seeded() {
		return nil, fmt.Errorf("contentservice: record %s is not seeded content", seededID)
	}
	newID, err := s.db.LinkToBook(rec, bookID)
	if err != nil {
		return nil, err
	}
	linked, err := s.db.Get(newID)
	if err != nil {
		return nil, err
	}
	s.publish("content.linked", linked)
	return linked, nil
}

// BundleHTML runs the bundler over raw HTML without persisting
// anything. Media resolves against the configured reports directory;
// rewritten videos are stored under scopeID.
func (s *Service) BundleHTML(ctx context.Context, html, scopeID string) (*bundler.Document, error) {
	doc, err := s.bundler.Bundle(ctx, html, []string{s.reportsDir}, scopeID)
	if err != nil {
		return nil, fmt.Errorf("contentservice: bundle: %w", err)
	}
	return &doc, nil
}

// FindSeededMatch runs the matcher against the seed bucket without
// linking anything.
func (s *Service) FindSeededMatch(_ context.Context, filename string, kind models.Kind) (*seedmatch.Match, error) {
	seeded, err := s.db.ListSeeded(kind)
	if err != nil {
		return nil, err
	}
	return seedmatch.Find(filename, seeded), nil
}

// Get returns a record by ID.
func (s *Service) Get(_ context.Context, id string) (*models.Record, error) {
	return s.db.Get(id)
}

// ListByBook returns records scoped to a book.
func (s *Service) ListByBook(_ context.Context, bookID string, kind models.Kind) ([]models.Record, error) {
	return s.db.ListByBook(bookID, kind)
}

// ListSeeded returns the seed bucket contents for a kind.
func (s *Service) ListSeeded(_ context.Context, kind models.Kind) ([]models.Record, error) {
	return s.db.ListSeeded(kind)
}

// IngestSeed bundles the HTML found in dir and stores it as seeded
// content described by the bundle's manifest. Media referenced by the
// HTML is resolved against dir itself.
func (s *Service) IngestSeed(ctx context.Context, dir string) (*models.Record, error) {
	manifestData, err := readFile(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(manifestData)
	if err != nil {
		return nil, err
	}

	htmlPath, err := findHTML(dir)
	if err != nil {
		return nil, err
	}
	data, err := readFile(htmlPath)
	if err != nil {
		return nil, err
	}

	doc, err := s.bundler.Bundle(ctx, string(data), []string{filepath.Dir(htmlPath)}, models.SeedBucketID)
	if err != nil {
		return nil, fmt.Errorf("contentservice: bundle seed: %w", err)
	}

	rec := &models.Record{
		Kind:   m.Kind,
		BookID: models.SeedBucketID,
		Title:  m.Title,
		Slug:   m.Slug,
		HTML:   doc.HTML,
		Metadata: models.Metadata{
			UploadFileNames: m.Filenames(),
			SourceChecksum:  sha256sum(data),
		}.Encode(),
		Status:          m.Status,
		ImagesEmbedded:  doc.ImagesEmbedded,
		VideosRewritten: doc.VideosRewritten,
	}
	if err := s.db.Insert(rec); err != nil {
		return nil, err
	}
	s.publish("seed.ingested", rec)
	s.logger.Info("seed ingested",
		slog.String("id", rec.ID),
		slog.String("kind", string(rec.Kind)),
		slog.String("title", rec.Title),
		slog.Int("images_embedded", rec.ImagesEmbedded),
		slog.Int("videos_rewritten", rec.VideosRewritten))
	return rec, nil
}

func (s *Service) publish(event string, rec *models.Record) {
	if s.events == nil {
		return
	}
	s.events.PublishContentEvent(event, rec.ID, rec.BookID, rec.ImagesEmbedded, rec.VideosRewritten)
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sanitizeName(filename string) string {
	return filepath.Base(filepath.Clean(filename))
}

func isZip(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
