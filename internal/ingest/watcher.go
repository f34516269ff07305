// Package ingest watches the seed-drop directory and turns dropped
// bundles (a subdirectory with a manifest.yaml, an HTML file, and its
// media) into seeded content records.
package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/getlost/portal/internal/manifest"
	"github.com/getlost/portal/internal/models"
)

// Seeder ingests one seed bundle directory. Implemented by
// contentservice.Service.
type Seeder interface {
	IngestSeed(ctx context.Context, dir string) (*models.Record, error)
}

// Copies into a drop directory arrive file by file; a bundle is only
// ingested once no event has touched it for this long.
const settleDelay = 400 * time.Millisecond

const pollInterval = 200 * time.Millisecond

// Watch processes the drop directory until ctx is cancelled. Bundles
// already present at startup are ingested first; afterwards fsnotify
// events drive ingestion. A successfully ingested bundle directory is
// removed (consumed); failed bundles stay in place for the admin to fix.
func Watch(ctx context.Context, dropDir string, svc Seeder, logger *slog.Logger) error {
	if err := os.MkdirAll(dropDir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dropDir); err != nil {
		return err
	}

	logger.Info("ingest: watching seed drop dir", slog.String("dir", dropDir))

	// Catch up on bundles dropped while the service was down.
	sweep(ctx, dropDir, svc, logger)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("ingest: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Any event inside a bundle resets its settle clock.
			bundle := bundleDirFor(dropDir, ev.Name)
			if bundle != "" {
				pending[bundle] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("ingest: watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			now := time.Now()
			for dir, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, dir)
				ingestBundle(ctx, dir, svc, logger)
			}
		}
	}
}

// sweep ingests every bundle already present in the drop dir.
func sweep(ctx context.Context, dropDir string, svc Seeder, logger *slog.Logger) {
	entries, err := os.ReadDir(dropDir)
	if err != nil {
		logger.Warn("ingest: sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ingestBundle(ctx, filepath.Join(dropDir, e.Name()), svc, logger)
	}
}

// bundleDirFor maps an event path to the top-level bundle directory it
// belongs to, or "" when the event is not inside a bundle.
func bundleDirFor(dropDir, eventPath string) string {
	rel, err := filepath.Rel(dropDir, eventPath)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return ""
	}
	first := rel
	for i := 0; i < len(first); i++ {
		if os.IsPathSeparator(first[i]) {
			first = first[:i]
			break
		}
	}
	if first == "" || first[0] == '.' {
		return ""
	}
	return filepath.Join(dropDir, first)
}

func ingestBundle(ctx context.Context, dir string, svc Seeder, logger *slog.Logger) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	if _, err := os.Stat(filepath.Join(dir, manifest.FileName)); err != nil {
		// Not a bundle (yet); leave it alone.
		return
	}
	rec, err := svc.IngestSeed(ctx, dir)
	if err != nil {
		logger.Warn("ingest: bundle failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("ingest: cleanup failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
	}
	logger.Info("ingest: bundle ingested",
		slog.String("dir", dir),
		slog.String("id", rec.ID))
}
