package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/getlost/portal/internal/models"
)

type fakeSeeder struct {
	mu   sync.Mutex
	dirs []string
	fail bool
}

func (f *fakeSeeder) IngestSeed(ctx context.Context, dir string) (*models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, os.ErrInvalid
	}
	f.dirs = append(f.dirs, dir)
	return &models.Record{ID: "rec-" + filepath.Base(dir)}, nil
}

func (f *fakeSeeder) ingested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dirs...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeBundle(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"manifest.yaml": "title: Test Seed\nkind: report\n",
		"seed.html":     "<p>seed</p>",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatch_SweepsExistingBundles(t *testing.T) {
	dropDir := t.TempDir()
	bundle := filepath.Join(dropDir, "existing-seed")
	writeBundle(t, bundle)

	seeder := &fakeSeeder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dropDir, seeder, discardLogger()) }()

	waitFor(t, 3*time.Second, func() bool { return len(seeder.ingested()) == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if got := seeder.ingested(); len(got) != 1 || got[0] != bundle {
		t.Errorf("ingested = %v", got)
	}
	if _, err := os.Stat(bundle); !os.IsNotExist(err) {
		t.Error("bundle not removed after ingest")
	}
}

func TestWatch_IngestsDroppedBundle(t *testing.T) {
	dropDir := t.TempDir()
	seeder := &fakeSeeder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dropDir, seeder, discardLogger()) }()

	// Let the watcher start before dropping.
	time.Sleep(100 * time.Millisecond)
	writeBundle(t, filepath.Join(dropDir, "new-seed"))

	waitFor(t, 3*time.Second, func() bool { return len(seeder.ingested()) == 1 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}

func TestWatch_FailedBundleStaysInPlace(t *testing.T) {
	dropDir := t.TempDir()
	bundle := filepath.Join(dropDir, "broken-seed")
	writeBundle(t, bundle)

	seeder := &fakeSeeder{fail: true}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dropDir, seeder, discardLogger()) }()

	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	if _, err := os.Stat(bundle); err != nil {
		t.Error("failed bundle was removed")
	}
}

func TestWatch_IgnoresPlainFilesAndDirsWithoutManifest(t *testing.T) {
	dropDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dropDir, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dropDir, "incomplete"), 0o755); err != nil {
		t.Fatal(err)
	}

	seeder := &fakeSeeder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dropDir, seeder, discardLogger()) }()

	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	if got := seeder.ingested(); len(got) != 0 {
		t.Errorf("ingested = %v, want none", got)
	}
}

func TestBundleDirFor(t *testing.T) {
	drop := filepath.Join("/", "drop")
	cases := []struct {
		event string
		want  string
	}{
		{filepath.Join(drop, "seed-a"), filepath.Join(drop, "seed-a")},
		{filepath.Join(drop, "seed-a", "manifest.yaml"), filepath.Join(drop, "seed-a")},
		{drop, ""},
		{filepath.Join(drop, ".hidden"), ""},
		{filepath.Join("/", "elsewhere", "x"), ""},
	}
	for _, tc := range cases {
		if got := bundleDirFor(drop, tc.event); got != tc.want {
			t.Errorf("bundleDirFor(%q) = %q, want %q", tc.event, got, tc.want)
		}
	}
}
