package contentservice

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/getlost/portal/internal/apperr"
)

// extractZip unpacks the archive into a freshly created temp directory
// and returns it together with a cleanup func. Callers must always run
// cleanup, success or not. Entries that would escape the temp dir are
// skipped, not fatal.
func extractZip(payload []byte) (string, func(), error) {
	r, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return "", nil, fmt.Errorf("contentservice: open zip: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "getlost-extract-*")
	if err != nil {
		return "", nil, fmt.Errorf("contentservice: create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	for _, zf := range r.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		dest, ok := safeJoin(tmpDir, zf.Name)
		if !ok {
			continue
		}
		if err := writeZipEntry(zf, dest); err != nil {
			cleanup()
			return "", nil, err
		}
	}
	return tmpDir, cleanup, nil
}

// safeJoin joins an archive entry name under root, refusing traversal.
func safeJoin(root, name string) (string, bool) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	dest := filepath.Join(root, cleaned)
	if !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
		return "", false
	}
	return dest, true
}

func writeZipEntry(zf *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("contentservice: mkdir for entry: %w", err)
	}
	src, err := zf.Open()
	if err != nil {
		return fmt.Errorf("contentservice: open zip entry %s: %w", zf.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("contentservice: create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("contentservice: extract %s: %w", zf.Name, err)
	}
	return nil
}

// findHTML returns the first .html/.htm file under dir (walk order), or
// ErrNotFound. "No HTML in archive" is an upstream validation error, so
// it surfaces as the common sentinel.
func findHTML(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".html" || ext == ".htm" {
			found = p
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("contentservice: scan for html: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("contentservice: no html file in %s: %w", dir, apperr.ErrNotFound)
	}
	return found, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("contentservice: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("contentservice: read %s: %w", path, err)
	}
	return data, nil
}
