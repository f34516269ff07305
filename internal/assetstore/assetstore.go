// Package assetstore persists binary assets (videos, PDFs, covers) on
// the local file system and hands out stable URLs for them.
package assetstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getlost/portal/internal/apperr"
)

// Provider is the asset-store collaborator contract: persist bytes under
// a scope and category, get back a servable URL.
type Provider interface {
	// Store writes data and returns its public URL.
	Store(data []byte, scopeID, category, filename string) (string, error)
	// Path returns the absolute on-disk path for a stored asset.
	Path(scopeID, category, filename string) (string, error)
	// Read returns the raw bytes of a stored asset.
	Read(scopeID, category, filename string) ([]byte, error)
}

// FS implements Provider backed by a local directory. Assets live at
// <root>/<scopeID>/<category>/<filename> and are served under
// <baseURL>/<scopeID>/<category>/<filename>.
type FS struct {
	root    string // absolute path to the asset directory
	baseURL string // URL prefix, e.g. "/assets"
}

// NewFS creates an FS store rooted at dir. The directory is created if
// missing.
func NewFS(dir, baseURL string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("assetstore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("assetstore: create root: %w", err)
	}
	return &FS{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// safePath validates each component as a plain name and returns the
// absolute path under root. Traversal via any component is rejected.
func (f *FS) safePath(scopeID, category, filename string) (string, error) {
	for _, part := range []string{scopeID, category, filename} {
		if part == "" {
			return "", fmt.Errorf("assetstore: empty path component: %w", apperr.ErrUnsafePath)
		}
		cleaned := filepath.Clean(part)
		if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
			return "", fmt.Errorf("assetstore: invalid component %q: %w", part, apperr.ErrUnsafePath)
		}
	}
	abs := filepath.Join(f.root, scopeID, category, filename)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("assetstore: %q: %w", abs, apperr.ErrUnsafePath)
	}
	return abs, nil
}

// Store atomically writes data: tmp file, fsync, rename. Re-storing the
// same filename overwrites; the URL stays stable.
func (f *FS) Store(data []byte, scopeID, category, filename string) (string, error) {
	abs, err := f.safePath(scopeID, category, filename)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("assetstore: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".getlost-tmp-*")
	if err != nil {
		return "", fmt.Errorf("assetstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("assetstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("assetstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("assetstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return "", fmt.Errorf("assetstore: rename: %w", err)
	}
	success = true

	return f.URL(scopeID, category, filename), nil
}

// Path returns the absolute on-disk path for an asset, verifying it
// exists.
func (f *FS) Path(scopeID, category, filename string) (string, error) {
	abs, err := f.safePath(scopeID, category, filename)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("assetstore: stat: %w", err)
	}
	return abs, nil
}

// Read returns the raw bytes of a stored asset.
func (f *FS) Read(scopeID, category, filename string) ([]byte, error) {
	abs, err := f.Path(scopeID, category, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("assetstore: read: %w", err)
	}
	return data, nil
}

// URL returns the public URL for an asset without touching disk.
func (f *FS) URL(scopeID, category, filename string) string {
	return f.baseURL + "/" + scopeID + "/" + category + "/" + filename
}
