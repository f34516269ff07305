package bundler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/getlost/portal/internal/apperr"
)

// Resolved is a media reference located on disk within the allowed
// search roots.
type Resolved struct {
	Ref     Reference
	AbsPath string
	MIME    string
	Data    []byte
}

// Resolve locates rawPath under the ordered search directories. For each
// directory the probe order is: the directory itself, its parent, its
// immediate subdirectories, then the parent's immediate subdirectories.
// The first readable hit wins, so duplicate-named files are settled by
// search-directory priority.
//
// A candidate whose resolved absolute path escapes the directory (or its
// immediate parent) is skipped, never returned: a crafted reference like
// ../../../etc/passwd cannot resolve even if the target exists.
func Resolve(rawPath string, dirs []string) (*Resolved, error) {
	rel := filepath.FromSlash(strings.TrimPrefix(rawPath, "./"))
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		parent := filepath.Dir(abs)
		roots := []string{abs, parent}

		bases := []string{abs, parent}
		bases = append(bases, subdirs(abs)...)
		bases = append(bases, subdirs(parent)...)

		for _, base := range bases {
			if r := tryCandidate(base, rel, roots); r != nil {
				r.Ref = Reference{RawPath: rawPath}
				return r, nil
			}
		}
	}
	return nil, apperr.ErrNotFound
}

// tryCandidate joins base with rel and returns the file if it exists, is
// regular, stays under one of the safe roots, and can be read.
func tryCandidate(base, rel string, roots []string) *Resolved {
	candidate, err := filepath.Abs(filepath.Join(base, rel))
	if err != nil {
		return nil
	}
	if !underAny(candidate, roots) {
		return nil
	}
	info, err := os.Stat(candidate)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	data, err := os.ReadFile(candidate)
	if err != nil {
		return nil
	}
	return &Resolved{
		AbsPath: candidate,
		MIME:    MIMEByExtension(candidate),
		Data:    data,
	}
}

// subdirs lists the immediate subdirectories of dir. A missing or
// unreadable dir yields none; absence is an expected case here.
func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
