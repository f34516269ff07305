// Package manifest parses the YAML manifest that accompanies a seed
// drop bundle (a directory of HTML plus media placed in the seed-drop
// folder by an admin).
package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getlost/portal/internal/models"
)

// FileName is the manifest file looked for inside a drop bundle.
const FileName = "manifest.yaml"

// Manifest describes one seed bundle.
type Manifest struct {
	Title           string      `yaml:"title"`
	Slug            string      `yaml:"slug"`
	Kind            models.Kind `yaml:"kind"`
	UploadFileNames []string    `yaml:"upload_filenames"`
	Status          string      `yaml:"status"`
}

// Parse decodes and validates manifest YAML. Kind defaults to report;
// title is required since it is the primary matcher candidate.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return nil, fmt.Errorf("manifest: title is required")
	}
	if m.Kind == "" {
		m.Kind = models.KindReport
	}
	if !m.Kind.Valid() {
		return nil, fmt.Errorf("manifest: unknown kind %q", m.Kind)
	}
	if m.Status == "" {
		m.Status = "ready"
	}
	return &m, nil
}

// Filenames returns the matcher candidates declared by the bundle.
func (m *Manifest) Filenames() []string {
	out := make([]string, 0, len(m.UploadFileNames))
	for _, f := range m.UploadFileNames {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
