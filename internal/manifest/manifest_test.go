package manifest

import (
	"testing"

	"github.com/getlost/portal/internal/models"
)

func TestParse(t *testing.T) {
	data := []byte(`title: Beach Read
slug: beach-read
kind: report
upload_filenames:
  - BeachRead.pdf
  - "  beach-read-final.pdf  "
  - ""
`)
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Title != "Beach Read" || m.Slug != "beach-read" || m.Kind != models.KindReport {
		t.Errorf("m = %+v", m)
	}
	names := m.Filenames()
	if len(names) != 2 || names[1] != "beach-read-final.pdf" {
		t.Errorf("Filenames() = %v", names)
	}
	if m.Status != "ready" {
		t.Errorf("status = %q, want ready default", m.Status)
	}
}

func TestParse_KindDefaultsToReport(t *testing.T) {
	m, err := Parse([]byte("title: X\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Kind != models.KindReport {
		t.Errorf("kind = %q", m.Kind)
	}
}

func TestParse_MissingTitle(t *testing.T) {
	if _, err := Parse([]byte("kind: report\n")); err == nil {
		t.Error("expected error for missing title")
	}
}

func TestParse_UnknownKind(t *testing.T) {
	if _, err := Parse([]byte("title: X\nkind: poster\n")); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte(": bad: yaml: {{{")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
