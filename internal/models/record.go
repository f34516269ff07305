// Package models defines the domain types for the Get Lost portal core.
package models

import (
	"encoding/json"
	"time"
)

// Kind identifies which family of content a record belongs to.
type Kind string

// Content kinds. Values match the column values stored in SQLite.
const (
	KindReport         Kind = "report"
	KindMarketingAsset Kind = "marketing_asset"
	KindBookCover      Kind = "book_cover"
	KindLandingPage    Kind = "landing_page"
)

// Valid reports whether k is one of the known content kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindReport, KindMarketingAsset, KindBookCover, KindLandingPage:
		return true
	}
	return false
}

// SeedBucketID is the reserved owner for seeded (precanned) content.
// Seeded records are stored under this book ID and reused as read-only
// templates when a real upload matches them by filename.
const SeedBucketID = "00000000-0000-0000-0000-000000000000"

// Metadata is the JSON document attached to a content record.
type Metadata struct {
	// UploadFileNames lists the artifact filenames this record was seeded
	// from (or matched against). Used as matcher candidates.
	UploadFileNames []string `json:"uploadFileNames,omitempty"`
	// SourceChecksum is the SHA-256 of the originally uploaded payload.
	SourceChecksum string `json:"sourceChecksum,omitempty"`
	// PDFURL points at a stored PDF rendition, when one was uploaded
	// alongside the HTML.
	PDFURL string `json:"pdfUrl,omitempty"`
	// MatchedCandidate records which filename candidate satisfied the
	// seeded-content matcher, for diagnosis.
	MatchedCandidate string `json:"matchedCandidate,omitempty"`
	// SeededFrom is the ID of the seeded record this one was copied from.
	SeededFrom string `json:"seededFrom,omitempty"`
}

// Encode marshals the metadata to its stored JSON form.
func (m Metadata) Encode() string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodeMetadata parses the stored JSON form. Invalid JSON yields an
// empty Metadata rather than an error; the fields are advisory.
func DecodeMetadata(s string) Metadata {
	var m Metadata
	if s == "" {
		return m
	}
	_ = json.Unmarshal([]byte(s), &m)
	return m
}

// Record is a content row: a seeded template under the seed bucket, or a
// live record scoped to a real book.
type Record struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"kind"`
	BookID          string    `json:"book_id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug,omitempty"`
	HTML            string    `json:"html,omitempty"`
	Metadata        string    `json:"metadata,omitempty"`
	Status          string    `json:"status"`
	ImagesEmbedded  int       `json:"images_embedded"`
	VideosRewritten int       `json:"videos_rewritten"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Seeded reports whether the record lives in the system seed bucket.
func (r *Record) Seeded() bool {
	return r.BookID == SeedBucketID
}

// FilenameCandidates returns the strings the seeded-content matcher
// compares an uploaded filename against: explicit upload filenames from
// metadata first, then title and slug.
func (r *Record) FilenameCandidates() []string {
	meta := DecodeMetadata(r.Metadata)
	out := make([]string, 0, len(meta.UploadFileNames)+2)
	out = append(out, meta.UploadFileNames...)
	if r.Title != "" {
		out = append(out, r.Title)
	}
	if r.Slug != "" {
		out = append(out, r.Slug)
	}
	return out
}
