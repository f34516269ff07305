package api

import (
	"github.com/getlost/portal/internal/contentservice"
	"github.com/getlost/portal/internal/models"
)

// UploadDetail is the full upload response type (aliased from the domain layer).
type UploadDetail = contentservice.Detail

// LinkRequest is the request body for linking seeded content to a book.
type LinkRequest struct {
	BookID string `json:"book_id" example:"9f1c2d34" validate:"required"`
}

// RecordListResponse wraps content record listings.
type RecordListResponse struct {
	Records []models.Record `json:"records" validate:"required"`
	Total   int             `json:"total" example:"12" validate:"required"`
}

// MatchResponse reports whether an upload filename matches seeded content.
type MatchResponse struct {
	Matched          bool           `json:"matched" validate:"required"`
	Record           *models.Record `json:"record,omitempty"`
	MatchedCandidate string         `json:"matched_candidate,omitempty" example:"BeachRead.pdf"`
}
