// Package seedmatch associates uploaded manuscripts with previously
// seeded content by fuzzy filename comparison.
package seedmatch

import (
	"strings"

	"github.com/getlost/portal/internal/models"
	"github.com/getlost/portal/internal/namekey"
)

// Match is a successful lookup: the seeded record plus the candidate
// string that satisfied the comparison.
type Match struct {
	Record           models.Record
	MatchedCandidate string
}

// Find returns the first seeded record whose filename candidates match
// uploadedName, or nil. records must be in seed insertion order: ties go
// to whichever record was stored first (accepted ambiguity, the seed set
// is curated to keep titles distinct).
//
// A candidate matches when the normalized forms are equal or one
// contains the other, or the core names are equal or one contains the
// other. The double-check exists because filenames gain and lose
// prefixes between the uploaded artifact and the seeded one
// ("The Everlasting Gift Book.pdf" vs "everlasting-gift-final.pdf").
func Find(uploadedName string, records []models.Record) *Match {
	normUp := namekey.Normalize(uploadedName)
	coreUp := namekey.Core(uploadedName)
	if normUp == "" {
		return nil
	}
	for _, rec := range records {
		for _, cand := range rec.FilenameCandidates() {
			if matches(normUp, coreUp, cand) {
				return &Match{Record: rec, MatchedCandidate: cand}
			}
		}
	}
	return nil
}

func matches(normUp, coreUp, candidate string) bool {
	normCand := namekey.Normalize(candidate)
	if normCand != "" {
		if normCand == normUp ||
			strings.Contains(normUp, normCand) ||
			strings.Contains(normCand, normUp) {
			return true
		}
	}
	// Empty cores never match: a file of nothing but stop words must not
	// act as a wildcard.
	coreCand := namekey.Core(candidate)
	if coreUp == "" || coreCand == "" {
		return false
	}
	return coreCand == coreUp ||
		strings.Contains(coreUp, coreCand) ||
		strings.Contains(coreCand, coreUp)
}
