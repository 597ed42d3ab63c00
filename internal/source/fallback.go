package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/jobatlas/jobatlas/internal/jobs"
)

// NameFallback tags synthetic postings so a consumer checking Source can
// always tell them apart from real upstream data.
const NameFallback = "fallback"

// FallbackBatch builds a small deterministic batch of plausible postings for
// callers that opted into "always return something" mode. It is produced
// only when every real source came back empty or failed.
func FallbackBatch(req *jobs.SearchRequest, now time.Time) *jobs.Postings {
	title := strings.TrimSpace(req.Query)
	if title == "" {
		title = "software engineer"
	}

	location := req.Location
	if location == "" {
		location = "remote"
	}

	batch := &jobs.Postings{}
	batch.Append(
		&jobs.Posting{
			ID:           "fallback-1",
			Title:        fmt.Sprintf("%s (mid-level)", title),
			Company:      "Atlas Placeholder Ltd",
			Location:     location,
			Description:  fmt.Sprintf("Placeholder result for %q produced because no upstream source answered.", req.Query),
			Requirements: ExtractRequirements(title),
			PublishedAt:  now,
			Source:       NameFallback,
			Remote:       true,
		},
		&jobs.Posting{
			ID:          "fallback-2",
			Title:       fmt.Sprintf("Senior %s", title),
			Company:     "Atlas Placeholder Ltd",
			Location:    location,
			Experience:  "5+ years",
			Description: fmt.Sprintf("Placeholder result for %q produced because no upstream source answered.", req.Query),
			PublishedAt: now,
			Source:      NameFallback,
			Remote:      true,
		},
	)

	return batch
}
