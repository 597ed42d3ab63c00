package jobs

// SourceError records one adapter failure surfaced to the caller.
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// SearchResult is the immutable outcome of one orchestrated search.
type SearchResult struct {
	Postings        []*Posting     `json:"postings"`
	TotalCount      int            `json:"total_count"`
	PerSourceCounts map[string]int `json:"per_source_counts"`
	Errors          []SourceError  `json:"errors,omitempty"`
	AlgorithmID     string         `json:"algorithm_id"`
	TookMillis      int64          `json:"took_millis"`
}

func (r *SearchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Postings)
}

// ToPostings wraps the result list in a Postings collection for reporting.
func (r *SearchResult) ToPostings() *Postings {
	return &Postings{Items: r.Postings}
}

// CopyPostings returns shallow copies of the postings so a personalized pass
// can annotate them without touching the cached originals.
func (r *SearchResult) CopyPostings() []*Posting {
	copies := make([]*Posting, len(r.Postings))
	for i, posting := range r.Postings {
		clone := *posting
		copies[i] = &clone
	}
	return copies
}
