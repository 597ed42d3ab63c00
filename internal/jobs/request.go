package jobs

import (
	"fmt"
	"strings"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// Filters narrows a search down before ranking. Zero values mean "no filter".
type Filters struct {
	MinSalary   int    `json:"min_salary,omitempty" mapstructure:"min-salary"`
	Experience  string `json:"experience,omitempty" mapstructure:"experience"`
	CompanySize string `json:"company_size,omitempty" mapstructure:"company-size"`
	JobType     string `json:"job_type,omitempty" mapstructure:"job-type"`
	RemoteOnly  bool   `json:"remote_only,omitempty" mapstructure:"remote-only"`
}

// Matches reports whether a posting survives the filter set. Postings with
// no parsed salary range pass the salary floor (including ones carrying only
// a raw string like "Competitive"); only an explicit range below the floor
// filters them out.
func (f Filters) Matches(p *Posting) bool {
	if f.MinSalary > 0 && (p.SalaryMin > 0 || p.SalaryMax > 0) {
		if p.SalaryMax < f.MinSalary && p.SalaryMin < f.MinSalary {
			return false
		}
	}
	if f.Experience != "" && p.Experience != "" &&
		!strings.Contains(strings.ToLower(p.Experience), f.Experience) {
		return false
	}
	if f.CompanySize != "" && p.CompanySize != "" &&
		!strings.EqualFold(p.CompanySize, f.CompanySize) {
		return false
	}
	if f.JobType != "" && p.JobType != "" &&
		!strings.Contains(strings.ToLower(p.JobType), f.JobType) {
		return false
	}
	if f.RemoteOnly && !p.Remote {
		return false
	}
	return true
}

// SearchRequest describes one orchestrated search. It is treated as immutable
// once normalized; the normalized form doubles as the cache key.
type SearchRequest struct {
	Query    string   `json:"query" mapstructure:"query"`
	Location string   `json:"location,omitempty" mapstructure:"location"`
	Filters  Filters  `json:"filters,omitempty" mapstructure:"filters"`
	Sources  []string `json:"sources,omitempty" mapstructure:"sources"`
	Limit    int      `json:"limit,omitempty" mapstructure:"limit"`

	// AllowFallback opts into synthetic postings when every upstream fails.
	AllowFallback bool `json:"allow_fallback,omitempty" mapstructure:"allow-fallback"`
}

// Validate rejects malformed requests before any adapter is invoked.
func (r *SearchRequest) Validate() error {
	if r == nil {
		return Validation("search request is required", nil)
	}
	if strings.TrimSpace(r.Query) == "" {
		return Validation("query must not be empty", nil)
	}
	if r.Limit < 0 {
		return Validation(fmt.Sprintf("limit must be non-negative, got %d", r.Limit), nil)
	}
	return nil
}

// Normalize returns a canonical copy: trimmed, lower-cased strings and the
// limit clamped into [1, MaxLimit]. The receiver is left untouched.
func (r *SearchRequest) Normalize() *SearchRequest {
	n := &SearchRequest{
		Query:         strings.ToLower(strings.TrimSpace(r.Query)),
		Location:      strings.ToLower(strings.TrimSpace(r.Location)),
		Filters:       r.Filters,
		Limit:         r.Limit,
		AllowFallback: r.AllowFallback,
	}
	n.Filters.Experience = strings.ToLower(strings.TrimSpace(n.Filters.Experience))
	n.Filters.CompanySize = strings.ToLower(strings.TrimSpace(n.Filters.CompanySize))
	n.Filters.JobType = strings.ToLower(strings.TrimSpace(n.Filters.JobType))

	if n.Limit == 0 {
		n.Limit = DefaultLimit
	}
	if n.Limit > MaxLimit {
		n.Limit = MaxLimit
	}

	for _, s := range r.Sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			n.Sources = append(n.Sources, s)
		}
	}

	return n
}

// CacheKey renders the normalized request with a fixed field order so that
// identical requests always map to the same cache entry.
func (r *SearchRequest) CacheKey() string {
	return strings.Join([]string{
		r.Query,
		r.Location,
		fmt.Sprintf("%d", r.Filters.MinSalary),
		r.Filters.Experience,
		r.Filters.CompanySize,
		r.Filters.JobType,
		fmt.Sprintf("%t", r.Filters.RemoteOnly),
		strings.Join(r.Sources, ","),
		fmt.Sprintf("%d", r.Limit),
		fmt.Sprintf("%t", r.AllowFallback),
	}, "|")
}
