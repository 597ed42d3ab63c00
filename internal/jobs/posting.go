package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Posting is one normalized job listing. Adapters produce postings in this
// shape regardless of the upstream payload; ID is assigned at normalization
// time and is stable only for the lifetime of one result set.
type Posting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	SalaryRaw    string    `json:"salary_raw,omitempty"`
	SalaryMin    int       `json:"salary_min,omitempty"`
	SalaryMax    int       `json:"salary_max,omitempty"`
	Experience   string    `json:"experience,omitempty"`
	Education    string    `json:"education,omitempty"`
	Description  string    `json:"description,omitempty"`
	Requirements []string  `json:"requirements,omitempty"`
	Benefits     []string  `json:"benefits,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	Source       string    `json:"source"`
	SourceURL    string    `json:"source_url,omitempty"`
	CompanySize  string    `json:"company_size,omitempty"`
	Industry     string    `json:"industry,omitempty"`
	JobType      string    `json:"job_type,omitempty"`
	Remote       bool      `json:"remote"`

	// Score is assigned by the ranking pipeline, Match by the optional
	// personalized pass. Both stay within [0,100].
	Score float64    `json:"score"`
	Match *MatchInfo `json:"match,omitempty"`
}

// MatchInfo carries the personalized score breakdown attached by the matcher.
type MatchInfo struct {
	Score        float64            `json:"score"`
	Details      map[string]float64 `json:"details,omitempty"`
	Reasons      []string           `json:"reasons,omitempty"`
	Improvements []string           `json:"improvements,omitempty"`
}

// HasSalary reports whether the posting carries any salary information.
func (p *Posting) HasSalary() bool {
	return p.SalaryRaw != "" || p.SalaryMin > 0 || p.SalaryMax > 0
}

type Postings struct {
	Items []*Posting
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) Append(items ...*Posting) {
	p.Items = append(p.Items, items...)
}

func (p *Postings) FindByID(id string) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportBySource groups a compact human-readable view of the postings by
// their source adapter.
func (p *Postings) ReportBySource() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		entry := map[string]string{
			"title":    posting.Title,
			"company":  posting.Company,
			"location": posting.Location,
			"url":      posting.SourceURL,
			"score":    fmt.Sprintf("%.1f", posting.Score),
		}
		if posting.HasSalary() {
			entry["salary"] = posting.SalaryLabel()
		}
		if posting.Match != nil {
			entry["match_score"] = fmt.Sprintf("%.1f", posting.Match.Score)
		}
		report[posting.Source] = append(report[posting.Source], entry)
	}
	return report
}

// SalaryLabel renders the salary range, falling back to the raw upstream string.
func (p *Posting) SalaryLabel() string {
	switch {
	case p.SalaryMin > 0 && p.SalaryMax > 0:
		return fmt.Sprintf("%d-%d", p.SalaryMin, p.SalaryMax)
	case p.SalaryMin > 0:
		return fmt.Sprintf("from %d", p.SalaryMin)
	case p.SalaryMax > 0:
		return fmt.Sprintf("up to %d", p.SalaryMax)
	default:
		return p.SalaryRaw
	}
}
