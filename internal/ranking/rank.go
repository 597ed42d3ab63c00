// Package ranking merges per-adapter posting batches, collapses duplicates
// and orders the survivors by a composite score.
package ranking

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/jobatlas/jobatlas/internal/jobs"
	"github.com/jobatlas/jobatlas/internal/source"

	"go.uber.org/zap"
)

// AlgorithmID identifies the ranking algorithm in search results.
const AlgorithmID = "composite-v1"

// Composite score components.
const (
	salaryBonus       = 10
	recencyDayBonus   = 15
	recencyWeekBonus  = 10
	recencyMonthBonus = 5
	descriptionBonus  = 5
	requirementsBonus = 5

	longDescription = 100
)

// reliabilityBonus is a fixed per-source bonus; the fallback source always
// ranks below real upstream data.
var reliabilityBonus = map[string]float64{
	source.NameRemotive:  10,
	source.NameArbeitnow: 8,
	source.NameJobicy:    6,
	source.NameFallback:  0,
}

const defaultReliabilityBonus = 4

// Step describes one pipeline run, mirroring the per-stage accounting used
// for filter steps.
type Step struct {
	Merged     int
	Duplicates int
	Ranked     int
}

type Pipeline struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewPipeline(logger *zap.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
		now:    time.Now,
	}
}

// Run unions the batches, drops duplicates and returns the postings sorted
// by descending composite score. The sort is stable, so identical inputs
// always produce identical ordering.
func (pl *Pipeline) Run(batches ...*jobs.Postings) ([]*jobs.Posting, Step) {
	var merged []*jobs.Posting
	for _, batch := range batches {
		if batch == nil {
			continue
		}
		merged = append(merged, batch.Items...)
	}

	unique := Dedup(merged)
	ranked := Rank(unique, pl.now())

	step := Step{
		Merged:     len(merged),
		Duplicates: len(merged) - len(unique),
		Ranked:     len(ranked),
	}

	if pl.logger != nil {
		pl.logger.Debug("ranking pipeline",
			zap.Int("merged", step.Merged),
			zap.Int("duplicates", step.Duplicates),
			zap.Int("ranked", step.Ranked),
		)
	}

	return ranked, step
}

// DedupKey is the normalized (title, company, location) triple. It is
// intentionally coarse: two distinct postings sharing all three collapse
// into one.
func DedupKey(p *jobs.Posting) string {
	return normalize(p.Title) + "_" + normalize(p.Company) + "_" + normalize(p.Location)
}

// Dedup drops later occurrences of the same dedup key, preserving order.
func Dedup(items []*jobs.Posting) []*jobs.Posting {
	seen := make(map[string]struct{}, len(items))
	unique := make([]*jobs.Posting, 0, len(items))

	for _, item := range items {
		key := DedupKey(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}

	return unique
}

// Rank assigns composite scores and stably sorts descending, so merge order
// breaks ties deterministically.
func Rank(items []*jobs.Posting, now time.Time) []*jobs.Posting {
	for _, item := range items {
		item.Score = Score(item, now)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	return items
}

// Score computes the composite ranking score for one posting.
func Score(p *jobs.Posting, now time.Time) float64 {
	var score float64

	if p.HasSalary() {
		score += salaryBonus
	}

	if !p.PublishedAt.IsZero() {
		age := now.Sub(p.PublishedAt)
		switch {
		case age <= 24*time.Hour:
			score += recencyDayBonus
		case age <= 7*24*time.Hour:
			score += recencyWeekBonus
		case age <= 30*24*time.Hour:
			score += recencyMonthBonus
		}
	}

	if len(p.Description) > longDescription {
		score += descriptionBonus
	}

	if len(p.Requirements) > 0 {
		score += requirementsBonus
	}

	bonus, ok := reliabilityBonus[p.Source]
	if !ok {
		bonus = defaultReliabilityBonus
	}
	score += bonus

	return score
}

// normalize lower-cases and strips everything but letters, digits and
// spaces, then trims.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
