// Package matcher re-scores ranked postings against a user profile with a
// weighted multi-factor model and attaches human-readable reasons and
// improvement hints.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jobatlas/jobatlas/internal/jobs"

	"go.uber.org/zap"
)

const (
	// DefaultMinScore drops postings below this composite from the
	// personalized result.
	DefaultMinScore = 30.0

	// reasonThreshold: sub-scores at or above it become reasons.
	reasonThreshold = 70.0
	// gapThreshold: sub-scores below it may produce improvement hints.
	gapThreshold = 50.0

	maxReasons      = 3
	maxImprovements = 3
)

type factor struct {
	name   string
	weight float64
	score  func(p *jobs.Posting, profile *UserProfile) float64
	reason func(score float64) string
	hint   func(p *jobs.Posting, profile *UserProfile) string
}

// factors are ordered by descending weight; reasons therefore come out
// highest-weight first. The weights sum to 1.0.
var factors = []factor{
	{
		name:   "skill",
		weight: 0.35,
		score:  skillScore,
		reason: func(s float64) string { return fmt.Sprintf("strong skill fit (%.0f)", s) },
		hint:   skillHint,
	},
	{
		name:   "experience",
		weight: 0.20,
		score:  experienceScore,
		reason: func(s float64) string { return fmt.Sprintf("experience level fits (%.0f)", s) },
		hint: func(p *jobs.Posting, profile *UserProfile) string {
			if required := requiredYears(p.Experience); required > profile.ExperienceYears {
				return fmt.Sprintf("posting asks for about %.0f years of experience", required)
			}
			return "your experience exceeds what the role needs"
		},
	},
	{
		name:   "location",
		weight: 0.15,
		score:  locationScore,
		reason: func(s float64) string { return fmt.Sprintf("location works for you (%.0f)", s) },
		hint: func(p *jobs.Posting, _ *UserProfile) string {
			return fmt.Sprintf("role is based in %s, outside your preferred locations", p.Location)
		},
	},
	{
		name:   "salary",
		weight: 0.10,
		score:  salaryScore,
		reason: func(s float64) string { return fmt.Sprintf("salary meets expectations (%.0f)", s) },
		hint: func(_ *jobs.Posting, _ *UserProfile) string {
			return "offered salary range sits below your expectation"
		},
	},
	{
		name:   "company",
		weight: 0.08,
		score:  companyScore,
		reason: func(s float64) string { return fmt.Sprintf("company size matches (%.0f)", s) },
		hint: func(p *jobs.Posting, _ *UserProfile) string {
			return fmt.Sprintf("company size %q differs from your preference", p.CompanySize)
		},
	},
	{
		name:   "industry",
		weight: 0.07,
		score:  industryScore,
		reason: func(s float64) string { return fmt.Sprintf("preferred industry (%.0f)", s) },
		hint: func(p *jobs.Posting, _ *UserProfile) string {
			return fmt.Sprintf("industry %q is outside your preferences", p.Industry)
		},
	},
	{
		name:   "culture",
		weight: 0.03,
		score:  cultureScore,
		reason: func(s float64) string { return fmt.Sprintf("work style matches (%.0f)", s) },
		hint: func(_ *jobs.Posting, _ *UserProfile) string {
			return "work arrangement may not match your preferred style"
		},
	},
	{
		name:   "career",
		weight: 0.02,
		score:  careerScore,
		reason: func(s float64) string { return fmt.Sprintf("aligned with career goals (%.0f)", s) },
		hint: func(_ *jobs.Posting, _ *UserProfile) string {
			return "role does not obviously advance your stated career goals"
		},
	},
}

type Matcher struct {
	minScore float64
	logger   *zap.Logger
}

func New(minScore float64, logger *zap.Logger) *Matcher {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Matcher{
		minScore: minScore,
		logger:   logger,
	}
}

// Rescore evaluates every posting against the profile, drops those under the
// minimum composite and returns the survivors sorted by match score. The
// input order breaks ties, keeping the pass deterministic.
func (m *Matcher) Rescore(postings []*jobs.Posting, profile *UserProfile) []*jobs.Posting {
	if profile == nil {
		return postings
	}

	kept := make([]*jobs.Posting, 0, len(postings))
	for _, posting := range postings {
		info := m.Evaluate(posting, profile)
		if info.Score < m.minScore {
			m.logger.Debug("posting below personalized threshold",
				zap.String("posting_id", posting.ID),
				zap.Float64("match_score", info.Score),
				zap.Float64("threshold", m.minScore),
			)
			continue
		}
		posting.Match = info
		kept = append(kept, posting)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Match.Score > kept[j].Match.Score
	})

	return kept
}

// Evaluate computes the eight weighted sub-scores for one posting.
func (m *Matcher) Evaluate(p *jobs.Posting, profile *UserProfile) *jobs.MatchInfo {
	details := make(map[string]float64, len(factors))
	var composite float64
	var reasons []string
	var improvements []string

	for _, f := range factors {
		score := clamp(f.score(p, profile))
		details[f.name] = score
		composite += f.weight * score

		if score >= reasonThreshold && len(reasons) < maxReasons {
			reasons = append(reasons, f.reason(score))
		}
		if score < gapThreshold && len(improvements) < maxImprovements {
			if hint := f.hint(p, profile); hint != "" {
				improvements = append(improvements, hint)
			}
		}
	}

	return &jobs.MatchInfo{
		Score:        clamp(composite),
		Details:      details,
		Reasons:      reasons,
		Improvements: improvements,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// skillScore weighs the posting's requirements with the position-specific
// table; exact matches count fully, partial (substring) matches at 0.7.
func skillScore(p *jobs.Posting, profile *UserProfile) float64 {
	if len(p.Requirements) == 0 {
		return 50
	}

	role := roleFor(p.Title)
	var total, matched float64

	for _, requirement := range p.Requirements {
		weight := skillWeight(role, requirement)
		total += weight

		best := 0.0
		for _, skill := range profile.Skills {
			switch matchSkill(skill, requirement) {
			case matchExact:
				best = 1.0
			case matchPartial:
				if best < 0.7 {
					best = 0.7
				}
			}
			if best == 1.0 {
				break
			}
		}
		matched += best * weight
	}

	if total == 0 {
		return 50
	}
	return matched / total * 100
}

type skillMatch int

const (
	matchNone skillMatch = iota
	matchPartial
	matchExact
)

func matchSkill(skill, requirement string) skillMatch {
	skill = strings.ToLower(strings.TrimSpace(skill))
	requirement = strings.ToLower(strings.TrimSpace(requirement))
	if skill == "" || requirement == "" {
		return matchNone
	}
	if skill == requirement {
		return matchExact
	}
	if strings.Contains(skill, requirement) || strings.Contains(requirement, skill) {
		return matchPartial
	}
	return matchNone
}

// experienceScore penalizes under-qualification sharply and
// over-qualification gently.
func experienceScore(p *jobs.Posting, profile *UserProfile) float64 {
	required := requiredYears(p.Experience)
	if required < 0 {
		return 70
	}

	diff := profile.ExperienceYears - required
	if diff >= 0 {
		penalty := diff * 5
		if penalty > 40 {
			penalty = 40
		}
		return 100 - penalty
	}

	penalty := -diff * 30
	if penalty > 100 {
		penalty = 100
	}
	return 100 - penalty
}

// requiredYears extracts a years requirement from free text; -1 means the
// posting does not state one.
func requiredYears(text string) float64 {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return -1
	}

	var digits strings.Builder
	for _, r := range lowered {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() > 0 {
		var years float64
		fmt.Sscanf(digits.String(), "%f", &years)
		return years
	}

	switch {
	case strings.Contains(lowered, "junior") || strings.Contains(lowered, "entry"):
		return 1
	case strings.Contains(lowered, "senior") || strings.Contains(lowered, "expert"):
		return 5
	case strings.Contains(lowered, "lead") || strings.Contains(lowered, "principal"):
		return 7
	case strings.Contains(lowered, "mid"):
		return 3
	}
	return -1
}

func locationScore(p *jobs.Posting, profile *UserProfile) float64 {
	if len(profile.PreferredLocations) == 0 {
		return 70
	}

	location := strings.ToLower(p.Location)
	for _, preferred := range profile.PreferredLocations {
		preferred = strings.ToLower(strings.TrimSpace(preferred))
		if preferred == "" {
			continue
		}
		if preferred == "remote" && p.Remote {
			return 100
		}
		if location == preferred {
			return 100
		}
		if strings.Contains(location, preferred) || strings.Contains(preferred, location) {
			return 80
		}
	}

	if p.Remote {
		return 60
	}
	return 30
}

// salaryScore computes interval overlap between the expected and offered
// ranges instead of comparing points.
func salaryScore(p *jobs.Posting, profile *UserProfile) float64 {
	if profile.ExpectedSalaryMin <= 0 && profile.ExpectedSalaryMax <= 0 {
		return 50
	}
	if p.SalaryMin <= 0 && p.SalaryMax <= 0 {
		return 50
	}

	expectedMin, expectedMax := profile.ExpectedSalaryMin, profile.ExpectedSalaryMax
	if expectedMax <= 0 {
		expectedMax = expectedMin
	}
	offeredMin, offeredMax := p.SalaryMin, p.SalaryMax
	if offeredMax <= 0 {
		offeredMax = offeredMin
	}

	if offeredMin >= expectedMax {
		return 100
	}
	if offeredMax < expectedMin {
		return 0
	}

	overlapLow := max(offeredMin, expectedMin)
	overlapHigh := min(offeredMax, expectedMax)
	span := expectedMax - expectedMin
	if span <= 0 {
		// Point expectation inside the offered range.
		return 100
	}

	return float64(overlapHigh-overlapLow) / float64(span) * 100
}

func companyScore(p *jobs.Posting, profile *UserProfile) float64 {
	if profile.CompanySize == "" {
		return 60
	}
	if p.CompanySize == "" {
		return 60
	}
	if strings.EqualFold(p.CompanySize, profile.CompanySize) {
		return 100
	}
	return 40
}

func industryScore(p *jobs.Posting, profile *UserProfile) float64 {
	if len(profile.Industries) == 0 {
		return 60
	}
	if p.Industry == "" {
		return 60
	}

	industry := strings.ToLower(p.Industry)
	for _, preferred := range profile.Industries {
		preferred = strings.ToLower(strings.TrimSpace(preferred))
		if preferred != "" && strings.Contains(industry, preferred) {
			return 100
		}
	}
	return 30
}

func cultureScore(p *jobs.Posting, profile *UserProfile) float64 {
	style := strings.ToLower(strings.TrimSpace(profile.WorkStyle))
	if style == "" {
		return 60
	}

	switch {
	case strings.Contains(style, "remote") && p.Remote:
		return 90
	case strings.Contains(style, "office") && !p.Remote:
		return 90
	}

	haystack := strings.ToLower(p.Description + " " + strings.Join(p.Benefits, " "))
	if strings.Contains(haystack, style) {
		return 80
	}
	return 40
}

// careerScore favors postings resembling the profile's stated goals and
// historical click/application behaviour.
func careerScore(p *jobs.Posting, profile *UserProfile) float64 {
	signals := make([]string, 0, len(profile.CareerGoals)+len(profile.AppliedTitles)+len(profile.ClickedTitles))
	signals = append(signals, profile.CareerGoals...)
	signals = append(signals, profile.AppliedTitles...)
	signals = append(signals, profile.ClickedTitles...)

	if len(signals) == 0 {
		return 50
	}

	haystack := strings.ToLower(p.Title + " " + p.Description)
	hits := 0
	for _, signal := range signals {
		signal = strings.ToLower(strings.TrimSpace(signal))
		if signal != "" && strings.Contains(haystack, signal) {
			hits++
		}
	}

	return float64(hits) / float64(len(signals)) * 100
}

// skillHint names the highest-weight missing skills.
func skillHint(p *jobs.Posting, profile *UserProfile) string {
	role := roleFor(p.Title)

	type gap struct {
		skill  string
		weight float64
	}
	var gaps []gap

	for _, requirement := range p.Requirements {
		covered := false
		for _, skill := range profile.Skills {
			if matchSkill(skill, requirement) != matchNone {
				covered = true
				break
			}
		}
		if !covered {
			gaps = append(gaps, gap{skill: requirement, weight: skillWeight(role, requirement)})
		}
	}

	if len(gaps) == 0 {
		return ""
	}

	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].weight > gaps[j].weight })
	if len(gaps) > 3 {
		gaps = gaps[:3]
	}

	names := make([]string, len(gaps))
	for i, g := range gaps {
		names[i] = g.skill
	}
	return fmt.Sprintf("missing skills: %s", strings.Join(names, ", "))
}
