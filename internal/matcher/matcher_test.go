package matcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jobatlas/jobatlas/internal/jobs"

	"go.uber.org/zap"
)

func testProfile() *UserProfile {
	return &UserProfile{
		Skills:             []string{"go", "postgresql", "kubernetes"},
		ExperienceYears:    5,
		PreferredLocations: []string{"berlin", "remote"},
		ExpectedSalaryMin:  90000,
		ExpectedSalaryMax:  120000,
		CompanySize:        "startup",
		Industries:         []string{"fintech"},
		WorkStyle:          "remote",
		CareerGoals:        []string{"backend"},
	}
}

func TestEvaluateBounds(t *testing.T) {
	m := New(0, zap.NewNop())

	postings := []*jobs.Posting{
		{}, // everything unknown
		{
			Title:        "Senior Backend Go Engineer",
			Location:     "Berlin",
			Requirements: []string{"go", "postgresql", "kubernetes"},
			SalaryMin:    100000,
			SalaryMax:    130000,
			Experience:   "5+ years",
			CompanySize:  "startup",
			Industry:     "Fintech",
			Remote:       true,
		},
	}

	for _, p := range postings {
		info := m.Evaluate(p, testProfile())
		if info.Score < 0 || info.Score > 100 {
			t.Fatalf("composite %.1f out of [0,100]", info.Score)
		}
		for name, sub := range info.Details {
			if sub < 0 || sub > 100 {
				t.Fatalf("sub-score %s = %.1f out of [0,100]", name, sub)
			}
		}
		if len(info.Details) != 8 {
			t.Fatalf("got %d sub-scores, want 8", len(info.Details))
		}
	}
}

func TestSkillScore(t *testing.T) {
	profile := testProfile()

	cases := []struct {
		name    string
		posting *jobs.Posting
		want    float64
	}{
		{
			"full coverage",
			&jobs.Posting{Title: "Go Engineer", Requirements: []string{"go", "postgresql"}},
			100,
		},
		{
			"no coverage",
			&jobs.Posting{Title: "iOS Engineer", Requirements: []string{"swift", "objective-c"}},
			0,
		},
		{
			"no requirements stated",
			&jobs.Posting{Title: "Engineer"},
			50,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := skillScore(tc.posting, profile); got != tc.want {
				t.Fatalf("skillScore = %.1f, want %.1f", got, tc.want)
			}
		})
	}
}

func TestSkillScorePartialMatch(t *testing.T) {
	profile := &UserProfile{Skills: []string{"golang"}}
	posting := &jobs.Posting{Title: "Engineer", Requirements: []string{"go"}}

	// "golang" contains "go": a partial match worth 0.7.
	if got := skillScore(posting, profile); got != 70 {
		t.Fatalf("skillScore = %.1f, want 70", got)
	}
}

func TestExperienceScore(t *testing.T) {
	cases := []struct {
		name       string
		years      float64
		experience string
		want       float64
	}{
		{"exact fit", 5, "5 years", 100},
		{"mild overqualification", 7, "5 years", 90},
		{"overqualification capped", 20, "1 year", 60},
		{"underqualified by one year", 4, "5 years", 70},
		{"hopelessly underqualified", 0, "7 years", 0},
		{"nothing stated", 5, "", 70},
		{"senior keyword", 5, "senior", 100},
		{"junior keyword", 1, "junior level", 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profile := &UserProfile{ExperienceYears: tc.years}
			got := experienceScore(&jobs.Posting{Experience: tc.experience}, profile)
			if got != tc.want {
				t.Fatalf("experienceScore = %.1f, want %.1f", got, tc.want)
			}
		})
	}
}

func TestSalaryScore(t *testing.T) {
	profile := testProfile() // expects 90k-120k

	cases := []struct {
		name    string
		posting *jobs.Posting
		want    float64
	}{
		{"offer above expectation", &jobs.Posting{SalaryMin: 125000, SalaryMax: 150000}, 100},
		{"offer below expectation", &jobs.Posting{SalaryMin: 50000, SalaryMax: 70000}, 0},
		{"offer covers expectation", &jobs.Posting{SalaryMin: 90000, SalaryMax: 120000}, 100},
		{"partial overlap", &jobs.Posting{SalaryMin: 80000, SalaryMax: 105000}, 50},
		{"no salary data", &jobs.Posting{}, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := salaryScore(tc.posting, profile); got != tc.want {
				t.Fatalf("salaryScore = %.1f, want %.1f", got, tc.want)
			}
		})
	}
}

func TestLocationScore(t *testing.T) {
	profile := testProfile()

	if got := locationScore(&jobs.Posting{Location: "Berlin"}, profile); got != 100 {
		t.Fatalf("exact location = %.1f, want 100", got)
	}
	if got := locationScore(&jobs.Posting{Location: "Anywhere", Remote: true}, profile); got != 100 {
		t.Fatalf("remote preference = %.1f, want 100", got)
	}
	if got := locationScore(&jobs.Posting{Location: "Tokyo"}, profile); got != 30 {
		t.Fatalf("unrelated onsite location = %.1f, want 30", got)
	}
}

func TestRescoreDropsBelowThreshold(t *testing.T) {
	m := New(30, zap.NewNop())
	profile := testProfile()

	good := &jobs.Posting{
		Title:        "Senior Backend Go Engineer",
		Location:     "Berlin",
		Requirements: []string{"go", "postgresql"},
		SalaryMin:    100000,
		SalaryMax:    130000,
		Experience:   "5 years",
		CompanySize:  "startup",
		Industry:     "Fintech",
		Remote:       true,
	}
	poor := &jobs.Posting{
		Title:        "iOS Developer",
		Location:     "Tokyo",
		Requirements: []string{"swift", "objective-c", "xcode"},
		SalaryMin:    40000,
		SalaryMax:    50000,
		Experience:   "10 years",
		CompanySize:  "enterprise",
		Industry:     "Gaming",
	}

	kept := m.Rescore([]*jobs.Posting{poor, good}, profile)

	if len(kept) != 1 || kept[0] != good {
		t.Fatalf("kept %d postings, want only the good fit", len(kept))
	}
	if good.Match == nil {
		t.Fatal("surviving posting must carry its match breakdown")
	}
	if good.Match.Score < 70 {
		t.Fatalf("good fit scored %.1f, expected a high composite", good.Match.Score)
	}
	if len(good.Match.Reasons) == 0 || len(good.Match.Reasons) > maxReasons {
		t.Fatalf("reasons = %v", good.Match.Reasons)
	}
}

func TestRescoreNilProfile(t *testing.T) {
	m := New(0, zap.NewNop())
	postings := []*jobs.Posting{{Title: "Go Engineer"}}

	if got := m.Rescore(postings, nil); len(got) != 1 {
		t.Fatal("nil profile must pass postings through untouched")
	}
	if postings[0].Match != nil {
		t.Fatal("nil profile must not attach match info")
	}
}

func TestEvaluateImprovementHints(t *testing.T) {
	m := New(0, zap.NewNop())
	profile := &UserProfile{Skills: []string{"go"}, ExperienceYears: 1}

	posting := &jobs.Posting{
		Title:        "Senior DevOps Engineer",
		Requirements: []string{"kubernetes", "terraform", "aws", "go"},
		Experience:   "7 years",
	}

	info := m.Evaluate(posting, profile)

	if len(info.Improvements) == 0 || len(info.Improvements) > maxImprovements {
		t.Fatalf("improvements = %v", info.Improvements)
	}

	var skillGap bool
	for _, hint := range info.Improvements {
		if strings.HasPrefix(hint, "missing skills:") {
			skillGap = true
		}
	}
	if !skillGap {
		t.Fatalf("expected a missing-skills hint, got %v", info.Improvements)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")

	content := `skills:
  - go
  - postgresql
experience-years: 4
preferred-locations:
  - berlin
expected-salary-min: 80000
expected-salary-max: 110000
work-style: remote
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing profile: %s", err)
	}

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("loading profile: %s", err)
	}

	if len(profile.Skills) != 2 || profile.Skills[0] != "go" {
		t.Fatalf("skills = %v", profile.Skills)
	}
	if profile.ExperienceYears != 4 || profile.ExpectedSalaryMin != 80000 {
		t.Fatalf("profile = %+v", profile)
	}
	if profile.WorkStyle != "remote" {
		t.Fatalf("work style = %q", profile.WorkStyle)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile("/nonexistent/profile.yaml"); err == nil {
		t.Fatal("expected an error for a missing profile file")
	}
}
