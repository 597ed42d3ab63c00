package matcher

import (
	"fmt"

	"github.com/spf13/viper"
)

// UserProfile is supplied by the caller and consumed read-only; the matcher
// never mutates or persists it.
type UserProfile struct {
	Skills             []string `json:"skills" mapstructure:"skills"`
	ExperienceYears    float64  `json:"experience_years" mapstructure:"experience-years"`
	Education          string   `json:"education" mapstructure:"education"`
	PreferredLocations []string `json:"preferred_locations" mapstructure:"preferred-locations"`
	ExpectedSalaryMin  int      `json:"expected_salary_min" mapstructure:"expected-salary-min"`
	ExpectedSalaryMax  int      `json:"expected_salary_max" mapstructure:"expected-salary-max"`
	CompanySize        string   `json:"company_size" mapstructure:"company-size"`
	Industries         []string `json:"industries" mapstructure:"industries"`
	CareerGoals        []string `json:"career_goals" mapstructure:"career-goals"`
	WorkStyle          string   `json:"work_style" mapstructure:"work-style"`

	// Historical behaviour signals.
	SearchHistory []string `json:"search_history,omitempty" mapstructure:"search-history"`
	ClickedTitles []string `json:"clicked_titles,omitempty" mapstructure:"clicked-titles"`
	AppliedTitles []string `json:"applied_titles,omitempty" mapstructure:"applied-titles"`
}

// LoadProfile reads a profile file (YAML or JSON, decided by extension).
func LoadProfile(path string) (*UserProfile, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading profile file: %w", err)
	}

	var profile UserProfile
	if err := v.Unmarshal(&profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}

	return &profile, nil
}
