package source

import (
	"regexp"
	"strconv"
	"strings"
)

// Static vocabularies used to derive structured fields from free text.
// They are package-level tables so new keywords can be added without touching
// any orchestration logic.
var (
	skillVocabulary = []string{
		"go", "golang", "python", "java", "javascript", "typescript", "rust",
		"c++", "kotlin", "swift", "ruby", "php", "scala", "sql", "nosql",
		"postgresql", "mysql", "mongodb", "redis", "kafka", "rabbitmq",
		"docker", "kubernetes", "terraform", "aws", "gcp", "azure",
		"linux", "git", "ci/cd", "grpc", "rest", "graphql", "react", "vue",
		"angular", "node.js", "django", "spring", "microservices",
		"machine learning", "data analysis", "devops", "agile", "scrum",
	}

	benefitVocabulary = []string{
		"health insurance", "dental", "vision", "401k", "pension",
		"equity", "stock options", "bonus", "flexible hours",
		"remote work", "work from home", "paid time off", "pto",
		"parental leave", "relocation", "education budget",
		"conference budget", "gym", "wellness", "four-day week",
	}

	remoteKeywords = []string{
		"remote", "work from home", "wfh", "anywhere", "distributed",
		"telecommute", "home office",
	}
)

// ExtractRequirements scans free text for known skills. Matching is
// case-insensitive substring lookup; each skill appears at most once.
func ExtractRequirements(text string) []string {
	return matchVocabulary(text, skillVocabulary)
}

// ExtractBenefits scans free text for known benefits.
func ExtractBenefits(text string) []string {
	return matchVocabulary(text, benefitVocabulary)
}

// DetectRemote reports whether title, location or description mention a
// remote arrangement.
func DetectRemote(title, location, description string) bool {
	haystack := strings.ToLower(title + " " + location + " " + description)
	for _, keyword := range remoteKeywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

func matchVocabulary(text string, vocabulary []string) []string {
	haystack := strings.ToLower(text)
	var found []string
	for _, word := range vocabulary {
		if strings.Contains(haystack, word) {
			found = append(found, word)
		}
	}
	return found
}

var salaryNumber = regexp.MustCompile(`\d[\d,.]*\d|\d`)

// ParseSalary extracts a numeric range from a raw salary string, e.g.
// "$90,000 - $120,000 / year" -> (90000, 120000). Values expressed with a "k"
// suffix are scaled. Returns zeros when nothing parseable is found.
func ParseSalary(raw string) (min, max int) {
	lowered := strings.ToLower(raw)
	matches := salaryNumber.FindAllString(lowered, 2)
	if len(matches) == 0 {
		return 0, 0
	}

	scale := 1
	if strings.Contains(lowered, "k") {
		scale = 1000
	}

	values := make([]int, 0, len(matches))
	for _, m := range matches {
		m = strings.ReplaceAll(m, ",", "")
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		// Bare small numbers like "90" or "90.5" in "90.5k" still mean
		// thousands.
		if v < 1000 {
			v *= float64(scale)
		}
		values = append(values, int(v))
	}

	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], values[0]
	default:
		if values[0] > values[1] {
			values[0], values[1] = values[1], values[0]
		}
		return values[0], values[1]
	}
}
