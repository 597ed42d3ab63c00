package matcher

import "strings"

// positionWeights assigns role-specific importance to skills. A skill absent
// from the role's table counts with full weight, so the tables only need the
// keywords whose importance actually differs per role.
var positionWeights = map[string]map[string]float64{
	"backend": {
		"go": 1.0, "golang": 1.0, "java": 1.0, "python": 0.9,
		"sql": 0.9, "postgresql": 0.9, "microservices": 0.8,
		"grpc": 0.8, "rest": 0.8, "kafka": 0.7, "redis": 0.7,
		"react": 0.3, "vue": 0.3, "angular": 0.3,
	},
	"frontend": {
		"javascript": 1.0, "typescript": 1.0, "react": 1.0,
		"vue": 0.9, "angular": 0.9, "rest": 0.7, "graphql": 0.7,
		"go": 0.3, "java": 0.3, "sql": 0.4,
	},
	"devops": {
		"kubernetes": 1.0, "docker": 1.0, "terraform": 1.0,
		"aws": 0.9, "gcp": 0.9, "azure": 0.9, "linux": 0.9,
		"ci/cd": 0.9, "go": 0.7, "python": 0.7,
		"react": 0.2, "vue": 0.2,
	},
	"data": {
		"python": 1.0, "sql": 1.0, "machine learning": 1.0,
		"data analysis": 1.0, "kafka": 0.7, "postgresql": 0.8,
		"react": 0.2, "vue": 0.2,
	},
}

var roleKeywords = []struct {
	role     string
	keywords []string
}{
	{"backend", []string{"backend", "back-end", "server", "api engineer"}},
	{"frontend", []string{"frontend", "front-end", "ui engineer", "web developer"}},
	{"devops", []string{"devops", "sre", "platform engineer", "infrastructure"}},
	{"data", []string{"data scientist", "data engineer", "machine learning", "analytics"}},
}

// roleFor derives the position category from a posting title.
func roleFor(title string) string {
	lowered := strings.ToLower(title)
	for _, entry := range roleKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				return entry.role
			}
		}
	}
	return ""
}

// skillWeight returns the role-specific weight of a skill; 1.0 by default.
func skillWeight(role, skill string) float64 {
	table, ok := positionWeights[role]
	if !ok {
		return 1.0
	}
	if weight, ok := table[strings.ToLower(skill)]; ok {
		return weight
	}
	return 1.0
}
