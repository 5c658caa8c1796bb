package domain

import "strings"

// Profile is the read-only user profile the early filter and the relevance
// scorer match jobs against. It is passed in explicitly everywhere; nothing
// reads it from process-wide state.
type Profile struct {
	MaxYearsExperience    int      `yaml:"max_years_experience"`
	RequiredSkills        []string `yaml:"required_skills"`
	PreferredSkills       []string `yaml:"preferred_skills"`
	PreferredLocations    []string `yaml:"preferred_locations"`
	RemoteOnly            bool     `yaml:"remote_only"`
	ExcludedTitleKeywords []string `yaml:"excluded_title_keywords"`
}

// NormalizeToken lowercases and trims a skill/keyword token for matching.
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeSet normalizes a token list and drops empties and duplicates,
// preserving first-seen order.
func NormalizeSet(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		n := NormalizeToken(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
