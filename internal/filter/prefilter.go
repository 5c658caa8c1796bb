package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"jobsift-engine/internal/domain"
)

// Years-of-experience phrasings seen in the wild. The first capturing group
// is always the number.
var yoePatterns = []*regexp.Regexp{
	// ranges first so "2-4 years" reads as its lower bound
	regexp.MustCompile(`(?i)(\d+)\s*-\s*\d+\s*(?:years?|yrs?)(?:\s+of)?\s+(?:experience|exp)`),
	regexp.MustCompile(`(?i)(\d+)\s*\+?\s*(?:years?|yrs?)(?:\s+of)?\s+(?:experience|exp)`),
	regexp.MustCompile(`(?i)(?:minimum|min\.?|at least)\s+(?:of\s+)?(\d+)\s*(?:years?|yrs?)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:years?|yrs?)\s+(?:minimum|min\.?|required)`),
}

var citizenshipPhrases = []string{
	"us citizenship required",
	"u.s. citizenship required",
	"must be a us citizen",
	"must be a u.s. citizen",
	"us citizens only",
	"u.s. citizens only",
	"citizenship is required",
	"security clearance required",
	"active security clearance",
	"requires us citizenship",
}

// FindYearsRequired scans text for an experience requirement and returns the
// first number found. Patterns are tried in order; the first match wins.
func FindYearsRequired(text string) (int, bool) {
	for _, pat := range yoePatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// PreFilterResult carries the rule that rejected the content, if any.
type PreFilterResult struct {
	Keep   bool
	Rule   string
	Detail string
}

// PreFilter screens extracted page text before it reaches the LLM. Rules run
// in a fixed order and the first hit wins: yoe_exceeded, then
// non_us_location, then citizenship_required.
func PreFilter(text string, profile domain.Profile, enabled bool) PreFilterResult {
	if !enabled {
		return PreFilterResult{Keep: true}
	}
	lower := strings.ToLower(text)

	if profile.MaxYearsExperience > 0 {
		if yoe, ok := FindYearsRequired(lower); ok && yoe > profile.MaxYearsExperience {
			return PreFilterResult{
				Keep:   false,
				Rule:   "yoe_exceeded",
				Detail: fmt.Sprintf("requires %d years, max is %d", yoe, profile.MaxYearsExperience),
			}
		}
	}

	if loc, bad := findNonUSLocation(lower); bad {
		return PreFilterResult{Keep: false, Rule: "non_us_location", Detail: loc}
	}

	for _, phrase := range citizenshipPhrases {
		if strings.Contains(lower, phrase) {
			return PreFilterResult{Keep: false, Rule: "citizenship_required", Detail: phrase}
		}
	}

	return PreFilterResult{Keep: true}
}

// findNonUSLocation looks for a "Location:" style line naming somewhere
// outside the US. Scanning the whole page would reject any posting that
// mentions a foreign office in passing, so only labeled lines count.
func findNonUSLocation(lower string) (string, bool) {
	for _, line := range strings.Split(lower, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, "location:")
		if !ok {
			rest, ok = strings.CutPrefix(line, "location :")
		}
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if IsNonUS(rest) {
			return rest, true
		}
	}
	return "", false
}
