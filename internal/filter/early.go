package filter

import (
	"strings"

	"jobsift-engine/internal/domain"
)

// EarlyDecision explains why a candidate was dropped before any network or
// LLM spend, or accepted for extraction.
type EarlyDecision struct {
	Keep   bool
	Reason string
}

// EarlyFilter screens candidates on title and snippet text alone. It is the
// cheapest gate in the pipeline; anything it drops costs nothing downstream.
func EarlyFilter(cand domain.Candidate, profile domain.Profile) EarlyDecision {
	title := strings.ToLower(cand.Title)

	for _, kw := range profile.ExcludedTitleKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(title, kw) {
			return EarlyDecision{Keep: false, Reason: "excluded_title_keyword:" + kw}
		}
	}

	text := title + " " + strings.ToLower(cand.Snippet)
	if yoe, ok := FindYearsRequired(text); ok && profile.MaxYearsExperience > 0 && yoe > profile.MaxYearsExperience {
		return EarlyDecision{Keep: false, Reason: "yoe_exceeded"}
	}

	if IsNonUS(text) {
		return EarlyDecision{Keep: false, Reason: "non_target_geography"}
	}

	return EarlyDecision{Keep: true}
}
