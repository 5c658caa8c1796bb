package rank

import (
	"strings"

	"jobsift-engine/internal/domain"
	"jobsift-engine/internal/filter"
)

// Point weights. The sum is clamped to [0, 100].
const (
	yoeFitPoints       = 30
	yoeExceedPenalty   = -50
	requiredSkillEach  = 5
	requiredSkillCap   = 25
	preferredSkillEach = 3
	preferredSkillCap  = 15
	locationPoints     = 15
	remoteFitPoints    = 10
	remoteBonusPoints  = 5
	excludedTitleHit   = -40
)

// Breakdown itemizes a score so rejections are explainable.
type Breakdown struct {
	YoE           int
	RequiredHits  int
	Required      int
	PreferredHits int
	Preferred     int
	Location      int
	Remote        int
	Title         int
	Total         int
}

// Score rates a structured job against the profile. Deterministic: same job
// and profile always produce the same number.
func Score(job domain.StructuredJob, profile domain.Profile) Breakdown {
	var b Breakdown

	// 0 means the posting did not state a requirement and counts as a fit,
	// so skills-only postings are not handicapped against the min score.
	if profile.MaxYearsExperience > 0 {
		if job.YearsExperience <= profile.MaxYearsExperience {
			b.YoE = yoeFitPoints
		} else {
			b.YoE = yoeExceedPenalty
		}
	}

	jobSkills := append(append([]string{}, job.RequiredSkills...), job.PreferredSkills...)
	b.RequiredHits = countSkillHits(profile.RequiredSkills, jobSkills)
	b.Required = min(b.RequiredHits*requiredSkillEach, requiredSkillCap)
	b.PreferredHits = countSkillHits(profile.PreferredSkills, jobSkills)
	b.Preferred = min(b.PreferredHits*preferredSkillEach, preferredSkillCap)

	if filter.MatchesPreferred(job.Location, profile.PreferredLocations) {
		b.Location = locationPoints
	}

	if job.Remote || filter.IsRemote(job.Location) {
		if profile.RemoteOnly {
			b.Remote = remoteFitPoints
		} else {
			b.Remote = remoteBonusPoints
		}
	}

	title := strings.ToLower(job.Title)
	for _, kw := range profile.ExcludedTitleKeywords {
		kw = domain.NormalizeToken(kw)
		if kw != "" && strings.Contains(title, kw) {
			b.Title = excludedTitleHit
			break
		}
	}

	total := b.YoE + b.Required + b.Preferred + b.Location + b.Remote + b.Title
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	b.Total = total
	return b
}

// countSkillHits matches profile skills against job skills with partial
// matching in both directions, so "aws" hits "aws lambda" and vice versa.
func countSkillHits(wanted, have []string) int {
	hits := 0
	for _, w := range wanted {
		w = domain.NormalizeToken(w)
		if w == "" {
			continue
		}
		for _, h := range have {
			if strings.Contains(h, w) || strings.Contains(w, h) {
				hits++
				break
			}
		}
	}
	return hits
}

// Decision is the accept/reject outcome for one scored job.
type Decision struct {
	Accept bool
	Reason string
	Score  Breakdown
}

// Evaluate scores the job and applies the acceptance gates: target
// geography, the remote-only constraint, then minimum score.
func Evaluate(job domain.StructuredJob, profile domain.Profile, minScore int) Decision {
	b := Score(job, profile)

	// a non-US location is rejected regardless of score; remote passes
	if !job.Remote && filter.IsNonUS(job.Location) {
		return Decision{Accept: false, Reason: "non_target_geography", Score: b}
	}
	if profile.RemoteOnly && !job.Remote && !filter.IsRemote(job.Location) {
		return Decision{Accept: false, Reason: "not_remote", Score: b}
	}
	if b.Total < minScore {
		return Decision{Accept: false, Reason: "below_min_score", Score: b}
	}
	return Decision{Accept: true, Score: b}
}
