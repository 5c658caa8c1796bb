package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg plus everything a
// careful operator would want to know before a run burns API credit.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Search.Sites = trimList(out.Search.Sites)
	out.Search.Keywords = trimList(out.Search.Keywords)
	out.Extract.JSHeavySites = trimList(out.Extract.JSHeavySites)
	out.Profile.RequiredSkills = trimList(out.Profile.RequiredSkills)
	out.Profile.PreferredSkills = trimList(out.Profile.PreferredSkills)
	out.Profile.PreferredLocations = trimList(out.Profile.PreferredLocations)
	out.Profile.ExcludedTitleKeywords = trimList(out.Profile.ExcludedTitleKeywords)
	out.Alerts.SearchSubjectAny = trimList(out.Alerts.SearchSubjectAny)

	// ---- Validation rules ----

	if strings.TrimSpace(out.Search.CSEID) == "" {
		res.addErr("search.cse_id is required")
	}

	switch out.Search.Mode {
	case "standard", "per_site", "comprehensive":
	default:
		res.addErr("search.mode must be standard, per_site, or comprehensive (got %q)", out.Search.Mode)
	}

	switch out.Search.DateRestrict {
	case "d1", "d3", "w1", "w2", "m1":
	default:
		res.addErr("search.date_restrict must be one of d1, d3, w1, w2, m1 (got %q)", out.Search.DateRestrict)
	}

	if out.Search.NumResults > 100 {
		res.addWarn("search.num_results is %d; the API caps a single query at 100.", out.Search.NumResults)
	}

	if out.Profile.MaxYearsExperience < 0 {
		res.addErr("profile.max_years_experience must be >= 0")
	}
	if len(out.Profile.RequiredSkills) == 0 {
		res.addWarn("profile.required_skills is empty; skill scoring will contribute nothing.")
	}
	if out.Profile.RemoteOnly && len(out.Profile.PreferredLocations) > 0 {
		res.addWarn("profile.remote_only is set; preferred_locations will only add bonus points.")
	}

	if out.Extract.Workers > 16 {
		res.addWarn("extract.workers is %d; target sites may throttle aggressive crawling.", out.Extract.Workers)
	}

	if out.Alerts.Enabled {
		if strings.TrimSpace(out.Alerts.IMAPHost) == "" {
			res.addErr("alerts.imap_host is required when alerts.enabled=true")
		}
		if out.Alerts.IMAPPort == 0 {
			res.addErr("alerts.imap_port is required when alerts.enabled=true")
		}
		if strings.TrimSpace(out.Alerts.Username) == "" {
			res.addErr("alerts.username is required when alerts.enabled=true")
		}
		if strings.TrimSpace(out.Alerts.Mailbox) == "" {
			res.addErr("alerts.mailbox is required when alerts.enabled=true")
		}
		if len(out.Alerts.SearchSubjectAny) == 0 {
			res.addWarn("alerts.search_subject_any is empty; alert scraping may find nothing.")
		}
	}

	return out, res
}
