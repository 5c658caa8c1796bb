package search

import (
	"fmt"
	"strings"
)

// BuildQuery assembles a Boolean query of the form
// ("kw one" OR kw2) (site:a.com OR site:b.com). Keywords with spaces are
// quoted so the API treats them as phrases.
func BuildQuery(keywords, sites []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(kw, " ") {
			kw = fmt.Sprintf("%q", kw)
		}
		parts = append(parts, kw)
	}
	query := "(" + strings.Join(parts, " OR ") + ")"

	if len(sites) > 0 {
		siteParts := make([]string, 0, len(sites))
		for _, s := range sites {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			siteParts = append(siteParts, "site:"+s)
		}
		if len(siteParts) > 0 {
			query += " (" + strings.Join(siteParts, " OR ") + ")"
		}
	}
	return query
}
