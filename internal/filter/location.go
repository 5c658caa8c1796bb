package filter

import "strings"

// Geography heuristics shared by the pre-filter and the scorer. Matching is
// substring-based over the lowercased location text, same trade-off as a
// keyword search: cheap, transparent, occasionally wrong on exotic inputs.

var usIndicators = []string{
	"united states", "usa", "u.s.", "us-", "remote - us", "us remote",
	"alabama", "alaska", "arizona", "arkansas", "california", "colorado",
	"connecticut", "delaware", "florida", "georgia", "hawaii", "idaho",
	"illinois", "indiana", "iowa", "kansas", "kentucky", "louisiana",
	"maine", "maryland", "massachusetts", "michigan", "minnesota",
	"mississippi", "missouri", "montana", "nebraska", "nevada",
	"new hampshire", "new jersey", "new mexico", "new york",
	"north carolina", "north dakota", "ohio", "oklahoma", "oregon",
	"pennsylvania", "rhode island", "south carolina", "south dakota",
	"tennessee", "texas", "utah", "vermont", "virginia", "washington",
	"west virginia", "wisconsin", "wyoming",
	"nyc", "san francisco", "seattle", "austin", "boston", "chicago",
	"denver", "atlanta", "los angeles",
}

var nonUSIndicators = []string{
	"canada", "toronto", "vancouver", "montreal", "ottawa",
	"united kingdom", "london, uk", "england", "scotland",
	"germany", "berlin", "munich", "france", "paris, france",
	"netherlands", "amsterdam", "spain", "madrid", "barcelona",
	"india", "bangalore", "bengaluru", "hyderabad", "mumbai", "pune",
	"singapore", "australia", "sydney", "melbourne",
	"ireland", "dublin", "poland", "warsaw", "krakow",
	"brazil", "mexico city", "japan", "tokyo", "china", "shanghai",
	"israel", "tel aviv", "switzerland", "zurich", "sweden", "stockholm",
	"emea", "apac",
}

// IsRemote reports whether the location text looks like a remote role.
func IsRemote(location string) bool {
	loc := strings.ToLower(location)
	return strings.Contains(loc, "remote") || strings.Contains(loc, "work from home") ||
		strings.Contains(loc, "anywhere")
}

// IsNonUS reports whether the location names somewhere clearly outside the
// US without also naming a US location. Empty or ambiguous text passes.
func IsNonUS(location string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return false
	}
	foreign := false
	for _, ind := range nonUSIndicators {
		if strings.Contains(loc, ind) {
			foreign = true
			break
		}
	}
	if !foreign {
		return false
	}
	for _, ind := range usIndicators {
		if strings.Contains(loc, ind) {
			return false
		}
	}
	return !IsRemote(location)
}

// MatchesPreferred reports whether the location text contains any of the
// preferred locations (case-insensitive).
func MatchesPreferred(location string, preferred []string) bool {
	loc := strings.ToLower(location)
	for _, p := range preferred {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(loc, p) {
			return true
		}
	}
	return false
}
