package verifier

import "github.com/agnivade/levenshtein"

// nearestName returns the candidate closest to name by edit distance,
// or "" when no candidate is within maxDist. Ties go to the first
// candidate in the (sorted) slice, keeping suggestions deterministic.
func nearestName(name string, candidates []string, maxDist int) string {
	if maxDist <= 0 {
		return ""
	}
	best := ""
	bestDist := maxDist + 1
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(name, c)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}
