package alerts

import (
	"strings"

	"github.com/jmcook/norway-alerts/internal/models"
)

// FilterMunicipalities narrows alerts to those touching the comma-separated
// area terms. Matching is case-insensitive substring containment, so "berg"
// matches "Bergen". An empty filter passes everything through.
func FilterMunicipalities(in []models.Alert, filter string) []models.Alert {
	terms := splitFilterTerms(filter)
	if len(terms) == 0 {
		return in
	}

	out := make([]models.Alert, 0, len(in))
	for _, a := range in {
		if matchesAny(a.AffectedAreas, terms) {
			out = append(out, a)
		}
	}
	return out
}

func splitFilterTerms(filter string) []string {
	var terms []string
	for _, t := range strings.Split(filter, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func matchesAny(areas, terms []string) bool {
	for _, area := range areas {
		lower := strings.ToLower(area)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	return false
}
