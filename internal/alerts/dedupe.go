package alerts

import (
	"sort"

	"github.com/jmcook/norway-alerts/internal/models"
)

// Dedupe collapses alerts sharing an id into one. The county and flood
// services re-emit the same warning once per affected sub-area; presenting
// it once with the combined area list preserves full coverage without
// duplicate entries. The first-seen alert keeps its scalar fields and its
// affected-area set becomes the sorted union of all duplicates.
func Dedupe(in []models.Alert) []models.Alert {
	out := make([]models.Alert, 0, len(in))
	index := make(map[string]int, len(in))

	for _, a := range in {
		i, seen := index[a.ID]
		if !seen {
			index[a.ID] = len(out)
			out = append(out, a)
			continue
		}
		out[i].AffectedAreas = unionAreas(out[i].AffectedAreas, a.AffectedAreas)
	}
	return out
}

func unionAreas(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, area := range a {
		set[area] = true
	}
	for _, area := range b {
		set[area] = true
	}
	union := make([]string, 0, len(set))
	for area := range set {
		union = append(union, area)
	}
	sort.Strings(union)
	return union
}

// SortForDisplay orders alerts by severity descending, then start time
// descending, matching the display ordering consumers expect.
func SortForDisplay(in []models.Alert) {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].SeverityLevel != in[j].SeverityLevel {
			return in[i].SeverityLevel > in[j].SeverityLevel
		}
		return in[i].ValidFrom > in[j].ValidFrom
	})
}
