package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmcook/norway-alerts/internal/models"
)

func TestDedupeKeepsFirstSeenScalars(t *testing.T) {
	in := []models.Alert{
		{ID: "584700", SeverityLevel: 3, Title: "first", AffectedAreas: []string{"Voss"}},
		{ID: "584700", SeverityLevel: 2, Title: "second", AffectedAreas: []string{"Bergen", "Voss"}},
		{ID: "584701", SeverityLevel: 2, Title: "other"},
	}

	out := Dedupe(in)

	assert.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, 3, out[0].SeverityLevel)
	assert.Equal(t, []string{"Bergen", "Voss"}, out[0].AffectedAreas)
	assert.Equal(t, "584701", out[1].ID)
}

func TestDedupeEmpty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}

func TestSortForDisplay(t *testing.T) {
	in := []models.Alert{
		{ID: "a", SeverityLevel: 2, ValidFrom: "2026-01-10T07:00:00"},
		{ID: "b", SeverityLevel: 4, ValidFrom: "2026-01-09T07:00:00"},
		{ID: "c", SeverityLevel: 2, ValidFrom: "2026-01-11T07:00:00"},
	}

	SortForDisplay(in)

	// Severity first, then newer start times within a level.
	assert.Equal(t, "b", in[0].ID)
	assert.Equal(t, "c", in[1].ID)
	assert.Equal(t, "a", in[2].ID)
}
