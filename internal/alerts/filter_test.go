package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmcook/norway-alerts/internal/models"
)

func TestFilterMunicipalities(t *testing.T) {
	in := []models.Alert{
		{ID: "1", AffectedAreas: []string{"Bergen"}},
		{ID: "2", AffectedAreas: []string{"Voss"}},
		{ID: "3", AffectedAreas: []string{"Kvam", "Bergen"}},
	}

	// Substring match: "berg" takes Bergen but not Voss.
	out := FilterMunicipalities(in, "berg")
	assert.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "3", out[1].ID)
}

func TestFilterMunicipalitiesMultipleTerms(t *testing.T) {
	in := []models.Alert{
		{ID: "1", AffectedAreas: []string{"Bergen"}},
		{ID: "2", AffectedAreas: []string{"Voss"}},
		{ID: "3", AffectedAreas: []string{"Kvam"}},
	}

	out := FilterMunicipalities(in, " voss , KVAM ")
	assert.Len(t, out, 2)
	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, "3", out[1].ID)
}

func TestFilterMunicipalitiesEmptyFilter(t *testing.T) {
	in := []models.Alert{{ID: "1"}, {ID: "2"}}

	assert.Equal(t, in, FilterMunicipalities(in, ""))
	assert.Equal(t, in, FilterMunicipalities(in, " , "))
}

func TestFilterMunicipalitiesNoAreas(t *testing.T) {
	in := []models.Alert{{ID: "1"}}
	assert.Empty(t, FilterMunicipalities(in, "bergen"))
}
