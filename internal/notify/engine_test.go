package notify

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jmcook/norway-alerts/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func alert(id string, level int, areas ...string) models.Alert {
	return models.Alert{
		ID:            id,
		SourceType:    models.SourceFlood,
		SeverityLevel: level,
		Title:         "Flood warning for " + id,
		AffectedAreas: areas,
	}
}

func TestDiffLifecycle(t *testing.T) {
	models.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)))
	defer models.SetClock(nil)

	e := NewEngine(FloorYellowPlus, "46")

	// First appearance at yellow: new.
	out := e.Diff([]models.Alert{alert("X", 2, "Bergen")})
	require.Len(t, out, 1)
	assert.Equal(t, KindNew, out[0].Kind)
	assert.Equal(t, "X", out[0].AlertID)
	assert.Equal(t, 2, out[0].Level)
	assert.Equal(t, "Bergen", out[0].Area)
	assert.Equal(t, "norway_alerts_46_flood_X", out[0].DedupeID)
	assert.Equal(t, time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC), out[0].At)

	// Same level again: silent.
	out = e.Diff([]models.Alert{alert("X", 2, "Bergen")})
	assert.Empty(t, out)

	// Escalation to orange.
	out = e.Diff([]models.Alert{alert("X", 3, "Bergen")})
	require.Len(t, out, 1)
	assert.Equal(t, KindEscalated, out[0].Kind)
	assert.Equal(t, 3, out[0].Level)

	// De-escalation stays silent.
	out = e.Diff([]models.Alert{alert("X", 2, "Bergen")})
	assert.Empty(t, out)

	// Disappearance: resolved.
	out = e.Diff(nil)
	require.Len(t, out, 1)
	assert.Equal(t, KindResolved, out[0].Kind)
	assert.Equal(t, "X", out[0].AlertID)
	assert.Equal(t, "norway_alerts_resolved_46_flood_Bergen", out[0].DedupeID)
	assert.Equal(t, 0, e.PreviousSize())

	// Reappearance counts as new again.
	out = e.Diff([]models.Alert{alert("X", 2, "Bergen")})
	require.Len(t, out, 1)
	assert.Equal(t, KindNew, out[0].Kind)
}

func TestDiffFloorGatesEmissionNotTracking(t *testing.T) {
	e := NewEngine(FloorOrangePlus, "46")

	// Yellow is below the floor: tracked but silent.
	out := e.Diff([]models.Alert{alert("Y", 2, "Voss")})
	assert.Empty(t, out)
	assert.Equal(t, 1, e.PreviousSize())

	// Climbing past the floor emits an escalation, not a "new".
	out = e.Diff([]models.Alert{alert("Y", 3, "Voss")})
	require.Len(t, out, 1)
	assert.Equal(t, KindEscalated, out[0].Kind)

	// Resolution is not floor-gated.
	out = e.Diff(nil)
	require.Len(t, out, 1)
	assert.Equal(t, KindResolved, out[0].Kind)
}

func TestDiffIndependentAlerts(t *testing.T) {
	e := NewEngine(FloorYellowPlus, "46")

	out := e.Diff([]models.Alert{alert("A", 2, "Bergen"), alert("B", 4, "Voss")})
	assert.Len(t, out, 2)

	// Dropping one resolves only that one.
	out = e.Diff([]models.Alert{alert("A", 2, "Bergen")})
	require.Len(t, out, 1)
	assert.Equal(t, KindResolved, out[0].Kind)
	assert.Equal(t, "B", out[0].AlertID)
}

func TestNotificationFormatting(t *testing.T) {
	e := NewEngine(FloorAll, "46")

	out := e.Diff([]models.Alert{{
		ID:            "584700",
		SourceType:    models.SourceLandslide,
		SeverityLevel: 3,
		Title:         "Orange level landslide warning",
		AffectedAreas: []string{"Bergen", "Voss"},
	}})
	require.Len(t, out, 1)

	n := out[0]
	assert.Equal(t, "\U0001F7E0 New Landslide Warning", n.Title)
	assert.Equal(t, "Bergen, Voss - Orange danger level\n\nOrange level landslide warning", n.Message)
	assert.NotEmpty(t, n.ID)
}

func TestNotificationHeadlineTruncation(t *testing.T) {
	e := NewEngine(FloorAll, "46")

	// 101 runes with a multi-byte tail straddling the cut point.
	long := strings.Repeat("x", 96) + "ååååå"
	out := e.Diff([]models.Alert{{
		ID:            "L1",
		SourceType:    models.SourceLandslide,
		SeverityLevel: 2,
		Title:         long,
		AffectedAreas: []string{"Bergen"},
	}})
	require.Len(t, out, 1)

	msg := out[0].Message
	assert.True(t, utf8.ValidString(msg), "message must stay valid UTF-8")
	parts := strings.SplitN(msg, "\n\n", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, 100, utf8.RuneCountInString(parts[1]))
	assert.True(t, strings.HasSuffix(parts[1], "å..."))

	// Exactly 100 runes stays untouched even though it is over 100 bytes.
	exact := strings.Repeat("ø", 100)
	out = e.Diff([]models.Alert{{
		ID:            "L2",
		SourceType:    models.SourceLandslide,
		SeverityLevel: 2,
		Title:         exact,
		AffectedAreas: []string{"Voss"},
	}})
	require.Len(t, out, 1)
	assert.True(t, strings.HasSuffix(out[0].Message, exact))
}

func TestDisplayAreaPrefersRegionName(t *testing.T) {
	a := models.Alert{
		AffectedAreas: []string{"Bergen"},
		Extra:         map[string]any{"region_name": "Voss"},
	}
	assert.Equal(t, "Voss", displayArea(a))

	assert.Equal(t, "Unknown area", displayArea(models.Alert{}))
}

func TestParseFloor(t *testing.T) {
	for _, valid := range []string{"all", "yellow-plus", "orange-plus", "red-only"} {
		f, err := ParseFloor(valid)
		require.NoError(t, err)
		assert.Equal(t, SeverityFloor(valid), f)
	}

	_, err := ParseFloor("loud")
	assert.Error(t, err)
}

func TestFloorThreshold(t *testing.T) {
	assert.Equal(t, models.SeverityGreen, FloorAll.Threshold())
	assert.Equal(t, models.SeverityYellow, FloorYellowPlus.Threshold())
	assert.Equal(t, models.SeverityOrange, FloorOrangePlus.Threshold())
	assert.Equal(t, models.SeverityRed, FloorRedOnly.Threshold())
}
