package models

import "strconv"

type SourceType string

const (
	SourceLandslide SourceType = "landslide"
	SourceFlood     SourceType = "flood"
	SourceAvalanche SourceType = "avalanche"
	SourceWeather   SourceType = "weather"
)

// Severity levels. 0 and 1 are treated as inactive everywhere.
const (
	SeverityUnknown  = 0
	SeverityGreen    = 1
	SeverityYellow   = 2
	SeverityOrange   = 3
	SeverityRed      = 4
	SeverityExtreme  = 5
	SeverityMaxLevel = 5
)

var severityNames = map[int]string{
	SeverityUnknown: "unknown",
	SeverityGreen:   "green",
	SeverityYellow:  "yellow",
	SeverityOrange:  "orange",
	SeverityRed:     "red",
	SeverityExtreme: "extreme",
}

// Alert is the canonical, source-agnostic representation of one active
// hazard or weather warning. Alerts are immutable once built; every refresh
// produces a fresh snapshot.
type Alert struct {
	ID            string // stable upstream identifier, merge/dedup key
	SourceType    SourceType
	SeverityLevel int

	// ISO-8601 timestamps as delivered upstream; may be empty. The upstream
	// feeds disagree on timezone formatting, so the raw strings are kept.
	ValidFrom string
	ValidTo   string

	Title        string
	Description  string
	Instruction  string
	Consequences string

	AffectedAreas []string
	RegionRef     string // avalanche region id, empty for other sources
	DisplayURL    string

	// Extra holds source-specific fields not promoted to canonical fields.
	Extra map[string]any
}

// Active reports whether the alert carries a real danger level. Green and
// unknown levels count as inactive.
func (a *Alert) Active() bool {
	return a.SeverityLevel >= SeverityYellow
}

// SeverityName returns the color name for a severity level.
func SeverityName(level int) string {
	if name, ok := severityNames[level]; ok {
		return name
	}
	return "unknown"
}

// ParseSeverity converts an upstream severity string to a level in [0,5].
// Non-numeric input maps to SeverityUnknown.
func ParseSeverity(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return SeverityUnknown
	}
	if n < 0 {
		return SeverityUnknown
	}
	if n > SeverityMaxLevel {
		return SeverityMaxLevel
	}
	return n
}

// HighestLevel returns the maximum severity among active alerts, or
// SeverityGreen when none are active.
func HighestLevel(alerts []Alert) int {
	max := SeverityGreen
	for _, a := range alerts {
		if a.Active() && a.SeverityLevel > max {
			max = a.SeverityLevel
		}
	}
	return max
}
