package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/sources"
)

// CAP severity and awareness tiers keyed by severity level. Levels 4 and 5
// both map to Extreme; CAP has no tier above it.
var (
	capSeverity = map[int]string{
		1: "Minor",
		2: "Moderate",
		3: "Severe",
		4: "Extreme",
		5: "Extreme",
	}
	capAwareness = map[int]string{
		1: "Low",
		2: "Moderate",
		3: "Severe",
		4: "Extreme",
		5: "Extreme",
	}
	capEvents = map[models.SourceType]string{
		models.SourceLandslide: "Landslide",
		models.SourceFlood:     "Flood",
		models.SourceAvalanche: "Avalanche",
	}
)

// CAPAlert re-expresses an alert with the weather family's field names and
// tiers so one rendering template serves every warning family.
type CAPAlert struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"starttime"`
	EndTime   string `json:"endtime"`

	Event     string `json:"event"`
	EventType string `json:"event_type"`

	Area  string   `json:"area"`
	Areas []string `json:"areas"`

	Description  string `json:"description"`
	Instruction  string `json:"instruction"`
	Consequences string `json:"consequences"`

	Level                 int    `json:"level"`
	LevelName             string `json:"level_name"`
	AwarenessLevel        string `json:"awareness_level"`
	AwarenessLevelNumeric string `json:"awareness_level_numeric"`
	AwarenessLevelColor   string `json:"awareness_level_color"`
	AwarenessLevelName    string `json:"awareness_level_name"`
	Severity              string `json:"severity"`
	Certainty             string `json:"certainty"`

	URL         string                    `json:"url"`
	ResourceURL string                    `json:"resource_url"`
	Web         string                    `json:"web"`
	Resources   []sources.WeatherResource `json:"resources"`

	Contact  string   `json:"contact"`
	County   []string `json:"county"`
	MasterID string   `json:"master_id,omitempty"`

	RegionID   string `json:"region_id,omitempty"`
	RegionName string `json:"region_name,omitempty"`

	MapURL string `json:"map_url,omitempty"`
}

// Project converts an alert into CAP shape. Weather alerts already carry
// this shape natively and pass through from their extras; the two NVE
// families are re-mapped via the fixed tier tables.
func Project(a models.Alert, lang string) CAPAlert {
	if a.SourceType == models.SourceWeather {
		return projectWeather(a)
	}

	level := a.SeverityLevel
	color := models.SeverityName(level)
	event := capEvents[a.SourceType]
	if event == "" {
		event = string(a.SourceType)
	}

	cap := CAPAlert{
		ID:                    a.ID,
		Title:                 a.Title,
		StartTime:             a.ValidFrom,
		EndTime:               a.ValidTo,
		Event:                 event,
		EventType:             string(a.SourceType),
		Area:                  strings.Join(a.AffectedAreas, ", "),
		Areas:                 a.AffectedAreas,
		Description:           a.Description,
		Instruction:           a.Instruction,
		Consequences:          a.Consequences,
		Level:                 level,
		LevelName:             color,
		AwarenessLevel:        fmt.Sprintf("%d; %s; %s", level, color, capAwareness[level]),
		AwarenessLevelNumeric: strconv.Itoa(level),
		AwarenessLevelColor:   color,
		AwarenessLevelName:    capAwareness[level],
		Severity:              capSeverity[level],
		Certainty:             "Likely", // NVE warnings are official forecasts
		URL:                   a.DisplayURL,
		ResourceURL:           a.DisplayURL,
		Web:                   varsomBase,
		Contact:               "Norwegian Water Resources and Energy Directorate",
	}
	if a.DisplayURL != "" {
		cap.Resources = []sources.WeatherResource{{URI: a.DisplayURL, MimeType: "text/html"}}
	}
	if county := extraString(a, "county_name"); county != "" {
		cap.County = []string{county}
	}
	cap.MasterID = extraString(a, "master_id")

	if a.SourceType == models.SourceAvalanche {
		cap.RegionID = a.RegionRef
		cap.RegionName = extraString(a, "region_name")
	}
	return cap
}

func projectWeather(a models.Alert) CAPAlert {
	cap := CAPAlert{
		ID:                    a.ID,
		Title:                 a.Title,
		StartTime:             a.ValidFrom,
		EndTime:               a.ValidTo,
		Event:                 extraString(a, "event"),
		EventType:             extraString(a, "icon_event"),
		Area:                  strings.Join(a.AffectedAreas, ", "),
		Areas:                 a.AffectedAreas,
		Description:           a.Description,
		Instruction:           a.Instruction,
		Consequences:          a.Consequences,
		Level:                 a.SeverityLevel,
		LevelName:             models.SeverityName(a.SeverityLevel),
		AwarenessLevel:        extraString(a, "awareness_level"),
		AwarenessLevelNumeric: extraString(a, "awareness_level_numeric"),
		AwarenessLevelColor:   extraString(a, "awareness_level_color"),
		AwarenessLevelName:    extraString(a, "awareness_level_name"),
		Severity:              extraString(a, "severity"),
		Certainty:             extraString(a, "certainty"),
		URL:                   a.DisplayURL,
		ResourceURL:           a.DisplayURL,
		Web:                   extraString(a, "web"),
		Contact:               extraString(a, "contact"),
		MapURL:                extraString(a, "map_url"),
	}
	if resources, ok := a.Extra["resources"].([]sources.WeatherResource); ok {
		cap.Resources = resources
	}
	if county, ok := a.Extra["county"].([]string); ok {
		cap.County = county
	}
	return cap
}

func extraString(a models.Alert, key string) string {
	if a.Extra == nil {
		return ""
	}
	if s, ok := a.Extra[key].(string); ok {
		return s
	}
	return ""
}
