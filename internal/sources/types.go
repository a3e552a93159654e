package sources

import (
	"bytes"
	"encoding/json"

	"github.com/jmcook/norway-alerts/internal/models"
)

// RawWarning is one as-fetched warning, tagged with its source. Exactly one
// payload pointer is set per instance, so downstream code can switch on
// Source instead of probing optional keys.
type RawWarning struct {
	Source    models.SourceType
	County    *CountyWarning
	Avalanche *AvalancheWarning
	Weather   *WeatherAlert
}

// flexString tolerates upstream fields that flip between JSON string and
// number across API versions (NVE does this for ids and danger levels).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return string(f) }

// Municipality is one administrative sub-area embedded in an NVE warning.
type Municipality struct {
	ID         flexString `json:"Id"`
	Name       string     `json:"Name"`
	CountyID   flexString `json:"CountyId"`
	CountyName string     `json:"CountyName"`
}

// NamedRef is the id/name pair NVE uses for its county lists. The id is
// frequently blank while the name is populated, which is why relevance
// scoring checks names first.
type NamedRef struct {
	ID   flexString `json:"Id"`
	Name string     `json:"Name"`
}

// CountyWarning is the NVE landslide/flood warning shape. Landslide and
// flood share one schema; only the endpoint differs.
type CountyWarning struct {
	ID                     flexString     `json:"Id"`
	MasterID               flexString     `json:"MasterId"`
	ActivityLevel          flexString     `json:"ActivityLevel"`
	DangerTypeName         string         `json:"DangerTypeName"`
	MainText               string         `json:"MainText"`
	WarningText            string         `json:"WarningText"`
	AdviceText             string         `json:"AdviceText"`
	ConsequenceText        string         `json:"ConsequenceText"`
	EmergencyWarning       string         `json:"EmergencyWarning"`
	ValidFrom              string         `json:"ValidFrom"`
	ValidTo                string         `json:"ValidTo"`
	PublishTime            string         `json:"PublishTime"`
	NextWarningTime        string         `json:"NextWarningTime"`
	DangerIncreaseDateTime string         `json:"DangerIncreaseDateTime"`
	DangerDecreaseDateTime string         `json:"DangerDecreaseDateTime"`
	Author                 string         `json:"Author"`
	MunicipalityList       []Municipality `json:"MunicipalityList"`
	CountyList             []NamedRef     `json:"CountyList"`
}

// AvalancheWarning is one detail record from the avalanche region endpoint.
type AvalancheWarning struct {
	RegionID                int              `json:"RegionId"`
	RegionName              string           `json:"RegionName"`
	DangerLevel             flexString       `json:"DangerLevel"`
	DangerLevelName         string           `json:"DangerLevelName"`
	MainText                string           `json:"MainText"`
	AvalancheDanger         string           `json:"AvalancheDanger"`
	EmergencyWarning        string           `json:"EmergencyWarning"`
	SnowSurface             string           `json:"SnowSurface"`
	CurrentWeaklayers       string           `json:"CurrentWeaklayers"`
	LatestAvalancheActivity string           `json:"LatestAvalancheActivity"`
	LatestObservations      string           `json:"LatestObservations"`
	Author                  string           `json:"Author"`
	ValidFrom               string           `json:"ValidFrom"`
	ValidTo                 string           `json:"ValidTo"`
	PublishTime             string           `json:"PublishTime"`
	ExposedHeight1          int              `json:"ExposedHeight1"`
	ExposedHeightFill       int              `json:"ExposedHeightFill"`
	UtmZone                 int              `json:"UtmZone"`
	UtmEast                 int              `json:"UtmEast"`
	UtmNorth                int              `json:"UtmNorth"`
	CountyList              []NamedRef       `json:"CountyList"`
	MunicipalityList        []Municipality   `json:"MunicipalityList"`
	AvalancheProblems       []map[string]any `json:"AvalancheProblems"`
	AvalancheAdvices        []map[string]any `json:"AvalancheAdvices"`
	MountainWeather         MountainWeather  `json:"MountainWeather"`
}

// MountainWeather carries the per-region weather block. Measurement entries
// are loosely shaped upstream, so they stay as maps and are flattened with
// WeatherValue.
type MountainWeather struct {
	MeasurementTypes []map[string]any `json:"MeasurementTypes"`
}

// WeatherAlert is one Met.no weather alert, already reduced from the raw
// GeoJSON feature by the metalerts adapter.
type WeatherAlert struct {
	ID               string
	Title            string // timestamps stripped
	Start            string
	End              string
	Event            string
	IconEvent        string // event name remapped for display grouping
	Area             string
	Description      string
	Instruction      string
	Consequences     string
	Severity         string
	Certainty        string
	AwarenessLevel   string // raw "N; color; Name" composite
	AwarenessNumeric string
	AwarenessColor   string
	AwarenessName    string
	AwarenessType    string
	EventAwareness   string
	Contact          string
	County           []string
	GeographicDomain string
	RiskMatrixColor  string
	TriggerLevel     any
	Ceiling          any
	Web              string
	Resources        []WeatherResource
	ResourceURL      string
	MapURL           string
}

// WeatherResource is one linked resource on a weather alert.
type WeatherResource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
}
