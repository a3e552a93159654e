package sources

import (
	"context"

	"github.com/jmcook/norway-alerts/internal/models"
)

// SimulatedFetcher yields one synthetic orange warning for its family
// without touching the network. It stands in for the real fetchers when
// simulation mode is on, so notification and display paths can be verified
// end to end.
type SimulatedFetcher struct {
	source models.SourceType
}

func NewSimulatedFetcher(source models.SourceType) *SimulatedFetcher {
	return &SimulatedFetcher{source: source}
}

func (f *SimulatedFetcher) Source() models.SourceType {
	return f.source
}

func (f *SimulatedFetcher) Fetch(ctx context.Context) ([]RawWarning, error) {
	switch f.source {
	case models.SourceAvalanche:
		return []RawWarning{{Source: f.source, Avalanche: simulatedAvalanche()}}, nil
	case models.SourceWeather:
		return []RawWarning{{Source: f.source, Weather: simulatedWeather()}}, nil
	default:
		return []RawWarning{{Source: f.source, County: simulatedCounty(f.source)}}, nil
	}
}

func simulatedCounty(source models.SourceType) *CountyWarning {
	dangerType := "Jordskred"
	title := "Test Alert - Orange Landslide Warning for Testville"
	if source == models.SourceFlood {
		dangerType = "Flom"
		title = "Test Alert - Orange Flood Warning for Testville"
	}
	return &CountyWarning{
		ID:              "999999",
		ActivityLevel:   "3",
		DangerTypeName:  dangerType,
		MainText:        title,
		WarningText:     "Moderate danger in Testville municipality.",
		AdviceText:      "Avoid exposed areas and monitor further updates.",
		ConsequenceText: "Damage to infrastructure possible. Minor roads may close.",
		ValidFrom:       "2025-12-19T00:00:00",
		ValidTo:         "2025-12-20T23:59:59",
		PublishTime:     "2025-12-19T08:00:00",
		Author:          "Test System",
		MunicipalityList: []Municipality{
			{ID: "9999", Name: "Testville", CountyID: "46", CountyName: "Vestland"},
		},
	}
}

func simulatedAvalanche() *AvalancheWarning {
	return &AvalancheWarning{
		RegionID:        999999,
		RegionName:      "Testville",
		DangerLevel:     "3",
		DangerLevelName: "Considerable",
		MainText:        "Test Alert - Orange Avalanche Warning for Testville",
		AvalancheDanger: "Weather conditions may trigger avalanches in steep terrain.",
		ValidFrom:       "2025-12-19T00:00:00",
		ValidTo:         "2025-12-20T23:59:59",
		Author:          "Test System",
		MunicipalityList: []Municipality{
			{ID: "9999", Name: "Testville", CountyID: "46", CountyName: "Vestland"},
		},
	}
}

func simulatedWeather() *WeatherAlert {
	return &WeatherAlert{
		ID:               "test-weather-999999",
		Title:            "Orange wind warning",
		Start:            "2025-12-19T00:00:00+01:00",
		End:              "2025-12-20T23:59:59+01:00",
		Event:            "Wind",
		IconEvent:        "wind",
		Area:             "Vestland, Bergen",
		Description:      "Strong winds expected with gusts up to 25 m/s.",
		Instruction:      "Secure loose objects. Avoid unnecessary travel.",
		Consequences:     "Damage to infrastructure possible. Travel disruptions expected.",
		Severity:         "Moderate",
		Certainty:        "Likely",
		AwarenessLevel:   "3; orange; Moderate",
		AwarenessNumeric: "3",
		AwarenessColor:   "orange",
		AwarenessName:    "Moderate",
		Contact:          "Norwegian Meteorological Institute",
		County:           []string{"Vestland"},
		Web:              "https://www.met.no",
		ResourceURL:      "https://www.met.no/vaer-og-klima/ekstremvaervarsler-og-andre-faremeldinger",
	}
}
