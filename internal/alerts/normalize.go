// Package alerts converts raw source warnings into the canonical Alert
// model and implements the collection operations applied per refresh:
// deduplication, municipality filtering, and CAP projection for display.
package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/sources"
)

const (
	varsomBase            = "https://www.varsom.no"
	varsomForecastEN      = "https://www.varsom.no/en/flood-and-landslide-warning-service/forecastid/%s"
	varsomForecastNO      = "https://www.varsom.no/flom-og-jordskred/varsling/varselid/%s"
	varsomAvalancheEN     = "https://www.varsom.no/en/avalanche-bulletins"
	varsomAvalancheNO     = "https://www.varsom.no/snoskredvarsling"
	metNoWarningsOverview = "https://www.met.no/vaer-og-klima/ekstremvaervarsler-og-andre-faremeldinger"
)

// NormalizeAll maps a batch of raw warnings to canonical Alerts.
func NormalizeAll(raw []sources.RawWarning, lang string) []models.Alert {
	out := make([]models.Alert, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r, lang))
	}
	return out
}

// Normalize maps one raw warning to a canonical Alert. Identifier
// resolution prefers the stable master identifier over the transient
// forecast identifier; avalanche warnings fall back to their region id.
func Normalize(raw sources.RawWarning, lang string) models.Alert {
	switch {
	case raw.County != nil:
		return normalizeCounty(raw.Source, raw.County, lang)
	case raw.Avalanche != nil:
		return normalizeAvalanche(raw.Avalanche, lang)
	case raw.Weather != nil:
		return normalizeWeather(raw.Weather)
	default:
		return models.Alert{SourceType: raw.Source}
	}
}

func normalizeCounty(source models.SourceType, w *sources.CountyWarning, lang string) models.Alert {
	id := w.MasterID.String()
	if id == "" {
		id = w.ID.String()
	}

	return models.Alert{
		ID:            id,
		SourceType:    source,
		SeverityLevel: models.ParseSeverity(w.ActivityLevel.String()),
		ValidFrom:     w.ValidFrom,
		ValidTo:       w.ValidTo,
		Title:         w.MainText,
		Description:   w.WarningText,
		Instruction:   w.AdviceText,
		Consequences:  w.ConsequenceText,
		AffectedAreas: municipalityNames(w.MunicipalityList),
		DisplayURL:    forecastURL(id, lang),
		Extra: map[string]any{
			"master_id":         w.MasterID.String(),
			"forecast_id":       w.ID.String(),
			"danger_type":       w.DangerTypeName,
			"publish_time":      w.PublishTime,
			"next_warning_time": w.NextWarningTime,
			"danger_increases":  w.DangerIncreaseDateTime,
			"danger_decreases":  w.DangerDecreaseDateTime,
			"emergency_warning": w.EmergencyWarning,
			"author":            w.Author,
			"county_name":       firstCountyName(w.MunicipalityList),
		},
	}
}

func normalizeAvalanche(w *sources.AvalancheWarning, lang string) models.Alert {
	exposedHeight := w.ExposedHeight1
	if exposedHeight == 0 {
		exposedHeight = w.ExposedHeightFill
	}

	url := varsomAvalancheNO
	if lang == "en" {
		url = varsomAvalancheEN
	}

	regionID := strconv.Itoa(w.RegionID)
	return models.Alert{
		ID:            regionID,
		SourceType:    models.SourceAvalanche,
		SeverityLevel: models.ParseSeverity(w.DangerLevel.String()),
		ValidFrom:     w.ValidFrom,
		ValidTo:       w.ValidTo,
		Title:         w.MainText,
		Description:   w.AvalancheDanger,
		AffectedAreas: municipalityNames(w.MunicipalityList),
		RegionRef:     regionID,
		DisplayURL:    url,
		Extra: map[string]any{
			"region_name":               w.RegionName,
			"danger_level_name":         w.DangerLevelName,
			"emergency_warning":         w.EmergencyWarning,
			"snow_surface":              w.SnowSurface,
			"current_weaklayers":        w.CurrentWeaklayers,
			"latest_avalanche_activity": w.LatestAvalancheActivity,
			"latest_observations":       w.LatestObservations,
			"forecaster":                w.Author,
			"publish_time":              w.PublishTime,
			"exposed_height":            exposedHeight,
			"utm_zone":                  w.UtmZone,
			"utm_east":                  w.UtmEast,
			"utm_north":                 w.UtmNorth,
			"avalanche_problems":        w.AvalancheProblems,
			"avalanche_advices":         w.AvalancheAdvices,
			"wind_speed":                w.MountainWeather.WeatherValue("wind", "Speed"),
			"wind_direction":            w.MountainWeather.WeatherValue("wind", "Direction"),
			"temperature":               w.MountainWeather.WeatherValue("temperature", "Value"),
			"precipitation":             w.MountainWeather.WeatherValue("precipitation", "Value"),
		},
	}
}

func normalizeWeather(w *sources.WeatherAlert) models.Alert {
	url := w.ResourceURL
	if url == "" {
		url = metNoWarningsOverview
	}

	var areas []string
	if w.Area != "" {
		areas = strings.Split(w.Area, ", ")
	}

	return models.Alert{
		ID:            w.ID,
		SourceType:    models.SourceWeather,
		SeverityLevel: models.ParseSeverity(w.AwarenessNumeric),
		ValidFrom:     w.Start,
		ValidTo:       w.End,
		Title:         w.Title,
		Description:   w.Description,
		Instruction:   w.Instruction,
		Consequences:  w.Consequences,
		AffectedAreas: areas,
		DisplayURL:    url,
		Extra: map[string]any{
			"event":                   w.Event,
			"icon_event":              w.IconEvent,
			"event_awareness_name":    w.EventAwareness,
			"awareness_level":         w.AwarenessLevel,
			"awareness_level_numeric": w.AwarenessNumeric,
			"awareness_level_color":   w.AwarenessColor,
			"awareness_level_name":    w.AwarenessName,
			"awareness_type":          w.AwarenessType,
			"severity":                w.Severity,
			"certainty":               w.Certainty,
			"contact":                 w.Contact,
			"county":                  w.County,
			"geographic_domain":       w.GeographicDomain,
			"risk_matrix_color":       w.RiskMatrixColor,
			"trigger_level":           w.TriggerLevel,
			"ceiling":                 w.Ceiling,
			"web":                     w.Web,
			"map_url":                 w.MapURL,
			"resources":               w.Resources,
		},
	}
}

func forecastURL(id, lang string) string {
	if id == "" {
		return varsomBase
	}
	if lang == "en" {
		return fmt.Sprintf(varsomForecastEN, id)
	}
	return fmt.Sprintf(varsomForecastNO, id)
}

func municipalityNames(list []sources.Municipality) []string {
	names := make([]string, 0, len(list))
	for _, m := range list {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names
}

func firstCountyName(list []sources.Municipality) string {
	for _, m := range list {
		if m.CountyName != "" {
			return m.CountyName
		}
	}
	return ""
}
