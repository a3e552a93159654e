package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/jmcook/norway-alerts/internal/models"
)

var titleTimestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\+\d{2}:\d{2}`)

// MetAlertsFetcher polls the Met.no weather alert feed. It operates in one
// of two mutually exclusive modes: coordinate-based or county-based
// filtering of the current alerts.
type MetAlertsFetcher struct {
	baseURL   string
	latitude  float64
	longitude float64
	byCoords  bool
	countyID  string
	lang      string
	client    *http.Client
}

func NewMetAlertsCoordFetcher(baseURL string, lat, lon float64, lang string) *MetAlertsFetcher {
	return &MetAlertsFetcher{
		baseURL:   baseURL,
		latitude:  lat,
		longitude: lon,
		byCoords:  true,
		lang:      lang,
		client:    newHTTPClient(),
	}
}

func NewMetAlertsCountyFetcher(baseURL, countyID, lang string) *MetAlertsFetcher {
	return &MetAlertsFetcher{
		baseURL:  baseURL,
		countyID: countyID,
		lang:     lang,
		client:   newHTTPClient(),
	}
}

func (f *MetAlertsFetcher) Source() models.SourceType {
	return models.SourceWeather
}

type metalertsResponse struct {
	Features []metalertsFeature `json:"features"`
}

type metalertsFeature struct {
	Properties metalertsProps `json:"properties"`
}

type metalertsProps struct {
	ID                 flexString        `json:"id"`
	Title              string            `json:"title"`
	Event              string            `json:"event"`
	EventAwarenessName string            `json:"eventAwarenessName"`
	Area               string            `json:"area"`
	Description        string            `json:"description"`
	Instruction        string            `json:"instruction"`
	Consequences       string            `json:"consequences"`
	AwarenessLevel     string            `json:"awareness_level"`
	AwarenessType      string            `json:"awareness_type"`
	Severity           string            `json:"severity"`
	Certainty          string            `json:"certainty"`
	Contact            string            `json:"contact"`
	County             []string          `json:"county"`
	GeographicDomain   string            `json:"geographicDomain"`
	RiskMatrixColor    string            `json:"riskMatrixColor"`
	TriggerLevel       any               `json:"triggerLevel"`
	Ceiling            any               `json:"ceiling"`
	Web                string            `json:"web"`
	EventEndingTime    string            `json:"eventEndingTime"`
	Resources          []WeatherResource `json:"resources"`
}

func (f *MetAlertsFetcher) Fetch(ctx context.Context) ([]RawWarning, error) {
	var url string
	if f.byCoords {
		url = fmt.Sprintf("%s/current.json?lat=%v&lon=%v&lang=%s", f.baseURL, f.latitude, f.longitude, f.lang)
	} else {
		url = fmt.Sprintf("%s/current.json?county=%s&lang=%s", f.baseURL, f.countyID, f.lang)
	}
	slog.Debug("fetching metalerts", "url", url)

	var data metalertsResponse
	if err := getJSON(ctx, f.client, url, &data); err != nil {
		return nil, fmt.Errorf("fetching metalerts: %w", err)
	}

	raw := make([]RawWarning, 0, len(data.Features))
	for _, feature := range data.Features {
		alert := convertFeature(feature.Properties)
		raw = append(raw, RawWarning{Source: models.SourceWeather, Weather: alert})
	}

	slog.Info("fetched metalerts", "count", len(raw))
	return raw, nil
}

func convertFeature(props metalertsProps) *WeatherAlert {
	title, start, end := extractTimesFromTitle(props.Title)
	numeric, color, name := ParseAwarenessLevel(props.AwarenessLevel)

	resourceURL := ""
	mapURL := ""
	if len(props.Resources) > 0 {
		resourceURL = props.Resources[0].URI
		for _, r := range props.Resources {
			if r.MimeType == "image/png" {
				mapURL = r.URI
				break
			}
		}
	}

	if start == "" {
		start = props.EventEndingTime
	}
	if end == "" {
		end = props.EventEndingTime
	}

	return &WeatherAlert{
		ID:               props.ID.String(),
		Title:            title,
		Start:            start,
		End:              end,
		Event:            props.Event,
		IconEvent:        iconEvent(props.Event),
		Area:             props.Area,
		Description:      props.Description,
		Instruction:      props.Instruction,
		Consequences:     props.Consequences,
		Severity:         props.Severity,
		Certainty:        props.Certainty,
		AwarenessLevel:   props.AwarenessLevel,
		AwarenessNumeric: numeric,
		AwarenessColor:   color,
		AwarenessName:    name,
		AwarenessType:    props.AwarenessType,
		EventAwareness:   props.EventAwarenessName,
		Contact:          props.Contact,
		County:           props.County,
		GeographicDomain: props.GeographicDomain,
		RiskMatrixColor:  props.RiskMatrixColor,
		TriggerLevel:     props.TriggerLevel,
		Ceiling:          props.Ceiling,
		Web:              props.Web,
		Resources:        props.Resources,
		ResourceURL:      resourceURL,
		MapURL:           mapURL,
	}
}

// ParseAwarenessLevel splits the composite "N; color; Name" awareness
// string. Malformed input yields the documented fallback triple rather
// than an error.
func ParseAwarenessLevel(s string) (numeric, color, name string) {
	parts := strings.Split(s, "; ")
	if len(parts) != 3 {
		return "1", "yellow", "Minor"
	}
	return parts[0], parts[1], parts[2]
}

// extractTimesFromTitle pulls the validity timestamps Met.no embeds as
// trailing text in alert titles. When at least two timestamp-shaped
// substrings are present, the first two become start/end and are stripped
// from the title.
func extractTimesFromTitle(title string) (stripped, start, end string) {
	timestamps := titleTimestampRe.FindAllString(title, -1)
	if len(timestamps) < 2 {
		return title, "", ""
	}
	start, end = timestamps[0], timestamps[1]
	stripped = strings.Replace(title, start, "", 1)
	stripped = strings.Replace(stripped, end, "", 1)
	stripped = strings.Trim(stripped, ", ")
	return stripped, start, end
}

// iconEvent remaps a few Met.no event names onto the display grouping the
// rest of the warning families use.
func iconEvent(event string) string {
	switch strings.ToLower(event) {
	case "gale":
		return "wind"
	case "icing":
		return "ice"
	case "blowingsnow":
		return "snow"
	default:
		return strings.ToLower(event)
	}
}
