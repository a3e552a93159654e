package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmcook/norway-alerts/internal/models"
)

// CountyFetcher polls one of the county-parameterized NVE endpoints.
// Landslide and flood warnings share the same schema and URL layout; only
// the API base differs.
type CountyFetcher struct {
	source   models.SourceType
	baseURL  string
	countyID string
	lang     string
	client   *http.Client
}

func NewLandslideFetcher(baseURL, countyID, lang string) *CountyFetcher {
	return newCountyFetcher(models.SourceLandslide, baseURL, countyID, lang)
}

func NewFloodFetcher(baseURL, countyID, lang string) *CountyFetcher {
	return newCountyFetcher(models.SourceFlood, baseURL, countyID, lang)
}

func newCountyFetcher(source models.SourceType, baseURL, countyID, lang string) *CountyFetcher {
	return &CountyFetcher{
		source:   source,
		baseURL:  baseURL,
		countyID: countyID,
		lang:     lang,
		client:   newHTTPClient(),
	}
}

func (f *CountyFetcher) Source() models.SourceType {
	return f.source
}

func (f *CountyFetcher) Fetch(ctx context.Context) ([]RawWarning, error) {
	url := fmt.Sprintf("%s/Warning/County/%s/%s", f.baseURL, f.countyID, langKey(f.lang))
	slog.Debug("fetching county warnings", "source", f.source, "url", url)

	var warnings []CountyWarning
	if err := getJSON(ctx, f.client, url, &warnings); err != nil {
		return nil, fmt.Errorf("fetching %s warnings: %w", f.source, err)
	}

	raw := make([]RawWarning, 0, len(warnings))
	for i := range warnings {
		raw = append(raw, RawWarning{Source: f.source, County: &warnings[i]})
	}

	slog.Info("fetched county warnings", "source", f.source, "count", len(raw))
	return raw, nil
}
