package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/jmcook/norway-alerts/internal/models"
)

// relevanceThreshold is the municipality-ratio bar for including a region
// whose county list does not name the target county.
const relevanceThreshold = 0.10

// DefaultDetailFanout bounds concurrent phase-2 detail fetches.
const DefaultDetailFanout = 4

// AvalancheFetcher polls the NVE avalanche service in two phases: a region
// summary for the two-day window to find regions with an active danger
// level, then one detail fetch per active region. Phase 2 runs only on the
// active set so request volume tracks the number of dangerous regions.
type AvalancheFetcher struct {
	baseURL    string
	countyID   string
	countyName string
	lang       string
	fanout     int
	client     *http.Client
}

func NewAvalancheFetcher(baseURL, countyID, countyName, lang string, fanout int) *AvalancheFetcher {
	if fanout <= 0 {
		fanout = DefaultDetailFanout
	}
	return &AvalancheFetcher{
		baseURL:    baseURL,
		countyID:   countyID,
		countyName: countyName,
		lang:       lang,
		fanout:     fanout,
		client:     newHTTPClient(),
	}
}

func (f *AvalancheFetcher) Source() models.SourceType {
	return models.SourceAvalanche
}

type regionSummary struct {
	RegionID             int `json:"RegionId"`
	AvalancheWarningList []struct {
		RegionID    int        `json:"RegionId"`
		DangerLevel flexString `json:"DangerLevel"`
	} `json:"AvalancheWarningList"`
}

func (f *AvalancheFetcher) Fetch(ctx context.Context) ([]RawWarning, error) {
	today := models.Clock().Now().Format("2006-01-02")
	tomorrow := models.Clock().Now().AddDate(0, 0, 1).Format("2006-01-02")

	url := fmt.Sprintf("%s/api/RegionSummary/Simple/%s/%s/%s", f.baseURL, langKey(f.lang), today, tomorrow)
	slog.Debug("fetching avalanche summary", "url", url)

	var summary []regionSummary
	if err := getJSON(ctx, f.client, url, &summary); err != nil {
		return nil, fmt.Errorf("fetching avalanche summary: %w", err)
	}

	active := activeRegions(summary)
	slog.Debug("found active avalanche regions", "count", len(active))

	details := f.fetchDetails(ctx, active, today, tomorrow)

	raw := make([]RawWarning, 0, len(details))
	for _, w := range details {
		if models.ParseSeverity(w.DangerLevel.String()) == 0 {
			continue
		}
		if !f.relevant(w) {
			continue
		}
		slog.Debug("including avalanche region", "region", w.RegionName, "county", f.countyName)
		raw = append(raw, RawWarning{Source: models.SourceAvalanche, Avalanche: w})
	}

	slog.Info("fetched avalanche warnings", "county", f.countyName, "count", len(raw))
	return raw, nil
}

// activeRegions returns region ids whose summary reports a danger level
// above zero, preserving summary order without duplicates.
func activeRegions(summary []regionSummary) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, region := range summary {
		for _, w := range region.AvalancheWarningList {
			if models.ParseSeverity(w.DangerLevel.String()) > 0 {
				if !seen[w.RegionID] {
					seen[w.RegionID] = true
					ids = append(ids, w.RegionID)
				}
				break
			}
		}
	}
	return ids
}

// fetchDetails runs the per-region detail fetches with bounded concurrency.
// A failed region is skipped, not fatal to the batch.
func (f *AvalancheFetcher) fetchDetails(ctx context.Context, regionIDs []int, today, tomorrow string) []*AvalancheWarning {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*AvalancheWarning
	)

	sem := make(chan struct{}, f.fanout)
	for _, regionID := range regionIDs {
		wg.Add(1)
		go func(regionID int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			url := fmt.Sprintf("%s/api/AvalancheWarningByRegion/Detail/%d/%s/%s/%s",
				f.baseURL, regionID, langKey(f.lang), today, tomorrow)

			var detail []AvalancheWarning
			if err := getJSON(ctx, f.client, url, &detail); err != nil {
				slog.Debug("error fetching region detail", "region_id", regionID, "error", err)
				return
			}

			mu.Lock()
			for i := range detail {
				results = append(results, &detail[i])
			}
			mu.Unlock()
		}(regionID)
	}
	wg.Wait()

	return results
}

// relevant decides whether a region-scoped warning applies to the target
// county. The county list check wins when it names the county; the
// municipality ratio recovers relevance when the name signal is absent,
// since per-municipality county ids are frequently blank upstream.
func (f *AvalancheFetcher) relevant(w *AvalancheWarning) bool {
	for _, c := range w.CountyList {
		if c.Name == f.countyName {
			return true
		}
	}

	if len(w.MunicipalityList) == 0 {
		return false
	}
	matching := 0
	for _, m := range w.MunicipalityList {
		if m.CountyID.String() == f.countyID {
			matching++
		}
	}
	ratio := float64(matching) / float64(len(w.MunicipalityList))
	return ratio >= relevanceThreshold
}

// WeatherValue flattens one value out of the MountainWeather measurement
// list, matching the measurement by name case-insensitively. Missing
// entries yield an empty string.
func (mw MountainWeather) WeatherValue(name, field string) string {
	for _, m := range mw.MeasurementTypes {
		n, _ := m["Name"].(string)
		if !strings.EqualFold(n, name) {
			continue
		}
		v, ok := m[field]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}
