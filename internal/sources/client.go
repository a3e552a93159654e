package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmcook/norway-alerts/internal/models"
)

// Per-fetch timeout the upstream services document.
const fetchTimeout = 10 * time.Second

const userAgent = "norway-alerts/1.0 github.com/jmcook/norway-alerts"

// Fetcher is one upstream feed. A failed fetch must not abort the other
// sources: the caller treats an error as an empty result for that source.
type Fetcher interface {
	Source() models.SourceType
	Fetch(ctx context.Context) ([]RawWarning, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: fetchTimeout}
}

// getJSON fetches url and decodes the JSON body into v. Non-200 responses
// and non-JSON content types are errors; callers recover them as empty
// results.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return fmt.Errorf("unexpected content type: %q", ct)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return nil
}

// langKey maps the display language to the NVE API language selector.
func langKey(lang string) string {
	if lang == "en" {
		return "2"
	}
	return "1"
}
