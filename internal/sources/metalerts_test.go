package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseAwarenessLevel(t *testing.T) {
	tests := []struct {
		in                   string
		numeric, color, name string
	}{
		{"3; orange; Moderate", "3", "orange", "Moderate"},
		{"2; yellow; Minor", "2", "yellow", "Minor"},
		{"garbage", "1", "yellow", "Minor"},
		{"", "1", "yellow", "Minor"},
		{"3;orange;Moderate", "1", "yellow", "Minor"}, // separator must be "; "
	}

	for _, tt := range tests {
		numeric, color, name := ParseAwarenessLevel(tt.in)
		if numeric != tt.numeric || color != tt.color || name != tt.name {
			t.Errorf("ParseAwarenessLevel(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.in, numeric, color, name, tt.numeric, tt.color, tt.name)
		}
	}
}

func TestExtractTimesFromTitle(t *testing.T) {
	title := "Gale warning for Vestland, 2026-01-10T06:00:00+01:00, 2026-01-11T18:00:00+01:00"
	stripped, start, end := extractTimesFromTitle(title)

	if stripped != "Gale warning for Vestland" {
		t.Errorf("stripped = %q", stripped)
	}
	if start != "2026-01-10T06:00:00+01:00" {
		t.Errorf("start = %q", start)
	}
	if end != "2026-01-11T18:00:00+01:00" {
		t.Errorf("end = %q", end)
	}
}

func TestExtractTimesFromTitleTooFewTimestamps(t *testing.T) {
	title := "Gale warning, 2026-01-10T06:00:00+01:00"
	stripped, start, end := extractTimesFromTitle(title)
	if stripped != title || start != "" || end != "" {
		t.Errorf("got (%q, %q, %q), want title unchanged and empty times", stripped, start, end)
	}
}

func TestIconEvent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"gale", "wind"},
		{"Gale", "wind"},
		{"icing", "ice"},
		{"blowingSnow", "snow"},
		{"rainFlood", "rainflood"},
	}
	for _, tt := range tests {
		if got := iconEvent(tt.in); got != tt.want {
			t.Errorf("iconEvent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMetAlertsFetcher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"features": [{"properties": {
			"id": "2.49.0.1.578.0.20260110",
			"title": "Gale warning, 2026-01-10T06:00:00+01:00, 2026-01-11T18:00:00+01:00",
			"event": "gale",
			"area": "Vestland, Bergen",
			"awareness_level": "3; orange; Moderate",
			"resources": [
				{"uri": "https://api.met.no/warning.html", "mimeType": "text/html"},
				{"uri": "https://api.met.no/warning.png", "mimeType": "image/png"}
			]
		}}]}`)
	}))
	defer srv.Close()

	f := NewMetAlertsCoordFetcher(srv.URL, 60.39, 5.32, "no")
	raw, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotQuery != "lat=60.39&lon=5.32&lang=no" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(raw) != 1 {
		t.Fatalf("got %d alerts, want 1", len(raw))
	}

	w := raw[0].Weather
	if w == nil {
		t.Fatal("expected a weather payload")
	}
	if w.Title != "Gale warning" {
		t.Errorf("Title = %q, want timestamps stripped", w.Title)
	}
	if w.Start != "2026-01-10T06:00:00+01:00" || w.End != "2026-01-11T18:00:00+01:00" {
		t.Errorf("Start/End = %q/%q", w.Start, w.End)
	}
	if w.AwarenessNumeric != "3" || w.AwarenessColor != "orange" || w.AwarenessName != "Moderate" {
		t.Errorf("awareness = %q/%q/%q", w.AwarenessNumeric, w.AwarenessColor, w.AwarenessName)
	}
	if w.IconEvent != "wind" {
		t.Errorf("IconEvent = %q, want wind", w.IconEvent)
	}
	if w.ResourceURL != "https://api.met.no/warning.html" {
		t.Errorf("ResourceURL = %q", w.ResourceURL)
	}
	if w.MapURL != "https://api.met.no/warning.png" {
		t.Errorf("MapURL = %q", w.MapURL)
	}
}

func TestMetAlertsCountyMode(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"features": []}`)
	}))
	defer srv.Close()

	f := NewMetAlertsCountyFetcher(srv.URL, "46", "en")
	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotQuery != "county=46&lang=en" {
		t.Errorf("query = %q", gotQuery)
	}
}
