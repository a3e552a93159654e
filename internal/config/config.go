package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default upstream endpoints, overridable per environment.
const (
	DefaultLandslideURL = "https://api01.nve.no/hydrology/forecast/landslide/v1.0.10/api"
	DefaultFloodURL     = "https://api01.nve.no/hydrology/forecast/flood/v1.0.10/api"
	DefaultAvalancheURL = "https://api01.nve.no/hydrology/forecast/avalanche/v6.3.0"
	DefaultMetAlertsURL = "https://api.met.no/weatherapi/metalerts/2.0"
)

type Config struct {
	Server        ServerConfig
	Location      LocationConfig
	Sources       SourcesConfig
	Notifications NotificationsConfig
	Display       DisplayConfig
	DB            DatabaseConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// LocationConfig selects the monitored area: an administrative county for
// the NVE families, or coordinates for weather alerts. The two modes are
// mutually exclusive.
type LocationConfig struct {
	CountyID   string
	CountyName string
	Latitude   float64
	Longitude  float64
	UseCoords  bool
	Lang       string // "no" or "en"
}

type SourcesConfig struct {
	WarningTypes    []string // subset of landslide, flood, avalanche, weather
	LandslideURL    string
	FloodURL        string
	AvalancheURL    string
	MetAlertsURL    string
	RefreshInterval time.Duration
	AvalancheFanout int
	TestMode        bool
	DispatchWorkers int
	DispatchBuffer  int
}

type NotificationsConfig struct {
	Enabled  bool
	Severity string // all, yellow-plus, orange-plus, red-only
}

type DisplayConfig struct {
	CAPFormat          bool
	MunicipalityFilter string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Location: LocationConfig{
			CountyID:   getEnv("COUNTY_ID", ""),
			CountyName: getEnv("COUNTY_NAME", ""),
			Latitude:   getEnvFloat("LATITUDE", 0),
			Longitude:  getEnvFloat("LONGITUDE", 0),
			Lang:       getEnv("LANG_KEY", "no"),
		},
		Sources: SourcesConfig{
			WarningTypes:    splitList(getEnv("WARNING_TYPES", "landslide,flood,avalanche,weather")),
			LandslideURL:    getEnv("LANDSLIDE_URL", DefaultLandslideURL),
			FloodURL:        getEnv("FLOOD_URL", DefaultFloodURL),
			AvalancheURL:    getEnv("AVALANCHE_URL", DefaultAvalancheURL),
			MetAlertsURL:    getEnv("METALERTS_URL", DefaultMetAlertsURL),
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 30*time.Minute),
			AvalancheFanout: getEnvInt("AVALANCHE_FANOUT", 4),
			TestMode:        getEnvBool("TEST_MODE", false),
			DispatchWorkers: getEnvInt("DISPATCH_WORKERS", 2),
			DispatchBuffer:  getEnvInt("DISPATCH_BUFFER", 50),
		},
		Notifications: NotificationsConfig{
			Enabled:  getEnvBool("NOTIFICATIONS_ENABLED", true),
			Severity: getEnv("NOTIFICATION_SEVERITY", "yellow-plus"),
		},
		Display: DisplayConfig{
			CAPFormat:          getEnvBool("CAP_FORMAT", true),
			MunicipalityFilter: getEnv("MUNICIPALITY_FILTER", ""),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/norway-alerts.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	cfg.Location.UseCoords = cfg.Location.CountyID == "" &&
		(os.Getenv("LATITUDE") != "" || os.Getenv("LONGITUDE") != "")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Location.Lang != "no" && c.Location.Lang != "en" {
		return fmt.Errorf("invalid language: %s (must be no or en)", c.Location.Lang)
	}

	if c.Location.CountyID != "" && c.Location.UseCoords {
		return fmt.Errorf("county and coordinates are mutually exclusive")
	}
	if c.Location.CountyID == "" && !c.Location.UseCoords && !c.Sources.TestMode {
		return fmt.Errorf("either COUNTY_ID or LATITUDE/LONGITUDE is required")
	}

	if len(c.Sources.WarningTypes) == 0 {
		return fmt.Errorf("at least one warning type is required")
	}
	valid := map[string]bool{"landslide": true, "flood": true, "avalanche": true, "weather": true}
	for _, t := range c.Sources.WarningTypes {
		if !valid[t] {
			return fmt.Errorf("invalid warning type: %s", t)
		}
		if t != "weather" && c.Location.UseCoords && !c.Sources.TestMode {
			return fmt.Errorf("warning type %s requires COUNTY_ID, not coordinates", t)
		}
	}

	validSeverity := map[string]bool{"all": true, "yellow-plus": true, "orange-plus": true, "red-only": true}
	if !validSeverity[c.Notifications.Severity] {
		return fmt.Errorf("invalid notification severity: %s", c.Notifications.Severity)
	}

	if c.Sources.RefreshInterval < time.Minute {
		return fmt.Errorf("refresh interval must be at least 1 minute")
	}
	if c.Sources.AvalancheFanout < 1 {
		return fmt.Errorf("avalanche fanout must be at least 1")
	}

	return nil
}

// LocationRef returns the identifier used in notification dedupe ids.
func (c *Config) LocationRef() string {
	if c.Location.CountyID != "" {
		return c.Location.CountyID
	}
	return fmt.Sprintf("%.2f_%.2f", c.Location.Latitude, c.Location.Longitude)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
