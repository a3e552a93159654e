package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmcook/norway-alerts/internal/alerts"
	"github.com/jmcook/norway-alerts/internal/config"
	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/repository"
)

// SnapshotProvider exposes the current alert snapshot. The refresher
// implements it; tests stub it.
type SnapshotProvider interface {
	Snapshot() []models.Alert
}

type Handler struct {
	snapshots SnapshotProvider
	repo      repository.AlertRepository
	cfg       *config.Config
}

func NewHandler(snapshots SnapshotProvider, repo repository.AlertRepository, cfg *config.Config) *Handler {
	return &Handler{
		snapshots: snapshots,
		repo:      repo,
		cfg:       cfg,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/api/notifications", h.getNotifications)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) getAlerts(c *gin.Context) {
	active := activeOnly(h.snapshots.Snapshot())

	filter := h.cfg.Display.MunicipalityFilter
	if q := c.Query("municipalities"); q != "" {
		filter = q
	}
	active = alerts.FilterMunicipalities(active, filter)

	if m := c.Query("min_level"); m != "" {
		if minLevel, err := strconv.Atoi(m); err == nil && minLevel > 0 {
			filtered := active[:0]
			for _, a := range active {
				if a.SeverityLevel >= minLevel {
					filtered = append(filtered, a)
				}
			}
			active = filtered
		}
	}

	alerts.SortForDisplay(active)

	highest := models.HighestLevel(active)

	capFormat := h.cfg.Display.CAPFormat
	if q := c.Query("cap"); q != "" {
		if b, err := strconv.ParseBool(q); err == nil {
			capFormat = b
		}
	}

	var body any
	if capFormat {
		projected := make([]alerts.CAPAlert, 0, len(active))
		for _, a := range active {
			projected = append(projected, alerts.Project(a, h.cfg.Location.Lang))
		}
		body = projected
	} else {
		body = active
	}

	c.JSON(http.StatusOK, gin.H{
		"active_alerts":         body,
		"count":                 len(active),
		"highest_level":         models.SeverityName(highest),
		"highest_level_numeric": highest,
		"location":              h.locationAttrs(),
	})
}

func (h *Handler) getNotifications(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			limit = lim
		}
	}

	notifications, err := h.repo.ListNotifications(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch notifications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) locationAttrs() gin.H {
	loc := h.cfg.Location
	attrs := gin.H{
		"lang":          loc.Lang,
		"warning_types": h.cfg.Sources.WarningTypes,
	}
	if loc.UseCoords {
		attrs["latitude"] = loc.Latitude
		attrs["longitude"] = loc.Longitude
	} else {
		attrs["county_id"] = loc.CountyID
		if loc.CountyName != "" {
			attrs["county_name"] = loc.CountyName
		}
	}
	return attrs
}

func activeOnly(in []models.Alert) []models.Alert {
	out := make([]models.Alert, 0, len(in))
	for _, a := range in {
		if a.Active() {
			out = append(out, a)
		}
	}
	return out
}
