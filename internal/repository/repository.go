package repository

import (
	"context"

	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/notify"
)

// AlertRepository persists the latest alert snapshot and the notification
// log. The snapshot is replaced wholesale each refresh; it exists so the
// service can show last-known data across restarts, not as diff state.
type AlertRepository interface {
	ReplaceSnapshot(ctx context.Context, alerts []models.Alert) error
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	AddNotification(ctx context.Context, n notify.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]notify.Notification, error)
}
