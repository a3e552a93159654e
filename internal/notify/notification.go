// Package notify holds the change-detection engine that diffs refresh
// snapshots and the delivery plumbing for the notifications it emits.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmcook/norway-alerts/internal/models"
)

type Kind string

const (
	KindNew       Kind = "new"
	KindEscalated Kind = "escalated"
	KindResolved  Kind = "resolved"
)

// Notification is one user-facing alert state transition.
type Notification struct {
	ID       string // record id, unique per emission
	Kind     Kind
	AlertID  string
	Source   models.SourceType
	Area     string
	Level    int
	Title    string
	Message  string
	DedupeID string // stable across re-emissions of the same alert
	At       time.Time
}

// Notifier delivers one notification. Delivery is fire-and-forget: a
// failure is logged by the caller and never rolls back alert state.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// SlogNotifier writes notifications to the structured log. It is the
// default sink when no external delivery channel is configured.
type SlogNotifier struct{}

func (SlogNotifier) Notify(ctx context.Context, n Notification) error {
	slog.Info("notification",
		"kind", n.Kind,
		"alert_id", n.AlertID,
		"source", n.Source,
		"level", n.Level,
		"title", n.Title,
		"message", n.Message,
		"dedupe_id", n.DedupeID,
	)
	return nil
}
