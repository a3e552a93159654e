// Package refresh drives the poll cycle: concurrent source fetches,
// normalization, deduplication, change detection, and snapshot publication.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmcook/norway-alerts/internal/alerts"
	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/notify"
	"github.com/jmcook/norway-alerts/internal/observability"
	"github.com/jmcook/norway-alerts/internal/repository"
	"github.com/jmcook/norway-alerts/internal/sources"
)

// Options wires a Refresher. Repo, Broadcaster, and Metrics may be nil in
// tests; delivery steps that depend on them are skipped.
type Options struct {
	Fetchers             []sources.Fetcher
	Engine               *notify.Engine
	Notifier             notify.Notifier
	Broadcaster          *notify.Broadcaster
	Repo                 repository.AlertRepository
	Metrics              *observability.Metrics
	Lang                 string
	NotificationsEnabled bool
	DispatchWorkers      int
	DispatchBuffer       int
}

// Refresher runs one refresh cycle at a time and retains the current
// snapshot for display consumers. Only the change-detection engine keeps
// state across cycles.
type Refresher struct {
	opts       Options
	dispatcher *notify.Dispatcher

	mu      sync.Mutex
	current []models.Alert

	wg sync.WaitGroup
}

func NewRefresher(opts Options) *Refresher {
	if opts.Notifier == nil {
		opts.Notifier = notify.SlogNotifier{}
	}
	if opts.DispatchWorkers <= 0 {
		opts.DispatchWorkers = 2
	}
	if opts.DispatchBuffer <= 0 {
		opts.DispatchBuffer = 50
	}

	r := &Refresher{opts: opts}
	r.dispatcher = notify.NewDispatcher(opts.DispatchWorkers, opts.DispatchBuffer, r.deliver)
	return r
}

// Start launches the dispatcher and the periodic refresh loop.
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	r.dispatcher.Start(ctx)

	r.wg.Add(1)
	go r.run(ctx, interval)
}

func (r *Refresher) run(ctx context.Context, interval time.Duration) {
	defer r.wg.Done()
	slog.Info("starting refresh loop", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial refresh
	if err := r.Refresh(ctx); err != nil {
		slog.Error("refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh loop shutting down")
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				slog.Error("refresh failed", "error", err)
			}
		}
	}
}

// Stop waits for the refresh loop and drains the dispatcher.
func (r *Refresher) Stop() {
	r.wg.Wait()
	r.dispatcher.Stop()
	slog.Info("refresher stopped")
}

// Refresh runs one full cycle. The snapshot is only replaced after every
// adapter has returned; a cancelled cycle leaves the previous snapshot and
// the engine state untouched.
func (r *Refresher) Refresh(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	slog.Debug("refresh starting", "run_id", runID)

	raw := r.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		slog.Info("refresh cancelled, keeping previous snapshot", "run_id", runID)
		return err
	}

	normalized := alerts.NormalizeAll(raw, r.opts.Lang)
	snapshot := alerts.Dedupe(normalized)

	if r.opts.NotificationsEnabled {
		notifications := r.opts.Engine.Diff(snapshot)
		for _, n := range notifications {
			r.dispatcher.Submit(ctx, n)
		}
		if len(notifications) > 0 {
			slog.Info("emitting notifications", "run_id", runID, "count", len(notifications))
		}
	}

	r.mu.Lock()
	r.current = snapshot
	r.mu.Unlock()

	if r.opts.Repo != nil {
		if err := r.opts.Repo.ReplaceSnapshot(ctx, snapshot); err != nil {
			slog.Error("error persisting snapshot", "run_id", runID, "error", err)
		}
	}

	if r.opts.Metrics != nil {
		active := 0
		for _, a := range snapshot {
			if a.Active() {
				active++
			}
		}
		r.opts.Metrics.ActiveAlerts.Set(float64(active))
		r.opts.Metrics.RefreshDuration.Observe(time.Since(start).Seconds())
		r.opts.Metrics.LastRefreshUnix.SetToCurrentTime()
	}

	slog.Info("refresh complete", "run_id", runID, "raw", len(raw), "alerts", len(snapshot), "duration", time.Since(start))
	return nil
}

// Snapshot returns the current alert list.
func (r *Refresher) Snapshot() []models.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Alert, len(r.current))
	copy(out, r.current)
	return out
}

// fetchAll runs every source adapter concurrently and collects results.
// A failed adapter contributes an empty result; it never aborts the others.
func (r *Refresher) fetchAll(ctx context.Context) []sources.RawWarning {
	results := make([][]sources.RawWarning, len(r.opts.Fetchers))

	var wg sync.WaitGroup
	for i, f := range r.opts.Fetchers {
		wg.Add(1)
		go func(i int, f sources.Fetcher) {
			defer wg.Done()
			start := time.Now()

			raw, err := f.Fetch(ctx)
			if r.opts.Metrics != nil {
				outcome := "success"
				if err != nil {
					outcome = "error"
				}
				r.opts.Metrics.FetchesTotal.WithLabelValues(string(f.Source()), outcome).Inc()
				r.opts.Metrics.FetchDuration.WithLabelValues(string(f.Source())).Observe(time.Since(start).Seconds())
			}
			if err != nil {
				slog.Error("fetch failed", "source", f.Source(), "error", err)
				return
			}
			results[i] = raw
		}(i, f)
	}
	wg.Wait()

	var all []sources.RawWarning
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all
}

// deliver is the dispatcher worker body: fire-and-forget delivery plus the
// notification log. Failures are logged and never roll back alert state.
func (r *Refresher) deliver(ctx context.Context, n notify.Notification) {
	if err := r.opts.Notifier.Notify(ctx, n); err != nil {
		slog.Error("notification delivery failed", "dedupe_id", n.DedupeID, "error", err)
	}
	if r.opts.Broadcaster != nil {
		r.opts.Broadcaster.Broadcast(n)
	}
	if r.opts.Repo != nil {
		if err := r.opts.Repo.AddNotification(ctx, n); err != nil {
			slog.Error("error recording notification", "dedupe_id", n.DedupeID, "error", err)
		}
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.Notifications.WithLabelValues(string(n.Kind)).Inc()
	}
}
