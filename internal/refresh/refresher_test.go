package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/notify"
	"github.com/jmcook/norway-alerts/internal/sources"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	source models.SourceType
	raw    []sources.RawWarning
	err    error
}

func (f *fakeFetcher) Source() models.SourceType { return f.source }
func (f *fakeFetcher) Fetch(ctx context.Context) ([]sources.RawWarning, error) {
	return f.raw, f.err
}

// landslideWarning decodes a warning from its wire shape so the
// string-or-number fields are populated the way the fetchers produce them.
func landslideWarning(masterID, level, municipality string) sources.RawWarning {
	body := fmt.Sprintf(`{
		"MasterId": %q,
		"ActivityLevel": %q,
		"MainText": "Landslide warning",
		"WarningText": "Heavy rain increases landslide danger.",
		"MunicipalityList": [{"Name": %q, "CountyName": "Vestland"}]
	}`, masterID, level, municipality)

	var w sources.CountyWarning
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		panic(err)
	}
	return sources.RawWarning{Source: models.SourceLandslide, County: &w}
}

// chanNotifier forwards deliveries to a channel for synchronization.
type chanNotifier struct {
	ch chan notify.Notification
}

func (c *chanNotifier) Notify(ctx context.Context, n notify.Notification) error {
	c.ch <- n
	return nil
}

// memRepo records snapshot replacements and the notification log.
type memRepo struct {
	mu            sync.Mutex
	snapshot      []models.Alert
	replacements  int
	notifications []notify.Notification
}

func (m *memRepo) ReplaceSnapshot(ctx context.Context, alerts []models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = alerts
	m.replacements++
	return nil
}

func (m *memRepo) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, nil
}

func (m *memRepo) AddNotification(ctx context.Context, n notify.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memRepo) ListNotifications(ctx context.Context, limit int) ([]notify.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications, nil
}

func (m *memRepo) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replacements, len(m.notifications)
}

func TestRefreshPipeline(t *testing.T) {
	notifier := &chanNotifier{ch: make(chan notify.Notification, 10)}
	repo := &memRepo{}
	broadcaster := notify.NewBroadcaster()
	defer broadcaster.Close()
	_, sub := broadcaster.Subscribe()

	r := NewRefresher(Options{
		Fetchers: []sources.Fetcher{
			&fakeFetcher{source: models.SourceLandslide, raw: []sources.RawWarning{
				landslideWarning("584700", "3", "Bergen"),
			}},
			&fakeFetcher{source: models.SourceFlood, err: errors.New("upstream down")},
		},
		Engine:               notify.NewEngine(notify.FloorYellowPlus, "46"),
		Notifier:             notifier,
		Broadcaster:          broadcaster,
		Repo:                 repo,
		Lang:                 "no",
		NotificationsEnabled: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx, time.Hour)
	defer func() {
		cancel()
		r.Stop()
	}()

	// The initial refresh emits one "new" notification.
	select {
	case n := <-notifier.ch:
		if n.Kind != notify.KindNew || n.AlertID != "584700" {
			t.Errorf("unexpected notification: %+v", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification delivered")
	}

	select {
	case n := <-sub:
		if n.AlertID != "584700" {
			t.Errorf("broadcast AlertID = %q", n.AlertID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notification not broadcast")
	}

	// The failed flood fetch contributes nothing but does not abort the cycle.
	waitFor(t, func() bool {
		return len(r.Snapshot()) == 1
	}, "snapshot not published")
	snapshot := r.Snapshot()
	if snapshot[0].ID != "584700" || snapshot[0].SeverityLevel != 3 {
		t.Errorf("unexpected snapshot alert: %+v", snapshot[0])
	}

	waitFor(t, func() bool {
		replacements, logged := repo.counts()
		return replacements >= 1 && logged >= 1
	}, "snapshot and notification not persisted")
}

func TestRefreshCancelledKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{source: models.SourceLandslide, raw: []sources.RawWarning{
		landslideWarning("584700", "3", "Bergen"),
	}}
	r := NewRefresher(Options{
		Fetchers: []sources.Fetcher{fetcher},
		Engine:   notify.NewEngine(notify.FloorYellowPlus, "46"),
		Lang:     "no",
	})

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(r.Snapshot()) != 1 {
		t.Fatalf("snapshot has %d alerts, want 1", len(r.Snapshot()))
	}

	// A cancelled cycle must not clear the snapshot even though the
	// fetcher now returns nothing.
	fetcher.raw = nil
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Refresh(cancelled); err == nil {
		t.Fatal("expected context error from cancelled refresh")
	}
	if len(r.Snapshot()) != 1 {
		t.Errorf("cancelled refresh replaced the snapshot")
	}
}

func TestRefreshAllSourcesFailing(t *testing.T) {
	r := NewRefresher(Options{
		Fetchers: []sources.Fetcher{
			&fakeFetcher{source: models.SourceFlood, err: errors.New("down")},
		},
		Engine: notify.NewEngine(notify.FloorYellowPlus, "46"),
		Lang:   "no",
	})

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh should tolerate failing sources, got: %v", err)
	}
	if len(r.Snapshot()) != 0 {
		t.Errorf("snapshot has %d alerts, want 0", len(r.Snapshot()))
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
