package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jmcook/norway-alerts/internal/models"
	"github.com/jmcook/norway-alerts/internal/notify"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			severity INTEGER NOT NULL,
			valid_from TEXT,
			valid_to TEXT,
			title TEXT,
			description TEXT,
			instruction TEXT,
			consequences TEXT,
			areas TEXT,
			region_ref TEXT,
			display_url TEXT,
			extra TEXT,
			fetched_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			alert_id TEXT NOT NULL,
			source TEXT NOT NULL,
			area TEXT,
			severity INTEGER NOT NULL,
			title TEXT NOT NULL,
			message TEXT,
			dedupe_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_severity ON alerts(severity);
		CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

// ReplaceSnapshot swaps the stored snapshot for the given one in a single
// transaction.
func (s *SQLiteDB) ReplaceSnapshot(ctx context.Context, alerts []models.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alerts`); err != nil {
		return fmt.Errorf("error clearing alerts: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, a := range alerts {
		areas, err := json.Marshal(a.AffectedAreas)
		if err != nil {
			return fmt.Errorf("error marshaling areas for %s: %w", a.ID, err)
		}
		extra, err := json.Marshal(a.Extra)
		if err != nil {
			return fmt.Errorf("error marshaling extra for %s: %w", a.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO alerts (id, source, severity, valid_from, valid_to, title,
				description, instruction, consequences, areas, region_ref,
				display_url, extra, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, string(a.SourceType), a.SeverityLevel, a.ValidFrom, a.ValidTo,
			a.Title, a.Description, a.Instruction, a.Consequences, string(areas),
			a.RegionRef, a.DisplayURL, string(extra), now,
		)
		if err != nil {
			return fmt.Errorf("error inserting alert %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteDB) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, severity, valid_from, valid_to, title, description,
			instruction, consequences, areas, region_ref, display_url, extra
		FROM alerts
		ORDER BY severity DESC, valid_from DESC`)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var (
			a         models.Alert
			source    string
			areasJSON string
			extraJSON string
		)
		err := rows.Scan(&a.ID, &source, &a.SeverityLevel, &a.ValidFrom, &a.ValidTo,
			&a.Title, &a.Description, &a.Instruction, &a.Consequences, &areasJSON,
			&a.RegionRef, &a.DisplayURL, &extraJSON)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		a.SourceType = models.SourceType(source)
		if err := json.Unmarshal([]byte(areasJSON), &a.AffectedAreas); err != nil {
			return nil, fmt.Errorf("error unmarshaling areas for %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(extraJSON), &a.Extra); err != nil {
			return nil, fmt.Errorf("error unmarshaling extra for %s: %w", a.ID, err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteDB) AddNotification(ctx context.Context, n notify.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, kind, alert_id, source, area, severity,
			title, message, dedupe_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind), n.AlertID, string(n.Source), n.Area, n.Level,
		n.Title, n.Message, n.DedupeID, n.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error inserting notification: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListNotifications(ctx context.Context, limit int) ([]notify.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, alert_id, source, area, severity, title, message,
			dedupe_id, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notify.Notification
	for rows.Next() {
		var (
			n         notify.Notification
			kind      string
			source    string
			createdAt string
		)
		err := rows.Scan(&n.ID, &kind, &n.AlertID, &source, &n.Area, &n.Level,
			&n.Title, &n.Message, &n.DedupeID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		n.Kind = notify.Kind(kind)
		n.Source = models.SourceType(source)
		if at, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			n.At = at
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
