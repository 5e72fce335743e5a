package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/smart-trolley/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Journal is the kiosk's local audit trail of shopper actions and alerts.
type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) runMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(j.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	// m.Close would close j.db through the driver
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (j *Journal) Record(ctx context.Context, a domain.Activity) error {
	if a.At.IsZero() {
		a.At = time.Now()
	}
	query := `
		INSERT INTO activities (trolley_id, kind, barcode, outcome, message, code, at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		a.TrolleyID, string(a.Kind), a.Barcode, string(a.Outcome), a.Message, a.Code, a.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// Publish records an alert, so the journal can serve as a monitor alert sink.
func (j *Journal) Publish(ctx context.Context, alert domain.Alert) error {
	return j.Record(ctx, domain.Activity{
		TrolleyID: alert.TrolleyID,
		Kind:      domain.ActivityAlert,
		Outcome:   domain.StatusWarning,
		Message:   alert.Message,
		At:        alert.RaisedAt,
	})
}

// List returns the newest activities of trolleyID first.
func (j *Journal) List(ctx context.Context, trolleyID string, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, trolley_id, kind, barcode, outcome, message, code, at_unix_ms
		FROM activities
		WHERE trolley_id = ?
		ORDER BY at_unix_ms DESC, id DESC
		LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, trolleyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			a       domain.Activity
			kind    string
			outcome string
			atMs    int64
		)
		if err := rows.Scan(&a.ID, &a.TrolleyID, &kind, &a.Barcode, &outcome, &a.Message, &a.Code, &atMs); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Kind = domain.ActivityKind(kind)
		a.Outcome = domain.StatusKind(outcome)
		a.At = time.UnixMilli(atMs)
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return activities, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
