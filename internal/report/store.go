// Package report persists abuse reports to Postgres so moderators can review
// what happened in a room after the fact. Each report captures both parties
// and the last few relayed messages at the time of the report.
package report

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Valid report reasons accepted from clients.
var validReasons = map[string]bool{
	"harassment": true,
	"spam":       true,
	"hate":       true,
	"sexual":     true,
	"threat":     true,
	"other":      true,
}

// IsValidReason reports whether reason is an accepted report category.
func IsValidReason(reason string) bool {
	return validReasons[reason]
}

// Message is one relayed message included as evidence with a report.
type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
}

// Report is one stored abuse report.
type Report struct {
	ID         string
	ReporterID string
	ReportedID string
	RoomID     string
	Reason     string
	Messages   []Message
	CreatedAt  time.Time
}

// Store wraps the Postgres connection for report persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres connection, runs pending migrations and returns
// a ready store.
func NewStore(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("report db open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("report db ping: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("report migrations source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("report migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("report migrations init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("report migrations up: %w", err)
	}
	return nil
}

// Create validates and inserts a new report, returning its generated ID.
func (s *Store) Create(ctx context.Context, r Report) (string, error) {
	if !IsValidReason(r.Reason) {
		return "", fmt.Errorf("report: invalid reason %q", r.Reason)
	}
	if r.ReporterID == "" || r.ReportedID == "" {
		return "", errors.New("report: reporter and reported ids required")
	}

	id := uuid.New().String()
	msgs, err := json.Marshal(r.Messages)
	if err != nil {
		return "", fmt.Errorf("report messages marshal: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO abuse_reports (id, reporter_id, reported_id, room_id, reason, messages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		id, r.ReporterID, r.ReportedID, r.RoomID, r.Reason, msgs)
	if err != nil {
		return "", fmt.Errorf("report insert: %w", err)
	}
	return id, nil
}

// CountRecent returns how many reports were filed against the user within
// the given window.
func (s *Store) CountRecent(ctx context.Context, reportedID string, window time.Duration) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM abuse_reports
		WHERE reported_id = $1 AND created_at > NOW() - make_interval(secs => $2)`,
		reportedID, window.Seconds()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("report count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
