// Package sqlite persists reports in a single-file SQLite database. The
// schema is embedded and initialized on open, so a fresh deployment
// needs no migration step.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sitehealth/audit-service/internal/model"
	"github.com/sitehealth/audit-service/internal/platform/errs"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

CREATE TABLE IF NOT EXISTS reports (
    id              TEXT PRIMARY KEY,
    url             TEXT NOT NULL,
    page_title      TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL,
    summary_json    TEXT NOT NULL,
    metrics_json    TEXT NOT NULL,
    recommendations TEXT NOT NULL,
    raw_json        BLOB NOT NULL,
    html            TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

// Store is a report document store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts an assembled report. Reports are immutable; a duplicate
// id is an error, never an update.
func (s *Store) Save(ctx context.Context, r *model.Report) error {
	summary, err := json.Marshal(r.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, url, page_title, created_at, summary_json, metrics_json, recommendations, raw_json, html)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.URL,
		r.PageTitle,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		string(summary),
		string(metrics),
		r.Recommendations,
		[]byte(r.FullReport.JSON),
		r.FullReport.HTML,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// FindByID loads a full report, including the raw audit artifacts.
func (s *Store) FindByID(ctx context.Context, id string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, page_title, created_at, summary_json, metrics_json, recommendations, raw_json, html
		FROM reports WHERE id = ?`, id)

	var (
		r         model.Report
		createdAt string
		summary   string
		metrics   string
		raw       []byte
	)
	err := row.Scan(&r.ID, &r.URL, &r.PageTitle, &createdAt, &summary, &metrics, &r.Recommendations, &raw, &r.FullReport.HTML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &errs.AppError{Kind: errs.NotFound, Message: "Report not found."}
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	if r.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse report timestamp: %w", err)
	}
	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	r.FullReport.JSON = json.RawMessage(raw)
	return &r, nil
}

// List returns the projection for the report overview, newest first.
// The raw artifacts and metrics stay out of the result on purpose.
func (s *Store) List(ctx context.Context) ([]model.ReportListItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, page_title, created_at, summary_json
		FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.ReportListItem
	for rows.Next() {
		var (
			item      model.ReportListItem
			createdAt string
			summary   string
		)
		if err := rows.Scan(&item.ID, &item.URL, &item.PageTitle, &createdAt, &summary); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		if item.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse report timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(summary), &item.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
