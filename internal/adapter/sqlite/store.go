// Package sqlite stores reports in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ParthDhavan04/Disaster-info-backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	text          TEXT NOT NULL,
	disaster_type TEXT NOT NULL,
	disaster_prob REAL NOT NULL,
	severity      TEXT NOT NULL,
	severity_prob REAL NOT NULL,
	lat           REAL,
	lon           REAL,
	location_text TEXT,
	confidence    REAL NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

// Store implements pipeline.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveReport inserts a report.
func (s *Store) SaveReport(ctx context.Context, r domain.Report) error {
	var lat, lon sql.NullFloat64
	if r.Location != nil {
		c := r.Location.LatLon()
		lat = sql.NullFloat64{Float64: c.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: c.Lon, Valid: true}
	}
	var place sql.NullString
	if r.LocationText != nil {
		place = sql.NullString{String: *r.LocationText, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, text, disaster_type, disaster_prob, severity, severity_prob, lat, lon, location_text, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Text, r.DisasterType, r.DisasterProb, r.Severity, r.SeverityProb,
		lat, lon, place, r.Confidence, r.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// RecentReports returns up to limit reports, newest first.
func (s *Store) RecentReports(ctx context.Context, limit int) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, disaster_type, disaster_prob, severity, severity_prob, lat, lon, location_text, confidence, created_at
		 FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := make([]domain.Report, 0, limit)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func scanReport(rows *sql.Rows) (domain.Report, error) {
	var (
		r        domain.Report
		lat, lon sql.NullFloat64
		place    sql.NullString
		created  int64
	)
	err := rows.Scan(&r.ID, &r.Text, &r.DisasterType, &r.DisasterProb, &r.Severity, &r.SeverityProb,
		&lat, &lon, &place, &r.Confidence, &created)
	if err != nil {
		return domain.Report{}, fmt.Errorf("scan report: %w", err)
	}
	if lat.Valid && lon.Valid {
		point := domain.NewGeoPoint(domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64})
		r.Location = &point
	}
	if place.Valid {
		r.LocationText = &place.String
	}
	r.Timestamp = time.Unix(0, created).UTC()
	return r, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
