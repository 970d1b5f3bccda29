package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRepository reads the poller's SQLite store.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the store read-side.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping checks store connectivity.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const trainColumns = `
	train_key, number, origin_code, origin_name,
	destination_code, destination_name, category,
	departed, cancelled, phantom, delay_minutes,
	last_detection_place, last_detection_time_utc, polled_at_utc
`

// parseTimeString converts an RFC3339 string to *time.Time. Returns
// nil if the input is nil, empty or malformed.
func parseTimeString(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

func scanTrain(scan func(dest ...any) error) (*Train, error) {
	var t Train
	var lastTime *string
	var polledAt string

	err := scan(
		&t.Key, &t.Number, &t.OriginCode, &t.OriginName,
		&t.DestinationCode, &t.DestinationName, &t.Category,
		&t.Departed, &t.Cancelled, &t.Phantom, &t.DelayMinutes,
		&t.LastDetectionPlace, &lastTime, &polledAt,
	)
	if err != nil {
		return nil, err
	}

	t.LastDetectionTimeUTC = parseTimeString(lastTime)
	if ts := parseTimeString(&polledAt); ts != nil {
		t.PolledAtUTC = *ts
	}
	return &t, nil
}

// GetAllTrains returns the current state of every observed train.
func (r *SQLiteRepository) GetAllTrains(ctx context.Context) ([]Train, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+trainColumns+" FROM rt_train_current ORDER BY train_key")
	if err != nil {
		return nil, fmt.Errorf("failed to query trains: %w", err)
	}
	defer rows.Close()

	var trains []Train
	for rows.Next() {
		t, err := scanTrain(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan train row: %w", err)
		}
		trains = append(trains, *t)
	}

	return trains, rows.Err()
}

// GetTrainByKey returns one train by its number@origin key.
func (r *SQLiteRepository) GetTrainByKey(ctx context.Context, key string) (*Train, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+trainColumns+" FROM rt_train_current WHERE train_key = ?", key)

	t, err := scanTrain(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("train %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query train: %w", err)
	}
	return t, nil
}

// GetDelayStats returns hourly delay aggregates, optionally filtered
// by category.
func (r *SQLiteRepository) GetDelayStats(ctx context.Context, category string) ([]DelayStat, error) {
	query := `
		SELECT category, hour_bucket, observation_count, delay_mean_minutes,
			delay_m2, delayed_count, on_time_count, max_delay_minutes
		FROM stats_delay_hourly
	`
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY hour_bucket DESC, category"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query delay stats: %w", err)
	}
	defer rows.Close()

	var stats []DelayStat
	for rows.Next() {
		var s DelayStat
		var m2 float64
		if err := rows.Scan(&s.Category, &s.HourBucket, &s.ObservationCount,
			&s.MeanMinutes, &m2, &s.DelayedCount, &s.OnTimeCount, &s.MaxDelayMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan delay stat: %w", err)
		}
		s.StdDevMinutes = stddevFromM2(m2, s.ObservationCount)
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

func stddevFromM2(m2 float64, count int) float64 {
	if count < 2 {
		return 0
	}
	return math.Sqrt(m2 / float64(count))
}
