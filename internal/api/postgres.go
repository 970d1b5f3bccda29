package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository reads a Postgres mirror of the store, for
// deployments where the poller replicates into a shared database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the given DSN.
func NewPostgresRepository(databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Close releases the pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks store connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const pgTrainColumns = `
	train_key, number, origin_code, origin_name,
	destination_code, destination_name, category,
	departed, cancelled, phantom, delay_minutes,
	last_detection_place, last_detection_time_utc, polled_at_utc
`

// GetAllTrains returns the current state of every observed train.
func (r *PostgresRepository) GetAllTrains(ctx context.Context) ([]Train, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+pgTrainColumns+" FROM rt_train_current ORDER BY train_key")
	if err != nil {
		return nil, fmt.Errorf("failed to query trains: %w", err)
	}
	defer rows.Close()

	var trains []Train
	for rows.Next() {
		var t Train
		err := rows.Scan(
			&t.Key, &t.Number, &t.OriginCode, &t.OriginName,
			&t.DestinationCode, &t.DestinationName, &t.Category,
			&t.Departed, &t.Cancelled, &t.Phantom, &t.DelayMinutes,
			&t.LastDetectionPlace, &t.LastDetectionTimeUTC, &t.PolledAtUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan train row: %w", err)
		}
		trains = append(trains, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating train rows: %w", err)
	}
	return trains, nil
}

// GetTrainByKey returns one train by its number@origin key.
func (r *PostgresRepository) GetTrainByKey(ctx context.Context, key string) (*Train, error) {
	var t Train
	err := r.pool.QueryRow(ctx,
		"SELECT "+pgTrainColumns+" FROM rt_train_current WHERE train_key = $1", key).Scan(
		&t.Key, &t.Number, &t.OriginCode, &t.OriginName,
		&t.DestinationCode, &t.DestinationName, &t.Category,
		&t.Departed, &t.Cancelled, &t.Phantom, &t.DelayMinutes,
		&t.LastDetectionPlace, &t.LastDetectionTimeUTC, &t.PolledAtUTC,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("train %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query train: %w", err)
	}
	return &t, nil
}

// GetDelayStats returns hourly delay aggregates, optionally filtered
// by category.
func (r *PostgresRepository) GetDelayStats(ctx context.Context, category string) ([]DelayStat, error) {
	query := `
		SELECT category, hour_bucket, observation_count, delay_mean_minutes,
			delay_m2, delayed_count, on_time_count, max_delay_minutes
		FROM stats_delay_hourly
	`
	var args []any
	if category != "" {
		query += " WHERE category = $1"
		args = append(args, category)
	}
	query += " ORDER BY hour_bucket DESC, category"

	rows, err := r.pool.Query(ctx, query, args...)
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
