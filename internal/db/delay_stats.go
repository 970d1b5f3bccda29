package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trenostat/poller/internal/metrics"
)

// DelayThresholdMinutes is the threshold for a train to be considered
// "delayed".
const DelayThresholdMinutes = 5

// DelayObservation is a single delay measurement for a train category.
type DelayObservation struct {
	Category     string
	DelayMinutes int
}

// DelayStat is one hourly aggregate row.
type DelayStat struct {
	Category         string
	HourBucket       string
	ObservationCount int
	MeanMinutes      float64
	StdDevMinutes    float64
	DelayedCount     int
	OnTimeCount      int
	MaxDelayMinutes  int
}

// UpdateDelayStats folds delay observations into the hourly aggregates
// using Welford's online algorithm, resuming from the stored state.
func (db *DB) UpdateDelayStats(ctx context.Context, observations []DelayObservation) error {
	if len(observations) == 0 {
		return nil
	}

	byCategory := make(map[string][]int)
	for _, obs := range observations {
		if obs.Category == "" {
			continue
		}
		byCategory[obs.Category] = append(byCategory[obs.Category], obs.DelayMinutes)
	}
	if len(byCategory) == 0 {
		return nil
	}

	hourBucket := time.Now().UTC().Truncate(time.Hour).Format(time.RFC3339)

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for category, delays := range byCategory {
		var count int
		var mean, m2 float64
		var delayedCount, onTimeCount, maxDelay int

		err := tx.QueryRowContext(ctx, `
			SELECT observation_count, delay_mean_minutes, delay_m2,
				delayed_count, on_time_count, max_delay_minutes
			FROM stats_delay_hourly
			WHERE category = ? AND hour_bucket = ?
		`, category, hourBucket).Scan(&count, &mean, &m2, &delayedCount, &onTimeCount, &maxDelay)

		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to read delay stats for %s: %w", category, err)
		}

		w := &metrics.WelfordState{Count: count, Mean: mean, M2: m2}
		for _, delay := range delays {
			w.Update(float64(delay))

			if delay > DelayThresholdMinutes {
				delayedCount++
			} else {
				onTimeCount++
			}
			if delay > maxDelay {
				maxDelay = delay
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stats_delay_hourly (category, hour_bucket, observation_count,
				delay_mean_minutes, delay_m2, delayed_count, on_time_count, max_delay_minutes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (category, hour_bucket) DO UPDATE SET
				observation_count = excluded.observation_count,
				delay_mean_minutes = excluded.delay_mean_minutes,
				delay_m2 = excluded.delay_m2,
				delayed_count = excluded.delayed_count,
				on_time_count = excluded.on_time_count,
				max_delay_minutes = excluded.max_delay_minutes
		`, category, hourBucket, w.Count, w.Mean, w.M2, delayedCount, onTimeCount, maxDelay)
		if err != nil {
			return fmt.Errorf("failed to upsert delay stats for %s: %w", category, err)
		}
	}

	return tx.Commit()
}

// GetDelayStats returns hourly aggregates, optionally filtered by
// category, newest bucket first.
func (db *DB) GetDelayStats(ctx context.Context, category string) ([]DelayStat, error) {
	query := `
		SELECT category, hour_bucket, observation_count, delay_mean_minutes,
			delay_m2, delayed_count, on_time_count, max_delay_minutes
		FROM stats_delay_hourly
	`
	var args []interface{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY hour_bucket DESC, category"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query delay stats: %w", err)
	}
	defer rows.Close()

	var stats []DelayStat
	for rows.Next() {
		var s DelayStat
		var m2 float64
		if err := rows.Scan(&s.Category, &s.HourBucket, &s.ObservationCount, &s.MeanMinutes,
			&m2, &s.DelayedCount, &s.OnTimeCount, &s.MaxDelayMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan delay stat: %w", err)
		}
		w := metrics.WelfordState{Count: s.ObservationCount, Mean: s.MeanMinutes, M2: m2}
		s.StdDevMinutes = w.StdDev()
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
