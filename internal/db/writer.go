package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSnapshot creates a new snapshot record and returns its ID
func (db *DB) CreateSnapshot(ctx context.Context, polledAt time.Time) (string, error) {
	snapshotID := uuid.New().String()
	polledAtStr := polledAt.UTC().Format(time.RFC3339)

	db.LockWrite()
	defer db.UnlockWrite()

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO rt_snapshots (snapshot_id, polled_at_utc) VALUES (?, ?)",
		snapshotID, polledAtStr,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	return snapshotID, nil
}

// TrainRecord is the flat row a completed or phantom train flattens
// into for storage and downstream consumers.
type TrainRecord struct {
	Key                string
	Number             int
	OriginCode         string
	OriginName         string
	DestinationCode    *string
	DestinationName    *string
	Category           *string
	Departed           bool
	Cancelled          bool
	Phantom            bool
	DelayMinutes       *int
	LastDetectionPlace *string
	LastDetectionTime  *time.Time
}

// TrainKey builds the storage key of a train from its identity.
func TrainKey(number int, originCode string) string {
	return fmt.Sprintf("%d@%s", number, originCode)
}

// UpsertTrains writes one poll cycle's train records: the current
// table is upserted, the history table appended.
func (db *DB) UpsertTrains(ctx context.Context, snapshotID string, polledAt time.Time, records []TrainRecord) error {
	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	polledAtStr := polledAt.UTC().Format(time.RFC3339)

	currentStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rt_train_current (
			train_key, snapshot_id, number, origin_code, origin_name,
			destination_code, destination_name, category, departed,
			cancelled, phantom, delay_minutes, last_detection_place,
			last_detection_time_utc, polled_at_utc, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (train_key) DO UPDATE SET
			snapshot_id = excluded.snapshot_id,
			destination_code = excluded.destination_code,
			destination_name = excluded.destination_name,
			category = excluded.category,
			departed = excluded.departed,
			cancelled = excluded.cancelled,
			phantom = excluded.phantom,
			delay_minutes = excluded.delay_minutes,
			last_detection_place = excluded.last_detection_place,
			last_detection_time_utc = excluded.last_detection_time_utc,
			polled_at_utc = excluded.polled_at_utc,
			updated_at = datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare current statement: %w", err)
	}
	defer currentStmt.Close()

	historyStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO rt_train_history (
			train_key, snapshot_id, number, origin_code, origin_name,
			destination_code, destination_name, category, departed,
			cancelled, phantom, delay_minutes, last_detection_place,
			last_detection_time_utc, polled_at_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history statement: %w", err)
	}
	defer historyStmt.Close()

	for _, r := range records {
		var lastTime *string
		if r.LastDetectionTime != nil {
			s := r.LastDetectionTime.UTC().Format(time.RFC3339)
			lastTime = &s
		}

		args := []interface{}{
			r.Key, snapshotID, r.Number, r.OriginCode, r.OriginName,
			r.DestinationCode, r.DestinationName, r.Category, r.Departed,
			r.Cancelled, r.Phantom, r.DelayMinutes, r.LastDetectionPlace,
			lastTime, polledAtStr,
		}

		if _, err := currentStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert train %s: %w", r.Key, err)
		}
		if _, err := historyStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert history %s: %w", r.Key, err)
		}
	}

	return tx.Commit()
}
