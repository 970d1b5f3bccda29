package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/trenostat/poller/internal/db"
)

// seededRepo writes a poll cycle through the store's write side and
// opens the read side on the same file.
func seededRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := db.Connect(path)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	polledAt := time.Now()
	snapshotID, err := database.CreateSnapshot(ctx, polledAt)
	if err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	destCode := "S08409"
	destName := "ROMA TERMINI"
	category := "FR"
	delay := 9
	place := "BOLOGNA CENTRALE"
	detected := time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC)
	records := []db.TrainRecord{
		{
			Key: db.TrainKey(9544, "S01700"), Number: 9544,
			OriginCode: "S01700", OriginName: "MILANO CENTRALE",
			DestinationCode: &destCode, DestinationName: &destName,
			Category: &category, Departed: true,
			DelayMinutes: &delay, LastDetectionPlace: &place,
			LastDetectionTime: &detected,
		},
		{
			Key: db.TrainKey(100, "S01700"), Number: 100,
			OriginCode: "S01700", OriginName: "MILANO CENTRALE",
			Phantom: true,
		},
	}
	if err := database.UpsertTrains(ctx, snapshotID, polledAt, records); err != nil {
		t.Fatalf("UpsertTrains failed: %v", err)
	}
	if err := database.UpdateDelayStats(ctx, []db.DelayObservation{{Category: "FR", DelayMinutes: 9}}); err != nil {
		t.Fatalf("UpdateDelayStats failed: %v", err)
	}

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteGetAllTrains(t *testing.T) {
	repo := seededRepo(t)

	trains, err := repo.GetAllTrains(context.Background())
	if err != nil {
		t.Fatalf("GetAllTrains failed: %v", err)
	}
	if len(trains) != 2 {
		t.Fatalf("got %d trains, want 2", len(trains))
	}

	// Order is by key, so 100@S01700 sorts before 9544@S01700.
	phantom := trains[0]
	if !phantom.Phantom || phantom.DelayMinutes != nil || phantom.DestinationCode != nil {
		t.Errorf("phantom row = %+v", phantom)
	}

	fr := trains[1]
	if fr.Category == nil || *fr.Category != "FR" {
		t.Errorf("category = %v", fr.Category)
	}
	if fr.DelayMinutes == nil || *fr.DelayMinutes != 9 {
		t.Errorf("delay = %v", fr.DelayMinutes)
	}
	if fr.LastDetectionTimeUTC == nil {
		t.Error("LastDetectionTimeUTC = nil")
	} else if !fr.LastDetectionTimeUTC.Equal(time.Date(2023, time.November, 14, 22, 13, 20, 0, time.UTC)) {
		t.Errorf("LastDetectionTimeUTC = %v", fr.LastDetectionTimeUTC)
	}
}

func TestSQLiteGetTrainByKey(t *testing.T) {
	repo := seededRepo(t)
	ctx := context.Background()

	train, err := repo.GetTrainByKey(ctx, "9544@S01700")
	if err != nil {
		t.Fatalf("GetTrainByKey failed: %v", err)
	}
	if train.Number != 9544 || train.OriginName != "MILANO CENTRALE" {
		t.Errorf("train = %+v", train)
	}

	_, err = repo.GetTrainByKey(ctx, "1@S99999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteGetDelayStats(t *testing.T) {
	repo := seededRepo(t)

	stats, err := repo.GetDelayStats(context.Background(), "FR")
	if err != nil {
		t.Fatalf("GetDelayStats failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d stats, want 1", len(stats))
	}
	if stats[0].ObservationCount != 1 || stats[0].MeanMinutes != 9 {
		t.Errorf("stat = %+v", stats[0])
	}
}
