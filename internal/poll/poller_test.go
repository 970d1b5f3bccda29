package poll

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trenostat/poller/internal/config"
	"github.com/trenostat/poller/internal/db"
	"github.com/trenostat/poller/internal/station"
	"github.com/trenostat/poller/internal/viaggiatreno"
)

// fakeUpstream serves station boards and run tracking for two trains:
// 9544 is trackable, 777 always fails its detail fetch.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/partenze/S01700/"):
			w.Write([]byte(`[
				{"numeroTreno": 9544, "codOrigine": "S01700", "categoriaDescrizione": "FR", "nonPartito": false, "provvedimento": 0},
				{"numeroTreno": 777, "codOrigine": "S01700", "categoriaDescrizione": "REG", "nonPartito": false, "provvedimento": 0}
			]`))
		case strings.HasPrefix(r.URL.Path, "/arrivi/S01700/"):
			// Same train again; deduplication must collapse it.
			w.Write([]byte(`[
				{"numeroTreno": 9544, "codOrigine": "S01700", "categoriaDescrizione": "FR", "nonPartito": false, "provvedimento": 0}
			]`))
		case strings.HasPrefix(r.URL.Path, "/andamentoTreno/S01700/9544/"):
			w.Write([]byte(`{"idDestinazione": "S08409", "categoria": "FR", "nonPartito": false,
				"provvedimento": 0, "ritardo": 9, "stazioneUltimoRilevamento": "BOLOGNA CENTRALE",
				"oraUltimoRilevamento": 1700000000000}`))
		case strings.HasPrefix(r.URL.Path, "/andamentoTreno/S01700/777/"):
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected upstream path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testPoller(t *testing.T, upstream string) (*Poller, *db.DB) {
	t.Helper()

	database, err := db.Connect(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	policy := viaggiatreno.DefaultRetryPolicy()
	policy.BackoffFactor = 0
	api := viaggiatreno.NewClient(
		viaggiatreno.WithBaseURL(upstream),
		viaggiatreno.WithRetryPolicy(policy),
	)

	stations := station.NewStatic(
		station.Station{Code: "S01700", Name: "MILANO CENTRALE"},
		station.Station{Code: "S08409", Name: "ROMA TERMINI"},
	)

	cfg := &config.Config{
		Stations:     []string{"S01700"},
		FetchWorkers: 2,
	}

	return NewPoller(api, stations, database, cfg), database
}

func TestPollCycle(t *testing.T) {
	srv := fakeUpstream(t)
	defer srv.Close()

	poller, database := testPoller(t, srv.URL)
	ctx := context.Background()

	if err := poller.Poll(ctx); err != nil {
		t.Fatalf("Poll failed: %v", err)
	}

	var count int
	if err := database.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM rt_train_current").Scan(&count); err != nil {
		t.Fatalf("counting trains: %v", err)
	}
	if count != 2 {
		t.Errorf("stored %d trains, want 2 after deduplication", count)
	}

	var phantom bool
	var delay *int
	err := database.Conn().QueryRowContext(ctx,
		"SELECT phantom, delay_minutes FROM rt_train_current WHERE train_key = ?",
		db.TrainKey(9544, "S01700")).Scan(&phantom, &delay)
	if err != nil {
		t.Fatalf("reading tracked train: %v", err)
	}
	if phantom {
		t.Error("tracked train stored as phantom")
	}
	if delay == nil || *delay != 9 {
		t.Errorf("delay = %v, want 9", delay)
	}

	err = database.Conn().QueryRowContext(ctx,
		"SELECT phantom, delay_minutes FROM rt_train_current WHERE train_key = ?",
		db.TrainKey(777, "S01700")).Scan(&phantom, &delay)
	if err != nil {
		t.Fatalf("reading phantom train: %v", err)
	}
	if !phantom {
		t.Error("untrackable train not stored as phantom")
	}
	if delay != nil {
		t.Errorf("phantom delay = %v, want null", *delay)
	}

	stats, err := database.GetDelayStats(ctx, "FR")
	if err != nil {
		t.Fatalf("GetDelayStats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].ObservationCount != 1 || stats[0].MeanMinutes != 9 {
		t.Errorf("delay stats = %+v", stats)
	}

	var snapshots int
	if err := database.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM rt_snapshots").Scan(&snapshots); err != nil {
		t.Fatalf("counting snapshots: %v", err)
	}
	if snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", snapshots)
	}
}

func TestPollBoardFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	poller, database := testPoller(t, srv.URL)
	ctx := context.Background()

	if err := poller.Poll(ctx); err != nil {
		t.Fatalf("Poll must survive failing boards, got: %v", err)
	}

	var count int
	if err := database.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM rt_train_current").Scan(&count); err != nil {
		t.Fatalf("counting trains: %v", err)
	}
	if count != 0 {
		t.Errorf("stored %d trains, want 0", count)
	}
}
