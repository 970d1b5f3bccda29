package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/trenostat/poller/internal/config"
	"github.com/trenostat/poller/internal/db"
	"github.com/trenostat/poller/internal/metrics"
	"github.com/trenostat/poller/internal/poll"
	"github.com/trenostat/poller/internal/station"
	"github.com/trenostat/poller/internal/viaggiatreno"
)

func main() {
	log.Println("Starting trenostat poller...")

	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(cfg.Stations) == 0 {
		log.Fatal("No stations configured: set POLL_STATIONS or a TRENOSTAT_CONFIG file")
	}
	log.Printf("Config loaded: %d stations, poll_interval=%v, retention=%v",
		len(cfg.Stations), cfg.PollInterval, cfg.RetentionDuration)

	// Station directory: external dataset if configured, bundled one
	// otherwise.
	directory := station.Default()
	if cfg.StationsFile != "" {
		loaded, err := station.FromFile(cfg.StationsFile)
		if err != nil {
			log.Printf("Warning: failed to load station dataset (using bundled one): %v", err)
		} else {
			directory = loaded
		}
	}
	log.Printf("Station directory ready (%d stations)", directory.Len())

	database, err := db.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}

	metrics.Init()

	var opts []viaggiatreno.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, viaggiatreno.WithBaseURL(cfg.BaseURL))
	}
	api := viaggiatreno.NewClient(opts...)

	poller := poll.NewPoller(api, directory, database, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Running initial poll...")
	pollOnce(ctx, poller, database, cfg)

	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pollOnce(ctx, poller, database, cfg)
			case <-ctx.Done():
				log.Println("Polling loop stopped")
				return
			}
		}
	}()

	log.Printf("Poller running (poll every %v, retain %v)", cfg.PollInterval, cfg.RetentionDuration)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()

	// Give goroutines time to finish
	time.Sleep(100 * time.Millisecond)
	log.Println("Goodbye!")
}

func pollOnce(ctx context.Context, poller *poll.Poller, database *db.DB, cfg *config.Config) {
	if err := poller.Poll(ctx); err != nil {
		log.Printf("Poll error: %v", err)
	}

	if err := database.Cleanup(ctx, cfg.RetentionDuration); err != nil {
		log.Printf("Cleanup error: %v", err)
	}
}
