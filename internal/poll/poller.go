package poll

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/trenostat/poller/internal/config"
	"github.com/trenostat/poller/internal/db"
	"github.com/trenostat/poller/internal/metrics"
	"github.com/trenostat/poller/internal/station"
	"github.com/trenostat/poller/internal/train"
	"github.com/trenostat/poller/internal/viaggiatreno"
)

// Poller drives one acquisition cycle: station boards, per-train
// detail fetches, one storage snapshot.
type Poller struct {
	api      *viaggiatreno.Client
	stations station.Directory
	database *db.DB
	cfg      *config.Config
}

// NewPoller creates a poller over the given client, directory and
// store.
func NewPoller(api *viaggiatreno.Client, stations station.Directory, database *db.DB, cfg *config.Config) *Poller {
	return &Poller{
		api:      api,
		stations: stations,
		database: database,
		cfg:      cfg,
	}
}

// Poll fetches boards for every configured station, detail-fetches the
// trains through a bounded worker pool, and writes a snapshot. A
// single failing board is logged and skipped; it never aborts the
// cycle.
func (p *Poller) Poll(ctx context.Context) error {
	start := time.Now()
	polledAt := start.UTC()

	trains := p.collectBoards(ctx)
	if len(trains) == 0 {
		log.Println("Poll: no trains on any board")
		return nil
	}

	p.fetchDetails(ctx, trains)

	snapshotID, err := p.database.CreateSnapshot(ctx, polledAt)
	if err != nil {
		return err
	}

	records := make([]db.TrainRecord, 0, len(trains))
	var observations []db.DelayObservation
	phantoms := 0
	for _, t := range trains {
		records = append(records, toRecord(t))

		if t.State() == train.Phantom {
			phantoms++
			continue
		}
		if delay, ok := t.Delay(); ok {
			observations = append(observations, db.DelayObservation{
				Category:     t.Category(),
				DelayMinutes: delay,
			})
		}
	}

	if err := p.database.UpsertTrains(ctx, snapshotID, polledAt, records); err != nil {
		return err
	}

	if err := p.database.UpdateDelayStats(ctx, observations); err != nil {
		// Non-fatal: the snapshot itself is already written.
		log.Printf("Poll: failed to update delay stats (continuing): %v", err)
	}

	metrics.ObservePoll(time.Since(start), len(trains), phantoms)
	log.Printf("Poll: stored %d trains (%d phantom) across %d stations",
		len(records), phantoms, len(p.cfg.Stations))
	return nil
}

// collectBoards gathers departures and arrivals for every configured
// station, deduplicated by train identity.
func (p *Poller) collectBoards(ctx context.Context) []*train.Train {
	var trains []*train.Train
	seen := make(map[string]bool)

	add := func(list []*train.Train) {
		for _, t := range list {
			key := db.TrainKey(t.Number, t.Origin.Code)
			if seen[key] {
				continue
			}
			seen[key] = true
			trains = append(trains, t)
		}
	}

	for _, code := range p.cfg.Stations {
		departures, err := train.Departures(ctx, p.api, p.stations, code)
		if err != nil {
			log.Printf("Poll: departures of %s failed: %v", code, err)
			metrics.IncBoardError("partenze")
		} else {
			add(departures)
		}

		arrivals, err := train.Arrivals(ctx, p.api, p.stations, code)
		if err != nil {
			log.Printf("Poll: arrivals of %s failed: %v", code, err)
			metrics.IncBoardError("arrivi")
		} else {
			add(arrivals)
		}
	}

	return trains
}

// fetchDetails runs the per-train detail fetches through a bounded
// worker pool. Each train owns its state exclusively, so the only
// shared resource is the client, which is safe for concurrent use.
func (p *Poller) fetchDetails(ctx context.Context, trains []*train.Train) {
	workers := p.cfg.FetchWorkers
	if workers <= 0 {
		workers = 4
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, t := range trains {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(t *train.Train) {
			defer wg.Done()
			defer func() { <-sem }()
			t.Fetch(ctx)
		}(t)
	}

	wg.Wait()
}

// toRecord flattens a train into its storage row.
func toRecord(t *train.Train) db.TrainRecord {
	r := db.TrainRecord{
		Key:        db.TrainKey(t.Number, t.Origin.Code),
		Number:     t.Number,
		OriginCode: t.Origin.Code,
		OriginName: t.Origin.Name,
		Departed:   t.Departed(),
		Cancelled:  t.Cancelled(),
		Phantom:    t.State() == train.Phantom,
	}

	if c := t.Category(); c != "" {
		r.Category = &c
	}
	if dest, ok := t.Destination(); ok {
		r.DestinationCode = &dest.Code
		r.DestinationName = &dest.Name
	}
	if delay, ok := t.Delay(); ok {
		r.DelayMinutes = &delay
	}
	if place, ok := t.LastDetectionPlace(); ok {
		r.LastDetectionPlace = &place
	}
	if ts, ok := t.LastDetectionTime(); ok {
		r.LastDetectionTime = &ts
	}

	return r
}
