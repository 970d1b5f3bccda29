// Command export-trains dumps the stored train records as JSON, one
// flat record per train, for downstream tabular processing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/trenostat/poller/internal/api"
)

func main() {
	dbPath := flag.String("db", "/data/trenostat.db", "Path to the poller's SQLite store")
	output := flag.String("output", "-", "Output file, - for stdout")
	flag.Parse()

	repo, err := api.NewSQLiteRepository(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer repo.Close()

	trains, err := repo.GetAllTrains(context.Background())
	if err != nil {
		log.Fatalf("Failed to read trains: %v", err)
	}

	out := os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(trains); err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}

	log.Printf("Exported %d trains", len(trains))
}
