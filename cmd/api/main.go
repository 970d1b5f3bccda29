package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/trenostat/poller/internal/api"
	"github.com/trenostat/poller/internal/config"
	"github.com/trenostat/poller/internal/metrics"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Postgres when a DSN is configured, the poller's SQLite store
	// otherwise.
	var repo api.Repository
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to Postgres store")
		repo, err = api.NewPostgresRepository(cfg.DatabaseURL)
	} else {
		log.Printf("Connecting to SQLite store: %s", cfg.DatabasePath)
		repo, err = api.NewSQLiteRepository(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer repo.Close()

	metrics.Init()
	handler := api.NewHandler(repo)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", handler.Health)
	r.Get("/api/trains", handler.GetAllTrains)
	r.Get("/api/trains/{trainKey}", handler.GetTrainByKey)
	r.Get("/api/stats/delays", handler.GetDelayStats)
	r.Handle("/metrics", metrics.Handler())

	log.Printf("API server starting on :%s", cfg.Port)
	log.Println("  GET /api/trains")
	log.Println("  GET /api/trains/{trainKey}")
	log.Println("  GET /api/stats/delays")
	log.Println("  GET /health")
	log.Println("  GET /metrics")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
