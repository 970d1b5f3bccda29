package api

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested train does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the read operations the API serves. Implemented
// for SQLite (the poller's own store) and Postgres (a mirrored store).
type Repository interface {
	GetAllTrains(ctx context.Context) ([]Train, error)
	GetTrainByKey(ctx context.Context, key string) (*Train, error)
	GetDelayStats(ctx context.Context, category string) ([]DelayStat, error)
	Ping(ctx context.Context) error
	Close() error
}
