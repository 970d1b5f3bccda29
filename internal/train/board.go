package train

import (
	"context"
	"time"

	"github.com/trenostat/poller/internal/station"
	"github.com/trenostat/poller/internal/viaggiatreno"
)

// Departures lists the trains currently departing from a station, in
// Listed state.
func Departures(ctx context.Context, api *viaggiatreno.Client, stations station.Directory, stationCode string) ([]*Train, error) {
	entries, err := api.Departures(ctx, stationCode, time.Now())
	if err != nil {
		return nil, err
	}
	return fromEntries(api, stations, entries)
}

// Arrivals lists the trains currently arriving at a station, in Listed
// state.
func Arrivals(ctx context.Context, api *viaggiatreno.Client, stations station.Directory, stationCode string) ([]*Train, error) {
	entries, err := api.Arrivals(ctx, stationCode, time.Now())
	if err != nil {
		return nil, err
	}
	return fromEntries(api, stations, entries)
}

func fromEntries(api *viaggiatreno.Client, stations station.Directory, entries []viaggiatreno.BoardEntry) ([]*Train, error) {
	trains := make([]*Train, 0, len(entries))
	for _, entry := range entries {
		t, err := FromBoard(api, stations, entry)
		if err != nil {
			return nil, err
		}
		trains = append(trains, t)
	}
	return trains, nil
}
