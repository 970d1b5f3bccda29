package train

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trenostat/poller/internal/station"
	"github.com/trenostat/poller/internal/viaggiatreno"
)

// State tags how much of a train's lifecycle has been observed.
type State int

const (
	// Listed means only the cheap board fetch has populated the train.
	Listed State = iota
	// Detailed means the run-tracking fetch succeeded; extended fields
	// may be read (though some may still be absent).
	Detailed
	// Phantom means the run-tracking fetch failed outright; no
	// extended data exists. Some trains (especially cancelled ones)
	// cannot be tracked at all and stay phantom forever.
	Phantom
)

func (s State) String() string {
	switch s {
	case Listed:
		return "listed"
	case Detailed:
		return "detailed"
	case Phantom:
		return "phantom"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Train is a single train observed on a station board, progressively
// enriched by the run-tracking endpoint. Identity (Number, Origin)
// never changes after construction. A Train owns its mutable state
// exclusively: distinct trains may be fetched concurrently, but a
// single Train must not be.
type Train struct {
	Number int
	Origin *station.Station

	api      *viaggiatreno.Client
	stations station.Directory

	state f
}

// New creates a train in Listed state with only its identity set.
func New(api *viaggiatreno.Client, stations station.Directory, number int, origin *station.Station) *Train {
	return &Train{
		Number:   number,
		Origin:   origin,
		api:      api,
		stations: stations,
	}
}

// FromBoard creates a train from a board entry. An unresolvable origin
// is fatal: without an origin the train has no identity.
func FromBoard(api *viaggiatreno.Client, stations station.Directory, entry viaggiatreno.BoardEntry) (*Train, error) {
	origin, err := stations.Resolve(entry.OriginCode)
	if err != nil {
		return nil, fmt.Errorf("resolving origin of train %d: %w", entry.TrainNumber, err)
	}

	t := New(api, stations, entry.TrainNumber, origin)
	t.state.category = normalizeCategory(entry.CategoryDescription)
	t.state.departed = !entry.NotDeparted
	t.state.cancelled = entry.Provision != 0
	return t, nil
}

// State returns the lifecycle state.
func (t *Train) State() State {
	return t.state.phase
}

// Category returns the train class code (e.g. REG, FR, IC). May be
// empty when the board did not carry one.
func (t *Train) Category() string {
	return t.state.category
}

// Departed reports whether the train has left its origin.
func (t *Train) Departed() bool {
	return t.state.departed
}

// Cancelled reports whether a cancellation measure applies, partially
// or totally.
func (t *Train) Cancelled() bool {
	return t.state.cancelled
}

// Destination returns the arrival station. Only available in Detailed
// state, and even then it may be permanently unset.
func (t *Train) Destination() (*station.Station, bool) {
	if t.state.phase != Detailed || t.state.destination == nil {
		return nil, false
	}
	return t.state.destination, true
}

// Delay returns the instantaneous delay in minutes, based on the last
// detection. Defined only in Detailed state for a departed train.
func (t *Train) Delay() (int, bool) {
	if t.state.phase != Detailed || t.state.delay == nil {
		return 0, false
	}
	return *t.state.delay, true
}

// LastDetectionPlace returns where the train was last detected (a
// station or a stop). Only available in Detailed state.
func (t *Train) LastDetectionPlace() (string, bool) {
	if t.state.phase != Detailed || t.state.lastPlace == nil {
		return "", false
	}
	return *t.state.lastPlace, true
}

// LastDetectionTime returns when the train was last detected. Only
// available in Detailed state.
func (t *Train) LastDetectionTime() (time.Time, bool) {
	if t.state.phase != Detailed || t.state.lastTime == nil {
		return time.Time{}, false
	}
	return *t.state.lastTime, true
}

// Fetch asks the run-tracking endpoint for the train's details and
// merges them in place. It never returns an error: an outright request
// or decode failure marks the train Phantom instead, because untrackable
// trains are a routine outcome, not an exceptional one. Callers check
// State afterwards. Calling Fetch again on a Phantom train re-attempts
// the same request and may promote it to Detailed if the condition
// cleared.
func (t *Train) Fetch(ctx context.Context) {
	midnight := viaggiatreno.Midnight(time.Now())

	run, err := t.api.TrainRun(ctx, t.Origin.Code, t.Number, midnight)
	if err != nil {
		t.state = t.state.toPhantom()
		return
	}

	// Destination resolution happens first so the merge observes its
	// outcome. An unknown destination is the one partial failure that
	// must not abort the update: everything else still applies.
	var dest *station.Station
	if s, derr := t.stations.Resolve(run.DestinationCode); derr == nil {
		dest = s
	}

	t.state = merge(t.state, *run, dest)
}

// String is a debugging aid, not a contract surface.
func (t *Train) String() string {
	if t.state.phase == Phantom {
		return fmt.Sprintf("Train [?] %s %d: %s -> ?", t.state.category, t.Number, t.Origin)
	}

	flags := "S"
	if t.state.departed {
		flags = "D"
	}
	if t.state.cancelled {
		flags += "X"
	}

	dest := "?"
	if t.state.destination != nil {
		dest = t.state.destination.Name
	}
	return fmt.Sprintf("Train [%s] %s %d: %s -> %s", flags, t.state.category, t.Number, t.Origin, dest)
}

// normalizeCategory uppercases and trims a raw category description.
func normalizeCategory(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
