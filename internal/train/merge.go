package train

import (
	"time"

	"github.com/trenostat/poller/internal/station"
	"github.com/trenostat/poller/internal/viaggiatreno"
)

// f is the mutable portion of a train's state. Merging a run-tracking
// payload is a pure function over it so the rules below are testable
// in isolation.
type f struct {
	phase     State
	category  string
	departed  bool
	cancelled bool

	destination *station.Station
	delay       *int
	lastPlace   *string
	lastTime    *time.Time
}

// toPhantom is the terminal branch of a failed detail fetch: the
// extended fields must never be readable after it.
func (cur f) toPhantom() f {
	next := cur
	next.phase = Phantom
	next.destination = nil
	next.delay = nil
	next.lastPlace = nil
	next.lastTime = nil
	return next
}

// merge applies a successful run-tracking payload onto cur. dest is
// the already-resolved destination, or nil when resolution failed;
// resolution failure leaves the destination as it was without aborting
// the rest of the update.
//
// Rules:
//   - category is sticky once set: a payload category only fills a
//     still-empty one
//   - departed and cancelled are recomputed (a listed train may have
//     departed since)
//   - delay is only meaningful for a departed train, otherwise unset
//     regardless of the payload value
//   - the "--" detection sentinel normalizes to unset
func merge(cur f, run viaggiatreno.RunDetail, dest *station.Station) f {
	next := cur
	next.phase = Detailed

	if dest != nil {
		next.destination = dest
	}

	if c := normalizeCategory(run.Category); c != "" && cur.category == "" {
		next.category = c
	}

	next.departed = !run.NotDeparted
	next.cancelled = run.Provision != 0

	if next.departed {
		d := run.DelayMinutes
		next.delay = &d
	} else {
		next.delay = nil
	}

	if run.LastDetectionStation != "" && run.LastDetectionStation != viaggiatreno.NoDetectionSentinel {
		p := run.LastDetectionStation
		next.lastPlace = &p
	} else {
		next.lastPlace = nil
	}

	next.lastTime = viaggiatreno.ToTime(run.LastDetectionTime)

	return next
}
