package viaggiatreno

import (
	"time"
	// Bundled zoneinfo so containers without a tz database still
	// resolve the service timezone.
	_ "time/tzdata"
)

// ServiceTZ is the reference timezone of the upstream service. All
// timestamps it emits or expects are local to Italy.
var ServiceTZ = mustLoadLocation("Europe/Rome")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// ToTime converts an epoch timestamp in milliseconds to a time in the
// service timezone. Zero (which is also what a JSON null leaves behind)
// means "no timestamp" and maps to nil.
func ToTime(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).In(ServiceTZ)
	return &t
}

// Midnight returns the start of t's day in the service timezone. The
// run-tracking endpoint wants it as epoch milliseconds.
func Midnight(t time.Time) time.Time {
	t = t.In(ServiceTZ)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, ServiceTZ)
}

// boardTimeLayout is the timestamp format the departure/arrival boards
// expect, e.g. "Sat Aug 30 2025 14:05:00 CEST+0200".
const boardTimeLayout = "Mon Jan 02 2006 15:04:05 MST-0700"

func formatBoardTime(t time.Time) string {
	return t.In(ServiceTZ).Format(boardTimeLayout)
}
