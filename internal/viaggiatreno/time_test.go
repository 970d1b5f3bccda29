package viaggiatreno

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parsing %q: %v", value, err)
	}
	return parsed
}

func TestToTime(t *testing.T) {
	if got := ToTime(0); got != nil {
		t.Errorf("ToTime(0) = %v, want nil", got)
	}

	got := ToTime(1700000000000)
	if got == nil {
		t.Fatal("ToTime returned nil for a real timestamp")
	}
	want := time.Date(2023, time.November, 14, 23, 13, 20, 0, ServiceTZ)
	if !got.Equal(want) {
		t.Errorf("ToTime(1700000000000) = %v, want %v", got, want)
	}
	if got.Location() != ServiceTZ {
		t.Errorf("location = %v, want %v", got.Location(), ServiceTZ)
	}
}

func TestMidnight(t *testing.T) {
	// 23:13 UTC on Nov 14 is already Nov 15 in Rome; midnight must
	// follow the service timezone, not the input's.
	in := time.Date(2023, time.November, 14, 23, 13, 20, 0, time.UTC)
	got := Midnight(in)
	want := time.Date(2023, time.November, 15, 0, 0, 0, 0, ServiceTZ)
	if !got.Equal(want) {
		t.Errorf("Midnight(%v) = %v, want %v", in, got, want)
	}
}

func TestFormatBoardTime(t *testing.T) {
	in := time.Date(2025, time.August, 30, 12, 5, 0, 0, time.UTC)
	got := formatBoardTime(in)
	want := "Sat Aug 30 2025 14:05:00 CEST+0200"
	if got != want {
		t.Errorf("formatBoardTime = %q, want %q", got, want)
	}
}
