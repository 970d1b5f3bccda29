package metrics

import (
	"math"
	"testing"
)

func TestWelfordUpdate(t *testing.T) {
	w := &WelfordState{}
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		w.Update(v)
	}

	if w.Count != 8 {
		t.Errorf("Count = %d, want 8", w.Count)
	}
	if math.Abs(w.Mean-5) > 1e-9 {
		t.Errorf("Mean = %v, want 5", w.Mean)
	}
	if math.Abs(w.StdDev()-2) > 1e-9 {
		t.Errorf("StdDev = %v, want 2", w.StdDev())
	}
}

func TestWelfordFewObservations(t *testing.T) {
	w := &WelfordState{}
	if w.StdDev() != 0 {
		t.Errorf("StdDev of empty state = %v, want 0", w.StdDev())
	}

	w.Update(42)
	if w.StdDev() != 0 {
		t.Errorf("StdDev of one observation = %v, want 0", w.StdDev())
	}
	if w.Mean != 42 {
		t.Errorf("Mean = %v, want 42", w.Mean)
	}
}

func TestWelfordResume(t *testing.T) {
	// Feeding observations through a resumed state must match feeding
	// them all through one state.
	full := &WelfordState{}
	for _, v := range []float64{1, 3, 5, 7} {
		full.Update(v)
	}

	first := &WelfordState{}
	first.Update(1)
	first.Update(3)
	resumed := &WelfordState{Count: first.Count, Mean: first.Mean, M2: first.M2}
	resumed.Update(5)
	resumed.Update(7)

	if resumed.Count != full.Count || math.Abs(resumed.Mean-full.Mean) > 1e-9 || math.Abs(resumed.M2-full.M2) > 1e-9 {
		t.Errorf("resumed = %+v, full = %+v", resumed, full)
	}
}
