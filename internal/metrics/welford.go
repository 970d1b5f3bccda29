package metrics

import "math"

// WelfordState holds running statistics using Welford's online
// algorithm: mean and variance in O(1) time and space, without storing
// the observations. The fields are exported so aggregates can be
// persisted and resumed across process restarts.
type WelfordState struct {
	Count int     // number of observations
	Mean  float64 // running mean
	M2    float64 // sum of squared differences from the mean
}

// Update adds a new observation.
func (w *WelfordState) Update(value float64) {
	w.Count++
	delta := value - w.Mean
	w.Mean += delta / float64(w.Count)
	delta2 := value - w.Mean
	w.M2 += delta * delta2
}

// StdDev returns the population standard deviation, 0 with fewer than
// two observations.
func (w *WelfordState) StdDev() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count))
}
