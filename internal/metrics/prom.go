package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "trenostat_"

var (
	registerOnce sync.Once

	pollDuration  prometheus.Histogram
	trainsPolled  prometheus.Counter
	phantomTrains prometheus.Counter
	boardErrors   *prometheus.CounterVec
)

// Init registers the poller metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "poll_duration_seconds",
			Help:    "Wall time of a full poll cycle",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		})
		trainsPolled = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "trains_polled_total",
			Help: "Trains observed on station boards",
		})
		phantomTrains = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "phantom_trains_total",
			Help: "Trains whose detail fetch could not be completed",
		})
		boardErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "board_errors_total",
			Help: "Failed board fetches by kind",
		}, []string{"kind"})

		prometheus.MustRegister(pollDuration, trainsPolled, phantomTrains, boardErrors)
	})
}

// ObservePoll records the outcome of one poll cycle.
func ObservePoll(d time.Duration, trains, phantoms int) {
	if pollDuration == nil {
		return
	}
	pollDuration.Observe(d.Seconds())
	trainsPolled.Add(float64(trains))
	phantomTrains.Add(float64(phantoms))
}

// IncBoardError records a failed board fetch ("partenze" or "arrivi").
func IncBoardError(kind string) {
	if boardErrors == nil {
		return
	}
	boardErrors.WithLabelValues(kind).Inc()
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
