package api

import "time"

// Train is the flat record exposed for each observed train. Nullable
// columns map to pointers; a phantom train carries none of the
// extended fields.
type Train struct {
	Key                  string     `json:"key"`
	Number               int        `json:"number"`
	OriginCode           string     `json:"originCode"`
	OriginName           string     `json:"originName"`
	DestinationCode      *string    `json:"destinationCode"`
	DestinationName      *string    `json:"destinationName"`
	Category             *string    `json:"category"`
	Departed             bool       `json:"departed"`
	Cancelled            bool       `json:"cancelled"`
	Phantom              bool       `json:"phantom"`
	DelayMinutes         *int       `json:"delayMinutes"`
	LastDetectionPlace   *string    `json:"lastDetectionPlace"`
	LastDetectionTimeUTC *time.Time `json:"lastDetectionTimeUtc"`
	PolledAtUTC          time.Time  `json:"polledAtUtc"`
}

// DelayStat is one hourly delay aggregate for a train category.
type DelayStat struct {
	Category         string  `json:"category"`
	HourBucket       string  `json:"hourBucket"`
	ObservationCount int     `json:"observationCount"`
	MeanMinutes      float64 `json:"meanMinutes"`
	StdDevMinutes    float64 `json:"stdDevMinutes"`
	DelayedCount     int     `json:"delayedCount"`
	OnTimeCount      int     `json:"onTimeCount"`
	MaxDelayMinutes  int     `json:"maxDelayMinutes"`
}
