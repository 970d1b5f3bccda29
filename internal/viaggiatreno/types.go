package viaggiatreno

// BoardEntry is one train on a station departure or arrival board.
// The board endpoints return partial data; the run-tracking endpoint
// fills in the rest.
type BoardEntry struct {
	TrainNumber         int    `json:"numeroTreno"`
	OriginCode          string `json:"codOrigine"`
	CategoryDescription string `json:"categoriaDescrizione"`
	NotDeparted         bool   `json:"nonPartito"`
	Provision           int    `json:"provvedimento"` // 0 = no cancellation measure
}

// RunDetail is the run-tracking payload for a single train.
type RunDetail struct {
	DestinationCode      string `json:"idDestinazione"`
	Category             string `json:"categoria"`
	NotDeparted          bool   `json:"nonPartito"`
	Provision            int    `json:"provvedimento"`
	DelayMinutes         int    `json:"ritardo"`
	LastDetectionStation string `json:"stazioneUltimoRilevamento"` // "--" means none
	LastDetectionTime    int64  `json:"oraUltimoRilevamento"`      // epoch ms, null/0 means none
}

// NoDetectionSentinel is the upstream placeholder for "no detection yet".
const NoDetectionSentinel = "--"
