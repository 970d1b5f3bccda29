package station

import (
	_ "embed"
	"encoding/json"
)

// stationsJSON is a bundled dataset of the major Italian stations so
// the poller works out of the box without an external file.
//
//go:embed stations.json
var stationsJSON []byte

// Default returns a directory built from the bundled dataset.
func Default() *MapDirectory {
	var stations []Station
	if err := json.Unmarshal(stationsJSON, &stations); err != nil {
		// The dataset ships with the binary; a parse failure is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return NewStatic(stations...)
}
