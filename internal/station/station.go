package station

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// ErrUnknownStation is returned when a code has no entry in the
// directory.
var ErrUnknownStation = errors.New("unknown station code")

// Station is the identity of a rail station. Immutable once resolved;
// trains hold references into the directory rather than copies.
type Station struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Station) String() string {
	return s.Name
}

// Directory resolves station codes to stations. Resolving the same
// code repeatedly returns an equivalent station each time.
type Directory interface {
	Resolve(code string) (*Station, error)
}

// MapDirectory is an in-memory directory. The zero value is not
// usable; construct with NewStatic or FromFile.
type MapDirectory struct {
	mu     sync.RWMutex
	byCode map[string]*Station
}

// NewStatic builds a directory from a fixed station list.
func NewStatic(stations ...Station) *MapDirectory {
	d := &MapDirectory{byCode: make(map[string]*Station, len(stations))}
	for _, s := range stations {
		s := s
		d.byCode[s.Code] = &s
	}
	return d
}

// FromFile loads a directory from a JSON dataset: an array of
// {"code": ..., "name": ...} objects.
func FromFile(path string) (*MapDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading station dataset: %w", err)
	}

	var stations []Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return nil, fmt.Errorf("parsing station dataset %s: %w", path, err)
	}

	return NewStatic(stations...), nil
}

// Resolve looks up a station by code.
func (d *MapDirectory) Resolve(code string) (*Station, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStation, code)
	}
	return s, nil
}

// Add inserts or replaces a station.
func (d *MapDirectory) Add(s Station) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byCode[s.Code] = &s
}

// Len returns the number of known stations.
func (d *MapDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byCode)
}

// Codes returns the known station codes, sorted.
func (d *MapDirectory) Codes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	codes := make([]string, 0, len(d.byCode))
	for code := range d.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
