package station

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	d := NewStatic(
		Station{Code: "S01700", Name: "MILANO CENTRALE"},
		Station{Code: "S08409", Name: "ROMA TERMINI"},
	)

	s, err := d.Resolve("S01700")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if s.Name != "MILANO CENTRALE" {
		t.Errorf("Name = %q, want MILANO CENTRALE", s.Name)
	}
	if s.String() != "MILANO CENTRALE" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestResolveUnknown(t *testing.T) {
	d := NewStatic(Station{Code: "S01700", Name: "MILANO CENTRALE"})

	_, err := d.Resolve("S99999")
	if !errors.Is(err, ErrUnknownStation) {
		t.Errorf("expected ErrUnknownStation, got %v", err)
	}
}

func TestResolveRepeatable(t *testing.T) {
	d := NewStatic(Station{Code: "S01700", Name: "MILANO CENTRALE"})

	first, err := d.Resolve("S01700")
	if err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}
	second, err := d.Resolve("S01700")
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if *first != *second {
		t.Errorf("repeated Resolve returned different stations: %v vs %v", first, second)
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.json")
	data := `[{"code": "S01700", "name": "MILANO CENTRALE"}, {"code": "S05043", "name": "BOLOGNA CENTRALE"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}

	d, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len = %d, want 2", d.Len())
	}
	s, err := d.Resolve("S05043")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if s.Name != "BOLOGNA CENTRALE" {
		t.Errorf("Name = %q", s.Name)
	}
}

func TestFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}
	if _, err := FromFile(path); err == nil {
		t.Error("expected parse error for malformed dataset")
	}
}

func TestDefaultDataset(t *testing.T) {
	d := Default()
	if d.Len() == 0 {
		t.Fatal("embedded dataset is empty")
	}
	s, err := d.Resolve("S01700")
	if err != nil {
		t.Fatalf("Resolve on embedded dataset failed: %v", err)
	}
	if s.Name == "" {
		t.Error("embedded station has empty name")
	}
}

func TestAddAndCodes(t *testing.T) {
	d := NewStatic(Station{Code: "S2", Name: "B"})
	d.Add(Station{Code: "S1", Name: "A"})

	codes := d.Codes()
	if len(codes) != 2 || codes[0] != "S1" || codes[1] != "S2" {
		t.Errorf("Codes = %v, want [S1 S2]", codes)
	}
}
