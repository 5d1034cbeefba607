package params

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	s, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if s.SwitchStep != 110 {
		t.Errorf("SwitchStep = %d, want 110", s.SwitchStep)
	}
	if s.Early.MaxShipyardDistance < s.Early.MinShipyardDistance {
		t.Errorf("early shipyard band inverted: [%d, %d]", s.Early.MinShipyardDistance, s.Early.MaxShipyardDistance)
	}
	if err := validateDocument(defaultsYAML); err != nil {
		t.Errorf("embedded defaults fail the schema: %v", err)
	}
}

func TestActive(t *testing.T) {
	s := Default()
	if s.Active(0) != &s.Early {
		t.Errorf("Active(0) is not the early set")
	}
	if s.Active(s.SwitchStep-1) != &s.Early {
		t.Errorf("Active(%d) is not the early set", s.SwitchStep-1)
	}
	if s.Active(s.SwitchStep) != &s.Late {
		t.Errorf("Active(%d) is not the late set", s.SwitchStep)
	}
}

func TestParseOverlay(t *testing.T) {
	def := Default()
	s, err := Parse([]byte("switch_step: 50\nearly:\n  return_cargo: 700\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.SwitchStep != 50 {
		t.Errorf("SwitchStep = %d, want 50", s.SwitchStep)
	}
	if s.Early.ReturnCargo != 700 {
		t.Errorf("Early.ReturnCargo = %d, want 700", s.Early.ReturnCargo)
	}
	if s.Early.EndStart != def.Early.EndStart {
		t.Errorf("Early.EndStart = %d, want default %d", s.Early.EndStart, def.Early.EndStart)
	}
	if s.Late.ReturnCargo != def.Late.ReturnCargo {
		t.Errorf("Late.ReturnCargo = %d, want default %d", s.Late.ReturnCargo, def.Late.ReturnCargo)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown top-level key", "turbo: true\n"},
		{"unknown parameter", "early:\n  warp_factor: 9\n"},
		{"wrong type", "late:\n  return_cargo: lots\n"},
		{"fractional integer", "late:\n  min_ships: 2.5\n"},
		{"negative switch", "switch_step: -3\n"},
		{"not yaml", "early: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalid", tc.doc, err)
			}
		})
	}
}

func TestValidateClamps(t *testing.T) {
	s := Default().Late
	s.CargoMapNorm = 0
	s.MapBlurGamma = 3
	s.MaxGuardingShipsPerTarget = 0
	s.MinShipyardDistance = 9
	s.MaxShipyardDistance = 4
	s.Validate()

	if s.CargoMapNorm != 1 {
		t.Errorf("CargoMapNorm = %v, want 1", s.CargoMapNorm)
	}
	if s.MapBlurGamma != 1 {
		t.Errorf("MapBlurGamma = %v, want 1", s.MapBlurGamma)
	}
	if s.MaxGuardingShipsPerTarget != 1 {
		t.Errorf("MaxGuardingShipsPerTarget = %d, want 1", s.MaxGuardingShipsPerTarget)
	}
	if s.MaxShipyardDistance != 9 {
		t.Errorf("MaxShipyardDistance = %d, want 9", s.MaxShipyardDistance)
	}
	if v, _ := s.Lookup("max_shipyard_distance"); v != 9 {
		t.Errorf("Lookup after Validate = %v, want 9", v)
	}
}

func TestLookup(t *testing.T) {
	s := Default()
	v, ok := s.Late.Lookup("end_start")
	if !ok || int(v) != s.Late.EndStart {
		t.Errorf("Lookup(end_start) = %v, %v, want %d", v, ok, s.Late.EndStart)
	}
	if _, ok := s.Late.Lookup("no_such_key"); ok {
		t.Errorf("Lookup(no_such_key) reported ok")
	}
	var zero Set
	if _, ok := zero.Lookup("end_start"); !ok {
		t.Errorf("Lookup on an unvalidated set failed")
	}
}

func TestHasKey(t *testing.T) {
	for key, want := range map[string]bool{
		"return_cargo": true,
		"end_start":    true,
		"retrun_cargo": false,
		"switch_step":  false,
		"":             false,
	} {
		if got := HasKey(key); got != want {
			t.Errorf("HasKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	if err := os.WriteFile(path, []byte("late:\n  spawn_till: 250\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Late.SpawnTill != 250 {
		t.Errorf("Late.SpawnTill = %d, want 250", s.Late.SpawnTill)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("Load(missing) succeeded")
	} else if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}
}
