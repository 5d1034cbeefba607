package params

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed schema.json
var schemaJSON string

// ErrInvalid is returned when a parameter document fails schema validation.
var ErrInvalid = errors.New("invalid parameter document")

// Store holds the phase-dependent parameter sets. The engine reads it through
// Active and never writes to it.
type Store struct {
	SwitchStep int `yaml:"switch_step"`
	Early      Set `yaml:"early"`
	Late       Set `yaml:"late"`
}

// Default returns the embedded parameter sets.
func Default() *Store {
	s, err := Parse(nil)
	if err != nil {
		// The embedded document is validated by the package tests.
		panic(fmt.Sprintf("embedded parameters: %v", err))
	}
	return s
}

// Load reads a YAML parameter document from path and overlays it on the
// embedded defaults. Keys absent from the file keep their default values.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameters: %w", err)
	}
	s, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse overlays a YAML document on the embedded defaults. A nil or empty
// document yields the defaults unchanged.
func Parse(raw []byte) (*Store, error) {
	var s Store
	if err := yaml.Unmarshal(defaultsYAML, &s); err != nil {
		return nil, fmt.Errorf("defaults.yaml: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := validateDocument(raw); err != nil {
			return nil, err
		}
		// Decoding into the populated struct keeps keys the overlay omits.
		if err := yaml.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode parameters: %w", err)
		}
	}
	s.Early.Validate()
	s.Late.Validate()
	if s.SwitchStep < 0 {
		s.SwitchStep = 0
	}
	return &s, nil
}

// Active returns the parameter set in force at step.
func (s *Store) Active(step int) *Set {
	if step < s.SwitchStep {
		return &s.Early
	}
	return &s.Late
}

func validateDocument(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	// The schema validator expects JSON-shaped values (float64 numbers,
	// map[string]any objects), so normalize through encoding/json.
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var normalized any
	if err := json.Unmarshal(js, &normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	schema, err := jsonschema.CompileString("schema.json", schemaJSON)
	if err != nil {
		return fmt.Errorf("compile parameter schema: %w", err)
	}
	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
