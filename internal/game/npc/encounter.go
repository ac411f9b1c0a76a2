package npc

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Slot places Count enemies of one template in an encounter.
type Slot struct {
	Template string `yaml:"template"`
	// Count defaults to 1 when omitted.
	Count int `yaml:"count"`
}

// N returns the number of enemies the slot spawns.
func (s Slot) N() int {
	if s.Count == 0 {
		return 1
	}
	return s.Count
}

// EncounterDef is a named enemy group loaded from YAML.
type EncounterDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Boss forbids fleeing even when no spawned template is a boss.
	Boss    bool   `yaml:"boss"`
	Enemies []Slot `yaml:"enemies"`
}

// Validate checks the encounter's own fields. Template references are checked
// by the Catalog.
func (e *EncounterDef) Validate() error {
	if e.ID == "" {
		return errors.New("encounter: id must not be empty")
	}
	if len(e.Enemies) == 0 {
		return fmt.Errorf("encounter %q: must list at least one enemy", e.ID)
	}
	for i, s := range e.Enemies {
		if s.Template == "" {
			return fmt.Errorf("encounter %q: enemies[%d] needs a template", e.ID, i)
		}
		if s.Count < 0 {
			return fmt.Errorf("encounter %q: enemies[%d] count must be >= 0, got %d", e.ID, i, s.Count)
		}
	}
	return nil
}

// Size returns the total number of enemies spawned.
func (e *EncounterDef) Size() int {
	n := 0
	for _, s := range e.Enemies {
		n += s.N()
	}
	return n
}

// LoadEncounterFromBytes parses a single encounter from raw YAML bytes.
//
// Postcondition: Returns a validated *EncounterDef, or an error.
func LoadEncounterFromBytes(data []byte) (*EncounterDef, error) {
	var def EncounterDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing encounter YAML: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadEncounters reads all *.yaml files in dir as encounter definitions.
//
// Precondition: dir must be a readable directory.
func LoadEncounters(dir string) ([]*EncounterDef, error) {
	var defs []*EncounterDef
	err := eachYAMLFile(dir, func(path string, data []byte) error {
		def, err := LoadEncounterFromBytes(data)
		if err != nil {
			return err
		}
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}
