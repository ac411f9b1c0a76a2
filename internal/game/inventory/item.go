// Package inventory defines consumable battle items and the per-side item bag
// the battle engine draws them from.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
)

// DefaultRevivePercent is the HP percentage restored by a revive item that
// does not set revive_percent.
const DefaultRevivePercent = 50

// ItemDef defines a usable battle item loaded from YAML.
type ItemDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Target is single_ally, all_allies or self.
	Target ability.TargetMode `yaml:"target"`
	// Heal is a flat amount or dice expression, e.g. "2d10+30".
	Heal        *dice.Amount `yaml:"heal"`
	HealPercent int          `yaml:"heal_percent"`
	RestoreAP   int          `yaml:"restore_ap"`
	Cures       []string     `yaml:"cures"`
	// Revive makes the item usable only on fallen allies.
	Revive        bool `yaml:"revive"`
	RevivePercent int  `yaml:"revive_percent"`
	// Value is the shop price in berries.
	Value int `yaml:"value"`
}

// ReviveHPPercent returns the HP percentage restored on revive.
func (d *ItemDef) ReviveHPPercent() int {
	if d.RevivePercent > 0 {
		return d.RevivePercent
	}
	return DefaultRevivePercent
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.Target.Offensive() {
		errs = append(errs, fmt.Errorf("target must be self, single_ally or all_allies; got %s", d.Target))
	}
	if d.HealPercent < 0 || d.HealPercent > 100 {
		errs = append(errs, errors.New("heal_percent must be within [0, 100]"))
	}
	if d.RevivePercent < 0 || d.RevivePercent > 100 {
		errs = append(errs, errors.New("revive_percent must be within [0, 100]"))
	}
	if d.RestoreAP < 0 {
		errs = append(errs, errors.New("restore_ap must be >= 0"))
	}
	if d.Heal != nil && d.Heal.Min() < 0 {
		errs = append(errs, errors.New("heal must not be negative"))
	}
	if d.Heal == nil && d.HealPercent == 0 && d.RestoreAP == 0 && len(d.Cures) == 0 && !d.Revive {
		errs = append(errs, errors.New("item has no effect"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as one
// ItemDef, validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var d ItemDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
		}
		items = append(items, &d)
	}
	return items, nil
}
