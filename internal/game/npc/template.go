// Package npc provides enemy template definitions, encounter tables and the
// catalog that spawns enemy combatants from them.
package npc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ai"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// Template defines a reusable enemy archetype loaded from YAML.
type Template struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Level       int          `yaml:"level"`
	Stats       combat.Stats `yaml:"stats"`
	// Fruit is a Devil Fruit ID; empty means none.
	Fruit        string      `yaml:"fruit"`
	FruitMastery int         `yaml:"fruit_mastery"`
	Haki         combat.Haki `yaml:"haki"`
	// Abilities lists equipped ability IDs. Empty equips the fruit's abilities.
	Abilities []string `yaml:"abilities"`
	Boss      bool     `yaml:"boss"`
	// Behavior is an AI kind name; empty = aggressive, or boss for bosses.
	Behavior string `yaml:"behavior"`
	// Script is the Lua scope of a boss; empty means the template ID.
	Script string `yaml:"script"`
	// Experience overrides the level-derived experience reward when > 0.
	Experience int        `yaml:"experience"`
	Loot       *LootTable `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff every field is in range; otherwise an error
// joining every violation.
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.New("npc template: id must not be empty")
	}
	var errs []error
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if t.Level < 1 {
		errs = append(errs, fmt.Errorf("level must be >= 1, got %d", t.Level))
	}
	if t.Stats.MaxHP < 1 {
		errs = append(errs, fmt.Errorf("stats.max_hp must be >= 1, got %d", t.Stats.MaxHP))
	}
	if t.Stats.MaxAP < 0 {
		errs = append(errs, fmt.Errorf("stats.max_ap must be >= 0, got %d", t.Stats.MaxAP))
	}
	if t.FruitMastery < 0 {
		errs = append(errs, fmt.Errorf("fruit_mastery must be >= 0, got %d", t.FruitMastery))
	}
	if t.FruitMastery > 0 && t.Fruit == "" {
		errs = append(errs, errors.New("fruit_mastery set without a fruit"))
	}
	if t.Behavior != "" {
		if _, err := ai.ParseKind(t.Behavior); err != nil {
			errs = append(errs, err)
		}
	}
	if t.Experience < 0 {
		errs = append(errs, fmt.Errorf("experience must be >= 0, got %d", t.Experience))
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("npc template %q: %w", t.ID, err)
	}
	return nil
}

// ScriptScope returns the Lua scope consulted for this template's boss hooks.
func (t *Template) ScriptScope() string {
	if t.Script != "" {
		return t.Script
	}
	return t.ID
}

// Bounty returns the reward for defeating one enemy of this template, filling
// anything the template leaves unset from combat.DefaultBounty.
//
// Postcondition: Returns a non-nil Bounty with BerriesMin <= BerriesMax.
func (t *Template) Bounty() *combat.Bounty {
	b := combat.DefaultBounty(t.Level)
	if t.Experience > 0 {
		b.Experience = t.Experience
	}
	if t.Loot == nil {
		return b
	}
	if t.Loot.Berries != nil {
		b.BerriesMin = t.Loot.Berries.Min
		b.BerriesMax = t.Loot.Berries.Max
	}
	for _, it := range t.Loot.Items {
		b.Drops = append(b.Drops, combat.DropChance{
			ItemID: it.ItemID,
			Chance: it.Chance * 100,
			MinQty: it.MinQty,
			MaxQty: it.MaxQty,
		})
	}
	return b
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	var templates []*Template
	err := eachYAMLFile(dir, func(path string, data []byte) error {
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return err
		}
		templates = append(templates, tmpl)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func eachYAMLFile(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading npc dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}
