package ability

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAbility is returned when an ability ID is not registered.
var ErrUnknownAbility = errors.New("unknown ability")

// ErrUnknownFruit is returned when a fruit ID is not registered.
var ErrUnknownFruit = errors.New("unknown devil fruit")

// Registry indexes ability and fruit definitions by ID.
type Registry struct {
	abilities map[string]*Definition
	fruits    map[string]*Fruit
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		abilities: make(map[string]*Definition),
		fruits:    make(map[string]*Fruit),
	}
}

// RegisterAbility validates d and adds it.
//
// Precondition: d must not be nil.
// Postcondition: Ability(d.ID) returns d; returns an error if invalid or already registered.
func (r *Registry) RegisterAbility(d *Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.abilities[d.ID]; exists {
		return fmt.Errorf("ability ID %q already registered", d.ID)
	}
	r.abilities[d.ID] = d
	return nil
}

// RegisterFruit validates f and adds it. Every ability it grants must already be registered.
//
// Precondition: f must not be nil.
func (r *Registry) RegisterFruit(f *Fruit) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if _, exists := r.fruits[f.ID]; exists {
		return fmt.Errorf("fruit ID %q already registered", f.ID)
	}
	for _, id := range f.Abilities {
		if _, ok := r.abilities[id]; !ok {
			return fmt.Errorf("fruit %q grants %q: %w", f.ID, id, ErrUnknownAbility)
		}
	}
	r.fruits[f.ID] = f
	return nil
}

// Ability returns the definition for id.
//
// Postcondition: Returns a non-nil definition, or an error wrapping ErrUnknownAbility.
func (r *Registry) Ability(id string) (*Definition, error) {
	d, ok := r.abilities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAbility, id)
	}
	return d, nil
}

// Fruit returns the fruit for id.
//
// Postcondition: Returns a non-nil fruit, or an error wrapping ErrUnknownFruit.
func (r *Registry) Fruit(id string) (*Fruit, error) {
	f, ok := r.fruits[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFruit, id)
	}
	return f, nil
}

// Resolve looks up every id in order.
//
// Postcondition: len(result) == len(ids) on success.
func (r *Registry) Resolve(ids []string) ([]*Definition, error) {
	out := make([]*Definition, 0, len(ids))
	for _, id := range ids {
		d, err := r.Ability(id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// AllAbilities returns every ability sorted by ID.
func (r *Registry) AllAbilities() []*Definition {
	out := make([]*Definition, 0, len(r.abilities))
	for _, d := range r.abilities {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllFruits returns every fruit sorted by ID.
func (r *Registry) AllFruits() []*Fruit {
	out := make([]*Fruit, 0, len(r.fruits))
	for _, f := range r.fruits {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type abilityFile struct {
	Abilities []*Definition `yaml:"abilities"`
}

type fruitFile struct {
	Fruits []*Fruit `yaml:"fruits"`
}

// LoadDirectories builds a Registry from an abilities directory and a fruits
// directory. Each *.yaml file holds a list under "abilities:" or "fruits:".
// An empty fruitsDir skips fruit loading.
//
// Precondition: abilitiesDir must be readable.
// Postcondition: Returns a populated Registry or the first parse/validation error.
func LoadDirectories(abilitiesDir, fruitsDir string) (*Registry, error) {
	reg := NewRegistry()
	err := eachYAML(abilitiesDir, func(path string, dec *yaml.Decoder) error {
		var f abilityFile
		if err := dec.Decode(&f); err != nil {
			return err
		}
		for _, d := range f.Abilities {
			if err := reg.RegisterAbility(d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fruitsDir == "" {
		return reg, nil
	}
	err = eachYAML(fruitsDir, func(path string, dec *yaml.Decoder) error {
		var f fruitFile
		if err := dec.Decode(&f); err != nil {
			return err
		}
		for _, fr := range f.Fruits {
			if err := reg.RegisterFruit(fr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func eachYAML(dir string, fn func(path string, dec *yaml.Decoder) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %q: %w", dir, err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := fn(path, dec); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}
