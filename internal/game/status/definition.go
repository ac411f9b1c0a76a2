// Package status defines battle status effects (burn, stun, stat buffs and
// debuffs, Haki stances) and the per-combatant set of active effects.
package status

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stacking is the policy used when an effect is applied to a combatant that
// already carries it. It is fixed per definition.
type Stacking int

const (
	StackUnknown Stacking = iota
	// StackReplace overwrites magnitude and duration.
	StackReplace
	// StackSum adds magnitudes (capped by MaxMagnitude) and keeps the longer duration.
	StackSum
	// StackRefresh keeps the larger magnitude and resets duration to the new value.
	StackRefresh
)

func (s Stacking) String() string {
	switch s {
	case StackReplace:
		return "replace"
	case StackSum:
		return "sum"
	case StackRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// UnmarshalYAML decodes "replace", "sum" or "refresh".
func (s *Stacking) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "replace":
		*s = StackReplace
	case "sum":
		*s = StackSum
	case "refresh":
		*s = StackRefresh
	default:
		return fmt.Errorf("line %d: unknown stacking policy %q", node.Line, node.Value)
	}
	return nil
}

// Timing selects when an effect ticks within its owner's turn.
type Timing int

const (
	// TimingEndOfTurn is the zero value so definitions that omit timing tick after acting.
	TimingEndOfTurn Timing = iota
	TimingStartOfTurn
)

func (t Timing) String() string {
	if t == TimingStartOfTurn {
		return "start"
	}
	return "end"
}

// UnmarshalYAML decodes "start" or "end".
func (t *Timing) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "start":
		*t = TimingStartOfTurn
	case "end", "":
		*t = TimingEndOfTurn
	default:
		return fmt.Errorf("line %d: unknown tick timing %q", node.Line, node.Value)
	}
	return nil
}

// Periodic is the HP effect an effect has each time it ticks.
type Periodic int

const (
	PeriodicNone Periodic = iota
	PeriodicDamage
	PeriodicHeal
)

func (p Periodic) String() string {
	switch p {
	case PeriodicDamage:
		return "damage"
	case PeriodicHeal:
		return "heal"
	default:
		return "none"
	}
}

// UnmarshalYAML decodes "none", "damage" or "heal".
func (p *Periodic) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "none", "":
		*p = PeriodicNone
	case "damage":
		*p = PeriodicDamage
	case "heal":
		*p = PeriodicHeal
	default:
		return fmt.Errorf("line %d: unknown periodic effect %q", node.Line, node.Value)
	}
	return nil
}

// Stat names an effect may modify. They match the combatant stat names.
var knownStats = map[string]bool{
	"attack": true, "defense": true, "speed": true,
	"power": true, "agility": true, "luck": true,
}

// Definition is the static description of a status effect, loaded from YAML.
type Definition struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Stacking    Stacking `yaml:"stacking"`
	Timing      Timing   `yaml:"timing"`
	Periodic    Periodic `yaml:"periodic"`
	// Stat, when set, is modified by the effect's magnitude while active.
	Stat string `yaml:"stat"`
	// Debuff flips the sign of the stat modifier.
	Debuff bool `yaml:"debuff"`
	// SkipsTurn makes the owner lose its action while the effect is active.
	SkipsTurn bool `yaml:"skips_turn"`
	// MaxMagnitude caps summed magnitudes; 0 means uncapped.
	MaxMagnitude int `yaml:"max_magnitude"`
}

// Validate checks the definition's invariants.
//
// Postcondition: Returns nil if the definition is usable, or an error naming every violation.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Stacking == StackUnknown {
		errs = append(errs, fmt.Errorf("status %q: stacking must be one of [replace, sum, refresh]", d.ID))
	}
	if d.Stat != "" && !knownStats[d.Stat] {
		errs = append(errs, fmt.Errorf("status %q: unknown stat %q", d.ID, d.Stat))
	}
	if d.MaxMagnitude < 0 {
		errs = append(errs, fmt.Errorf("status %q: max_magnitude must be >= 0", d.ID))
	}
	return errors.Join(errs...)
}

// Registry holds all known Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register validates def and adds it, replacing any definition with the same ID.
//
// Precondition: def must not be nil.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every registered definition sorted by ID.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir as one Definition.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
	}
	return reg, nil
}
