// Package character defines the player party model, its YAML loader and the
// pure logic that turns party members into combatants and applies battle rewards.
package character

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// DefaultGrowth is the stat gain per level for members without their own.
var DefaultGrowth = combat.Stats{MaxHP: 10, MaxAP: 5, Attack: 1, Defense: 1, Agility: 1, Power: 1}

// Member is one party member's persistent state.
//
// ID may be empty in party files; Build assigns a UUID in that case.
type Member struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Level      int    `yaml:"level"`
	Experience int    `yaml:"experience"`

	Stats combat.Stats `yaml:"stats"`
	// Growth is added to Stats on every level up. Zero uses DefaultGrowth.
	Growth       combat.Stats `yaml:"growth"`
	Fruit        string       `yaml:"fruit"`
	FruitMastery int          `yaml:"fruit_mastery"`
	Haki         combat.Haki  `yaml:"haki"`
	Abilities    []string     `yaml:"abilities"`

	// HP and AP carry the member's vitals between battles. Nil means full.
	HP *int `yaml:"hp,omitempty"`
	AP *int `yaml:"ap,omitempty"`
}

// ItemStack is a quantity of one item in the party's shared bag.
type ItemStack struct {
	Item     string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
}

// Party is the player roster with its shared purse and battle items.
type Party struct {
	Name    string      `yaml:"name"`
	Berries int         `yaml:"berries"`
	Members []*Member   `yaml:"members"`
	Items   []ItemStack `yaml:"items"`
}

// Validate checks the party's invariants.
//
// Postcondition: Returns nil iff the party has at least one member and every
// member and item is in range; otherwise an error joining every violation.
func (p *Party) Validate() error {
	var errs []error
	if len(p.Members) == 0 {
		errs = append(errs, errors.New("party must have at least one member"))
	}
	if p.Berries < 0 {
		errs = append(errs, fmt.Errorf("berries must be >= 0, got %d", p.Berries))
	}
	ids := make(map[string]bool)
	for i, m := range p.Members {
		if m == nil {
			errs = append(errs, fmt.Errorf("members[%d] is empty", i))
			continue
		}
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("members[%d]: name must not be empty", i))
		}
		if m.Level < 1 {
			errs = append(errs, fmt.Errorf("member %q: level must be >= 1, got %d", m.Name, m.Level))
		}
		if m.Stats.MaxHP < 1 {
			errs = append(errs, fmt.Errorf("member %q: stats.max_hp must be >= 1", m.Name))
		}
		if m.HP != nil && *m.HP < 1 {
			errs = append(errs, fmt.Errorf("member %q: hp must be >= 1 when set, got %d", m.Name, *m.HP))
		}
		if m.AP != nil && *m.AP < 0 {
			errs = append(errs, fmt.Errorf("member %q: ap must be >= 0 when set, got %d", m.Name, *m.AP))
		}
		if m.Experience < 0 {
			errs = append(errs, fmt.Errorf("member %q: experience must be >= 0", m.Name))
		}
		if m.ID != "" {
			if ids[m.ID] {
				errs = append(errs, fmt.Errorf("member id %q is duplicated", m.ID))
			}
			ids[m.ID] = true
		}
	}
	for i, it := range p.Items {
		if it.Item == "" || it.Quantity < 1 {
			errs = append(errs, fmt.Errorf("items[%d]: needs an item id and quantity >= 1", i))
		}
	}
	return errors.Join(errs...)
}

// LoadParty reads and validates a party file.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns a validated *Party, or an error.
func LoadParty(path string) (*Party, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading party %q: %w", path, err)
	}
	var p Party
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing party %q: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("party %q: %w", path, err)
	}
	return &p, nil
}

// ExpToNext returns the experience needed to advance from level lvl: 100 at
// level 1, growing by half again each level.
//
// Precondition: lvl >= 1.
func ExpToNext(lvl int) int {
	need := 100
	for i := 1; i < lvl; i++ {
		need = need * 3 / 2
	}
	return need
}

// GainExperience adds amount to m and applies any level ups.
//
// Precondition: amount >= 0.
// Postcondition: m.Experience < ExpToNext(m.Level); returns the number of levels gained.
func (m *Member) GainExperience(amount int) int {
	m.Experience += amount
	gained := 0
	for m.Experience >= ExpToNext(m.Level) {
		m.Experience -= ExpToNext(m.Level)
		m.Level++
		m.Stats = addStats(m.Stats, m.growth())
		gained++
	}
	return gained
}

func (m *Member) growth() combat.Stats {
	if m.Growth == (combat.Stats{}) {
		return DefaultGrowth
	}
	return m.Growth
}

func addStats(a, b combat.Stats) combat.Stats {
	return combat.Stats{
		MaxHP:   a.MaxHP + b.MaxHP,
		MaxAP:   a.MaxAP + b.MaxAP,
		Attack:  a.Attack + b.Attack,
		Defense: a.Defense + b.Defense,
		Speed:   a.Speed + b.Speed,
		Power:   a.Power + b.Power,
		Agility: a.Agility + b.Agility,
		Luck:    a.Luck + b.Luck,
	}
}
