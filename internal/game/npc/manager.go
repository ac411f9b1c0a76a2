package npc

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/ability"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// ErrUnknownTemplate is returned when an enemy template ID is not in the catalog.
var ErrUnknownTemplate = errors.New("unknown enemy template")

// ErrUnknownEncounter is returned when an encounter ID is not in the catalog.
var ErrUnknownEncounter = errors.New("unknown encounter")

// Spawned is a freshly spawned enemy group ready for battle.Manager.Start.
type Spawned struct {
	Encounter *EncounterDef
	Enemies   []*combat.Combatant
	Boss      bool
}

// Catalog indexes enemy templates and encounter tables and spawns enemy
// combatants from them. All methods are safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	abilities  *ability.Registry
	templates  map[string]*Template
	encounters map[string]*EncounterDef
	newID      func() string
}

// NewCatalog creates a catalog over templates and encounters.
//
// Precondition: abilities must be non-nil.
// Postcondition: Returns a Catalog whose every encounter references known
// templates and whose every template resolves its abilities and fruit, or an
// error joining every violation.
func NewCatalog(abilities *ability.Registry, templates []*Template, encounters []*EncounterDef) (*Catalog, error) {
	c := &Catalog{
		abilities:  abilities,
		templates:  make(map[string]*Template, len(templates)),
		encounters: make(map[string]*EncounterDef, len(encounters)),
		newID:      uuid.NewString,
	}
	var errs []error
	for _, t := range templates {
		if _, dup := c.templates[t.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate template %q", t.ID))
			continue
		}
		if _, err := NewInstance("validate", t.Name, t, abilities); err != nil {
			errs = append(errs, err)
			continue
		}
		c.templates[t.ID] = t
	}
	for _, e := range encounters {
		if _, dup := c.encounters[e.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate encounter %q", e.ID))
			continue
		}
		for _, s := range e.Enemies {
			if _, ok := c.templates[s.Template]; !ok {
				errs = append(errs, fmt.Errorf("encounter %q: %w: %q", e.ID, ErrUnknownTemplate, s.Template))
			}
		}
		c.encounters[e.ID] = e
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadCatalog loads templates from templatesDir and encounters from
// encountersDir and builds a Catalog.
func LoadCatalog(abilities *ability.Registry, templatesDir, encountersDir string) (*Catalog, error) {
	templates, err := LoadTemplates(templatesDir)
	if err != nil {
		return nil, err
	}
	encounters, err := LoadEncounters(encountersDir)
	if err != nil {
		return nil, err
	}
	return NewCatalog(abilities, templates, encounters)
}

// Template returns the template with the given ID.
//
// Postcondition: Returns (tmpl, true) if found, or (nil, false) otherwise.
func (c *Catalog) Template(id string) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.templates[id]
	return t, ok
}

// Encounter returns the encounter with the given ID.
func (c *Catalog) Encounter(id string) (*EncounterDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.encounters[id]
	return e, ok
}

// Encounters returns every encounter sorted by ID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (c *Catalog) Encounters() []*EncounterDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*EncounterDef, 0, len(c.encounters))
	for _, e := range c.encounters {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SpawnTemplate creates one enemy from the template with the given ID.
//
// Postcondition: the combatant carries a fresh UUID.
func (c *Catalog) SpawnTemplate(id string) (*combat.Combatant, error) {
	tmpl, ok := c.Template(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return NewInstance(c.newID(), tmpl.Name, tmpl, c.abilities)
}

// Spawn creates the enemy group of the encounter with the given ID. When a
// template appears more than once its instances are lettered "Marine A",
// "Marine B" and so on.
//
// Precondition: id must be non-empty.
// Postcondition: len(Enemies) == Encounter.Size(); every enemy has a unique ID.
func (c *Catalog) Spawn(id string) (*Spawned, error) {
	def, ok := c.Encounter(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncounter, id)
	}

	totals := make(map[string]int)
	for _, s := range def.Enemies {
		totals[s.Template] += s.N()
	}

	out := &Spawned{Encounter: def, Boss: def.Boss}
	seen := make(map[string]int)
	for _, s := range def.Enemies {
		tmpl, ok := c.Template(s.Template)
		if !ok {
			return nil, fmt.Errorf("encounter %q: %w: %q", id, ErrUnknownTemplate, s.Template)
		}
		for i := 0; i < s.N(); i++ {
			name := tmpl.Name
			if totals[tmpl.ID] > 1 {
				name = fmt.Sprintf("%s %c", tmpl.Name, 'A'+rune(seen[tmpl.ID]%26))
			}
			seen[tmpl.ID]++
			enemy, err := NewInstance(c.newID(), name, tmpl, c.abilities)
			if err != nil {
				return nil, err
			}
			out.Boss = out.Boss || tmpl.Boss
			out.Enemies = append(out.Enemies, enemy)
		}
	}
	return out, nil
}
