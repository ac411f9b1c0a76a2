package ability

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FruitType is the Devil Fruit class.
type FruitType int

const (
	FruitNone FruitType = iota
	FruitParamecia
	FruitZoan
	FruitLogia
)

func (f FruitType) String() string {
	switch f {
	case FruitParamecia:
		return "paramecia"
	case FruitZoan:
		return "zoan"
	case FruitLogia:
		return "logia"
	default:
		return "none"
	}
}

// UnmarshalYAML decodes the names returned by String.
func (f *FruitType) UnmarshalYAML(node *yaml.Node) error {
	for k := FruitNone; k <= FruitLogia; k++ {
		if k.String() == node.Value {
			*f = k
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown fruit type %q", node.Line, node.Value)
}

// Fruit is a Devil Fruit: its class, elemental nature and granted abilities.
type Fruit struct {
	ID      string    `yaml:"id"`
	Name    string    `yaml:"name"`
	Type    FruitType `yaml:"type"`
	Element Element   `yaml:"element"`
	// PhysicalBoost is the zoan percentage bonus to physical damage.
	PhysicalBoost int      `yaml:"physical_boost"`
	Abilities     []string `yaml:"abilities"`
}

// Intangible reports whether the fruit grants logia intangibility.
func (f *Fruit) Intangible() bool {
	return f.Type == FruitLogia
}

// Validate checks the fruit's invariants.
func (f *Fruit) Validate() error {
	var errs []error
	if f.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if f.Type == FruitNone {
		errs = append(errs, fmt.Errorf("fruit %q: type must be paramecia, zoan or logia", f.ID))
	}
	if !f.Element.Valid() {
		errs = append(errs, fmt.Errorf("fruit %q: unknown element %q", f.ID, f.Element))
	}
	if f.Type == FruitLogia && f.Element == ElementNone {
		errs = append(errs, fmt.Errorf("fruit %q: logia fruits need an element", f.ID))
	}
	if f.PhysicalBoost < 0 {
		errs = append(errs, fmt.Errorf("fruit %q: physical_boost must be >= 0", f.ID))
	}
	return errors.Join(errs...)
}
