package dice

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Amount is a quantity that is either a flat integer ("40") or dice notation
// with an optional flat modifier ("2d10+15").
//
// Invariant: Count == 0 means the amount is the flat Modifier.
type Amount struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// IsFlat reports whether the amount involves no dice.
func (a Amount) IsFlat() bool {
	return a.Count == 0
}

// Min returns the smallest value the amount can produce.
func (a Amount) Min() int {
	return a.Count + a.Modifier
}

// Max returns the largest value the amount can produce.
func (a Amount) Max() int {
	return a.Count*a.Sides + a.Modifier
}

// ParseAmount parses s as a flat integer or NdS[+|-M] expression.
//
// Precondition: s must be non-empty.
// Postcondition: Returns an Amount with Count >= 0 and Sides >= 2 when Count > 0,
// or a descriptive error.
func ParseAmount(s string) (Amount, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Amount{}, fmt.Errorf("dice: empty amount")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return Amount{Raw: raw, Modifier: n}, nil
	}

	lower := strings.ToLower(raw)
	dIdx := strings.IndexByte(lower, 'd')
	if dIdx < 0 {
		return Amount{}, fmt.Errorf("dice: %q is neither an integer nor dice notation", raw)
	}

	count := 1
	if dIdx > 0 {
		c, err := strconv.Atoi(lower[:dIdx])
		if err != nil || c < 1 {
			return Amount{}, fmt.Errorf("dice: invalid die count in %q", raw)
		}
		count = c
	}

	rest := lower[dIdx+1:]
	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil || sides < 2 {
		return Amount{}, fmt.Errorf("dice: invalid die sides in %q", raw)
	}

	mod := 0
	if modStr != "" {
		mod, err = strconv.Atoi(modStr)
		if err != nil {
			return Amount{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}
	return Amount{Raw: raw, Count: count, Sides: sides, Modifier: mod}, nil
}

// MustParseAmount is ParseAmount that panics on error, for literals in tests
// and package-level tables.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err.Error())
	}
	return a
}

// Roll evaluates the amount against src and returns the total and the
// individual die faces.
//
// Postcondition: a.Min() <= total <= a.Max(); len(faces) == a.Count.
func (a Amount) Roll(src Source) (total int, faces []int) {
	faces = make([]int, a.Count)
	total = a.Modifier
	for i := range faces {
		faces[i] = src.Intn(a.Sides) + 1
		total += faces[i]
	}
	return total, faces
}

// UnmarshalYAML lets content files write amounts as plain scalars.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("dice: line %d: amount must be a scalar", node.Line)
	}
	parsed, err := ParseAmount(node.Value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
