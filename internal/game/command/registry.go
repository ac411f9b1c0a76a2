package command

import (
	"fmt"
	"slices"
	"strings"
)

// Registry resolves typed words to battle commands. Every command is reachable
// by its name and its aliases through one lookup table, and commands are
// grouped by category for help listings.
type Registry struct {
	words  map[string]*Command
	sorted []*Command
	groups map[string][]*Command
}

// NewRegistry indexes cmds.
//
// Precondition: No word may be both a command name and an alias, and no word
// may be used twice.
// Postcondition: Returns a Registry or an error naming the first collision.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		words:  make(map[string]*Command),
		groups: make(map[string][]*Command),
	}
	for i := range cmds {
		cmd := &cmds[i]
		if prev, taken := r.words[cmd.Name]; taken {
			return nil, fmt.Errorf("duplicate command name: %q (already used by %q)", cmd.Name, prev.Name)
		}
		r.words[cmd.Name] = cmd
		r.sorted = append(r.sorted, cmd)
	}
	for _, cmd := range r.sorted {
		for _, alias := range cmd.Aliases {
			prev, taken := r.words[alias]
			switch {
			case !taken:
				r.words[alias] = cmd
			case prev.Name == alias:
				return nil, fmt.Errorf("alias %q of %q conflicts with a command name", alias, cmd.Name)
			default:
				return nil, fmt.Errorf("duplicate alias %q: used by %q and %q", alias, prev.Name, cmd.Name)
			}
		}
	}
	slices.SortFunc(r.sorted, func(a, b *Command) int { return strings.Compare(a.Name, b.Name) })
	for _, cmd := range r.sorted {
		r.groups[cmd.Category] = append(r.groups[cmd.Category], cmd)
	}
	return r, nil
}

// DefaultRegistry returns a Registry of BuiltinCommands. It panics if the
// built-in table collides with itself.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias.
func (r *Registry) Resolve(word string) (*Command, bool) {
	cmd, ok := r.words[word]
	return cmd, ok
}

// Commands returns every command sorted by name.
func (r *Registry) Commands() []*Command {
	return slices.Clone(r.sorted)
}

// CommandsByCategory returns the commands of each category, sorted by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	out := make(map[string][]*Command, len(r.groups))
	for cat, cmds := range r.groups {
		out[cat] = slices.Clone(cmds)
	}
	return out
}
