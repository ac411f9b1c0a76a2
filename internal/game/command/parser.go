package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

var (
	// ErrUnknownCommand is returned for input that names no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoSuchAction is returned when a command matches no legal action.
	ErrNoSuchAction = errors.New("no such action available")
)

// ParseResult holds the parsed command word and arguments of one input line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	Args    []string
}

// Parse splits a text line into a lowercased command word and its arguments.
//
// Postcondition: If line is blank, Command is empty and Args is nil.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}

// Choice is the interpretation of one input line.
type Choice struct {
	Command *Command
	// Action is set only when Command spends the turn.
	Action combat.Action
}

// Select interprets line for actor against the legal actions of this turn.
//
// Targets may be named by combatant ID, by a case-insensitive name prefix or
// by their 1-based position in the list of candidates, and may be omitted to
// take the first candidate. Ability and item IDs accept a unique prefix.
//
// Postcondition: Returns a Choice whose Action is one of actions, a Choice for
// an informational command, or an error wrapping ErrUnknownCommand or
// ErrNoSuchAction.
func (r *Registry) Select(line string, actions []combat.Action) (Choice, error) {
	in := Parse(line)
	if in.Command == "" {
		return Choice{}, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}
	cmd, ok := r.Resolve(in.Command)
	if !ok {
		return Choice{}, fmt.Errorf("%w: %q", ErrUnknownCommand, in.Command)
	}
	kind := cmd.ActionKind()
	if kind == combat.ActionUnknown {
		return Choice{Command: cmd}, nil
	}

	candidates := make([]combat.Action, 0, len(actions))
	for _, a := range actions {
		if a.Kind == kind {
			candidates = append(candidates, a)
		}
	}
	args := in.Args
	if kind == combat.ActionAbility || kind == combat.ActionItem {
		if len(args) == 0 {
			return Choice{}, fmt.Errorf("%w: usage %s", ErrNoSuchAction, cmd.Usage)
		}
		id, err := matchID(candidates, args[0], kind)
		if err != nil {
			return Choice{}, err
		}
		candidates = filter(candidates, func(a combat.Action) bool {
			return a.AbilityID == id || (kind == combat.ActionItem && a.ItemID == id)
		})
		args = args[1:]
	}
	if len(candidates) == 0 {
		return Choice{}, fmt.Errorf("%w: %s", ErrNoSuchAction, cmd.Name)
	}
	if len(args) == 0 {
		return Choice{Command: cmd, Action: candidates[0]}, nil
	}
	a, err := matchTarget(candidates, strings.Join(args, " "))
	if err != nil {
		return Choice{}, err
	}
	return Choice{Command: cmd, Action: a}, nil
}

// matchID resolves an exact or uniquely-prefixed ability or item ID.
func matchID(actions []combat.Action, token string, kind combat.ActionKind) (string, error) {
	token = strings.ToLower(token)
	seen := make(map[string]bool)
	var prefixed []string
	for _, a := range actions {
		id := a.AbilityID
		if kind == combat.ActionItem {
			id = a.ItemID
		}
		if id == token {
			return id, nil
		}
		if strings.HasPrefix(id, token) && !seen[id] {
			seen[id] = true
			prefixed = append(prefixed, id)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoSuchAction, token)
	default:
		return "", fmt.Errorf("%w: %q is ambiguous between %s", ErrNoSuchAction, token, strings.Join(prefixed, ", "))
	}
}

// matchTarget picks the action whose first target matches token.
func matchTarget(actions []combat.Action, token string) (combat.Action, error) {
	if n, err := strconv.Atoi(token); err == nil {
		if n >= 1 && n <= len(actions) {
			return actions[n-1], nil
		}
		return combat.Action{}, fmt.Errorf("%w: target %d of %d", ErrNoSuchAction, n, len(actions))
	}
	lower := strings.ToLower(token)
	for _, a := range actions {
		if len(a.Targets) > 0 && a.Targets[0].ID == token {
			return a, nil
		}
	}
	for _, a := range actions {
		if len(a.Targets) > 0 && strings.HasPrefix(strings.ToLower(a.Targets[0].Name), lower) {
			return a, nil
		}
	}
	return combat.Action{}, fmt.Errorf("%w: no target %q", ErrNoSuchAction, token)
}

func filter(actions []combat.Action, keep func(combat.Action) bool) []combat.Action {
	out := actions[:0:0]
	for _, a := range actions {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
