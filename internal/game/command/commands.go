// Package command turns typed battle commands ("attack marine b", "use meat
// zoro", "flee") into legal combat actions for a human-controlled combatant.
package command

import "github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"

// Categories for organizing commands.
const (
	CategoryAction = "action"
	CategoryInfo   = "info"
)

// Handler identifiers.
const (
	HandlerAttack  = "attack"
	HandlerAbility = "ability"
	HandlerItem    = "item"
	HandlerDefend  = "defend"
	HandlerFlee    = "flee"
	HandlerStatus  = "status"
	HandlerActions = "actions"
	HandlerHelp    = "help"
)

// Command defines a player-invocable battle command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument shape, e.g. "attack <target>".
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category is CategoryAction for commands that spend the turn.
	Category string
	Handler  string
}

// ActionKind returns the combat action a command chooses, or ActionUnknown
// for informational commands.
func (c *Command) ActionKind() combat.ActionKind {
	switch c.Handler {
	case HandlerAttack:
		return combat.ActionAttack
	case HandlerAbility:
		return combat.ActionAbility
	case HandlerItem:
		return combat.ActionItem
	case HandlerDefend:
		return combat.ActionDefend
	case HandlerFlee:
		return combat.ActionFlee
	default:
		return combat.ActionUnknown
	}
}

// BuiltinCommands returns every battle command.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "attack", Aliases: []string{"a", "att", "hit"}, Usage: "attack [target]", Help: "Basic attack against one enemy", Category: CategoryAction, Handler: HandlerAttack},
		{Name: "skill", Aliases: []string{"s", "ability", "cast"}, Usage: "skill <ability> [target]", Help: "Use an ability", Category: CategoryAction, Handler: HandlerAbility},
		{Name: "use", Aliases: []string{"u", "item"}, Usage: "use <item> [target]", Help: "Use an item from the bag", Category: CategoryAction, Handler: HandlerItem},
		{Name: "defend", Aliases: []string{"d", "guard"}, Usage: "defend", Help: "Halve incoming damage until your next turn", Category: CategoryAction, Handler: HandlerDefend},
		{Name: "flee", Aliases: []string{"f", "run"}, Usage: "flee", Help: "Try to escape the battle", Category: CategoryAction, Handler: HandlerFlee},
		{Name: "status", Aliases: []string{"st"}, Usage: "status", Help: "Show every combatant's HP, AP and statuses", Category: CategoryInfo, Handler: HandlerStatus},
		{Name: "actions", Aliases: []string{"ls", "list"}, Usage: "actions", Help: "List the actions available this turn", Category: CategoryInfo, Handler: HandlerActions},
		{Name: "help", Aliases: []string{"?", "h"}, Usage: "help", Help: "Show available commands", Category: CategoryInfo, Handler: HandlerHelp},
	}
}
