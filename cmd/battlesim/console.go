package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/command"
	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/combat"
)

// console reads player commands from a terminal. It implements
// battle.InputProvider.
type console struct {
	in  *bufio.Scanner
	out io.Writer
	reg *command.Registry
}

func newConsole(in io.Reader, out io.Writer) *console {
	return &console{in: bufio.NewScanner(in), out: out, reg: command.DefaultRegistry()}
}

// ChooseAction prompts until the line names one of actions. Informational
// commands and mistakes re-prompt; end of input is an error.
func (c *console) ChooseAction(actor *combat.Combatant, enc *combat.Encounter, actions []combat.Action) (combat.Action, error) {
	fmt.Fprintf(c.out, "\n%s  HP %d/%d  AP %d/%d\n", actor.Name, actor.HP(), actor.Stats.MaxHP, actor.AP(), actor.Stats.MaxAP)
	for {
		fmt.Fprintf(c.out, "%s> ", strings.ToLower(actor.Name))
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return combat.Action{}, err
			}
			return combat.Action{}, io.EOF
		}
		ch, err := c.reg.Select(c.in.Text(), actions)
		if err != nil {
			if errors.Is(err, command.ErrUnknownCommand) {
				fmt.Fprintf(c.out, "%v (type help)\n", err)
			} else {
				fmt.Fprintln(c.out, err)
			}
			continue
		}
		switch ch.Command.Handler {
		case command.HandlerHelp:
			c.help()
		case command.HandlerStatus:
			c.status(enc)
		case command.HandlerActions:
			c.list(actions)
		default:
			return ch.Action, nil
		}
	}
}

func (c *console) help() {
	for _, cat := range []string{command.CategoryAction, command.CategoryInfo} {
		for _, cmd := range c.reg.CommandsByCategory()[cat] {
			fmt.Fprintf(c.out, "  %-26s %s\n", cmd.Usage, cmd.Help)
		}
	}
}

func (c *console) status(enc *combat.Encounter) {
	for _, side := range []combat.Side{combat.SidePlayer, combat.SideEnemy} {
		for _, cb := range enc.Roster(side) {
			s := cb.Snapshot()
			line := fmt.Sprintf("  %-20s HP %4d/%-4d AP %3d/%-3d", s.Name, s.HP, s.MaxHP, s.AP, s.MaxAP)
			if len(s.Statuses) > 0 {
				line += " [" + strings.Join(s.Statuses, ", ") + "]"
			}
			fmt.Fprintln(c.out, line)
		}
	}
}

func (c *console) list(actions []combat.Action) {
	for _, a := range actions {
		names := make([]string, 0, len(a.Targets))
		for _, t := range a.Targets {
			names = append(names, t.Name)
		}
		name := a.Kind.String()
		switch {
		case a.AbilityID != "":
			name = "skill " + a.AbilityID
		case a.ItemID != "":
			name = "use " + a.ItemID
		}
		if len(names) > 0 {
			name += " -> " + strings.Join(names, ", ")
		}
		fmt.Fprintln(c.out, "  "+name)
	}
}
