package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/Jord-L/Claude-Code-Test-RPG-sub001/internal/game/dice"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.{debug,info,warn,error}(msg)
//	engine.dice.roll(expr) -> {total, dice, modifier}
//	engine.battle.{get_hp,get_max_hp,get_ap,get_name,get_side,get_level,get_statuses,has_status}(id)
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "battle", m.battleModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		fn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn("lua: " + L.CheckString(1))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		expr := L.CheckString(1)
		amt, err := dice.ParseAmount(expr)
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		total := m.roller.Amount("lua:"+expr, amt)
		res := L.NewTable()
		L.SetField(res, "total", lua.LNumber(total))
		L.SetField(res, "dice", lua.LNumber(total-amt.Modifier))
		L.SetField(res, "modifier", lua.LNumber(amt.Modifier))
		L.Push(res)
		return 1
	}))
	return mod
}

func (m *Manager) battleModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	getter := func(read func(*CombatantInfo) lua.LValue) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			if m.GetCombatant == nil {
				L.Push(lua.LNil)
				return 1
			}
			info := m.GetCombatant(id)
			if info == nil {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(read(info))
			return 1
		})
	}

	L.SetField(mod, "get_hp", getter(func(c *CombatantInfo) lua.LValue { return lua.LNumber(c.HP) }))
	L.SetField(mod, "get_max_hp", getter(func(c *CombatantInfo) lua.LValue { return lua.LNumber(c.MaxHP) }))
	L.SetField(mod, "get_ap", getter(func(c *CombatantInfo) lua.LValue { return lua.LNumber(c.AP) }))
	L.SetField(mod, "get_name", getter(func(c *CombatantInfo) lua.LValue { return lua.LString(c.Name) }))
	L.SetField(mod, "get_side", getter(func(c *CombatantInfo) lua.LValue { return lua.LString(c.Side) }))
	L.SetField(mod, "get_level", getter(func(c *CombatantInfo) lua.LValue { return lua.LNumber(c.Level) }))
	L.SetField(mod, "get_statuses", getter(func(c *CombatantInfo) lua.LValue {
		t := L.NewTable()
		for _, s := range c.Statuses {
			t.Append(lua.LString(s))
		}
		return t
	}))
	L.SetField(mod, "has_status", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		status := L.CheckString(2)
		if m.GetCombatant == nil {
			L.Push(lua.LFalse)
			return 1
		}
		info := m.GetCombatant(id)
		if info == nil {
			L.Push(lua.LFalse)
			return 1
		}
		for _, s := range info.Statuses {
			if s == status {
				L.Push(lua.LTrue)
				return 1
			}
		}
		L.Push(lua.LFalse)
		return 1
	}))
	return mod
}
