package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules registers the arena.* table into L for one battle's VM.
// roll may be nil; arena.roll then returns nil.
func (m *Manager) registerModules(L *lua.LState, battleID string, roll func() int) {
	logger := m.logger.With(zap.String("battle_id", battleID))

	arena := L.NewTable()

	L.SetField(arena, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Info("lua: " + L.CheckString(1))
		return 0
	}))
	L.SetField(arena, "debug", L.NewFunction(func(L *lua.LState) int {
		logger.Debug("lua: " + L.CheckString(1))
		return 0
	}))
	L.SetField(arena, "warn", L.NewFunction(func(L *lua.LState) int {
		logger.Warn("lua: " + L.CheckString(1))
		return 0
	}))

	L.SetField(arena, "roll", L.NewFunction(func(L *lua.LState) int {
		if roll == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(roll()))
		return 1
	}))

	L.SetField(arena, "fighter", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		lookup := m.LookupFighter
		if lookup == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := lookup(battleID, id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(fighterToTable(L, *info))
		return 1
	}))

	L.SetGlobal("arena", arena)
}

func fighterToTable(L *lua.LState, f FighterInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(f.ID))
	t.RawSetString("name", lua.LString(f.Name))
	t.RawSetString("archetype", lua.LString(f.Archetype))
	t.RawSetString("path", lua.LString(f.Path))
	t.RawSetString("stamina", lua.LNumber(f.Stamina))
	t.RawSetString("max_stamina", lua.LNumber(f.MaxStamina))
	t.RawSetString("energy", lua.LNumber(f.Energy))
	t.RawSetString("level", lua.LNumber(f.Level))
	t.RawSetString("ko", lua.LBool(f.KO))
	return t
}

func rosterToTable(L *lua.LState, roster []FighterInfo) *lua.LTable {
	t := L.NewTable()
	for _, f := range roster {
		t.Append(fighterToTable(L, f))
	}
	return t
}

func battleToTable(L *lua.LState, info BattleInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(info.ID))
	t.RawSetString("name", lua.LString(info.Name))
	t.RawSetString("players", rosterToTable(L, info.Players))
	t.RawSetString("enemies", rosterToTable(L, info.Enemies))
	return t
}

func summaryToTable(L *lua.LState, s RoundSummary) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("round", lua.LNumber(s.Round))
	t.RawSetString("status", lua.LString(s.Status))
	t.RawSetString("players", rosterToTable(L, s.Players))
	t.RawSetString("enemies", rosterToTable(L, s.Enemies))
	events := L.NewTable()
	for _, e := range s.Events {
		events.Append(lua.LString(e))
	}
	t.RawSetString("events", events)
	return t
}
