package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// FighterInfo is a snapshot of a fighter's state passed to Lua hooks.
type FighterInfo struct {
	ID         string
	Name       string
	Archetype  string
	Path       string
	Stamina    float64
	MaxStamina float64
	Energy     float64
	Level      int
	KO         bool
}

// BattleInfo is the encounter snapshot passed to on_battle_start.
type BattleInfo struct {
	ID      string
	Name    string
	Players []FighterInfo
	Enemies []FighterInfo
}

// RoundSummary is the per-round snapshot passed to on_round_end.
type RoundSummary struct {
	Round   int
	Status  string
	Players []FighterInfo
	Enemies []FighterInfo
	Events  []string
}

// Manager owns one sandboxed LState per running battle and dispatches the
// battle lifecycle hooks. Every battle VM executes the same script
// directory at StartBattle time.
//
// Manager is safe for concurrent StartBattle/EndBattle from batch workers;
// each battle's LState is only ever touched by that battle's goroutine.
type Manager struct {
	mu      sync.RWMutex
	states  map[string]*lua.LState
	cancels map[string]context.CancelFunc
	dir     string
	limit   int
	logger  *zap.Logger

	// Injected after construction. nil = arena.fighter returns nil.
	LookupFighter func(battleID, fighterID string) *FighterInfo
}

// NewManager creates a Manager serving scripts from dir. instLimit 0 uses
// DefaultInstructionLimit.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no battle VMs.
func NewManager(dir string, instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting: NewManager requires a non-nil logger")
	}
	return &Manager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]context.CancelFunc),
		dir:     dir,
		limit:   instLimit,
		logger:  logger,
	}
}

// StartBattle creates a sandboxed VM for battleID, registers the arena.*
// modules, then executes every *.lua file in the script directory in
// lexicographic order. roll may be nil; it backs arena.roll().
//
// Precondition: battleID must be non-empty; the script directory must be
// readable.
// Postcondition: Battle VM is registered; returns error on Lua load failure.
func (m *Manager) StartBattle(battleID string, roll func() int) error {
	L, cancel := NewSandboxedState(m.limit)
	m.registerModules(L, battleID, roll)

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for battle %q: %w", m.dir, battleID, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(m.dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for battle %q: %w", path, battleID, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[battleID]; ok {
		if oldCancel := m.cancels[battleID]; oldCancel != nil {
			oldCancel()
		}
		old.Close()
	}
	m.states[battleID] = L
	m.cancels[battleID] = cancel
	m.mu.Unlock()
	return nil
}

// EndBattle releases battleID's VM. Unknown ids are a no-op.
func (m *Manager) EndBattle(battleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cancel := m.cancels[battleID]; cancel != nil {
		cancel()
	}
	if L, ok := m.states[battleID]; ok {
		L.Close()
	}
	delete(m.states, battleID)
	delete(m.cancels, battleID)
}

// Close releases every battle VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, L := range m.states {
		if cancel := m.cancels[id]; cancel != nil {
			cancel()
		}
		L.Close()
	}
	m.states = make(map[string]*lua.LState)
	m.cancels = make(map[string]context.CancelFunc)
}

// CallHook calls the named Lua global function in battleID's VM. Returns
// (LNil, nil) if the hook is not defined or the battle has no VM. Lua
// runtime errors are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(battleID, hook string, args ...lua.LValue) (lua.LValue, error) {
	L := m.state(battleID)
	if L == nil {
		m.logger.Info("scripting: no VM for battle",
			zap.String("battle_id", battleID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	return m.call(L, battleID, hook, args...), nil
}

// OnBattleStart fires on_battle_start(battle_id, encounter).
func (m *Manager) OnBattleStart(battleID string, info BattleInfo) {
	L := m.state(battleID)
	if L == nil {
		return
	}
	m.call(L, battleID, "on_battle_start", lua.LString(battleID), battleToTable(L, info))
}

// OnRoundStart fires on_round_start(round).
func (m *Manager) OnRoundStart(battleID string, round int) {
	L := m.state(battleID)
	if L == nil {
		return
	}
	m.call(L, battleID, "on_round_start", lua.LNumber(round))
}

// OnRoundEnd fires on_round_end(round, summary).
func (m *Manager) OnRoundEnd(battleID string, s RoundSummary) {
	L := m.state(battleID)
	if L == nil {
		return
	}
	m.call(L, battleID, "on_round_end", lua.LNumber(s.Round), summaryToTable(L, s))
}

// OnBattleEnd fires on_battle_end(status, rounds).
func (m *Manager) OnBattleEnd(battleID, status string, rounds int) {
	L := m.state(battleID)
	if L == nil {
		return
	}
	m.call(L, battleID, "on_battle_end", lua.LString(status), lua.LNumber(rounds))
}

func (m *Manager) state(battleID string) *lua.LState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[battleID]
}

func (m *Manager) call(L *lua.LState, battleID, hook string, args ...lua.LValue) lua.LValue {
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("battle_id", battleID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret
}
