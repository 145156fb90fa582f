package sim_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/decision"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/encounter"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
	"github.com/tgoodington/Ancient-Order-sub001/internal/scripting"
	"github.com/tgoodington/Ancient-Order-sub001/internal/sim"
)

type battleRow struct {
	id        string
	encounter string
	seed      int64
}

type finishRow struct {
	status string
	rounds int
}

// memorySink records everything a battle reports. Reads are only safe
// after the run under test has returned.
type memorySink struct {
	mu        sync.Mutex
	battles   []battleRow
	rounds    map[string][]sim.RoundReport
	finishes  map[string]finishRow
	battleErr error
	roundErr  error
	finishErr error
}

func newMemorySink() *memorySink {
	return &memorySink{
		rounds:   make(map[string][]sim.RoundReport),
		finishes: make(map[string]finishRow),
	}
}

func (m *memorySink) InsertBattle(_ context.Context, battleID, encounterID string, seed int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.battleErr != nil {
		return m.battleErr
	}
	m.battles = append(m.battles, battleRow{id: battleID, encounter: encounterID, seed: seed})
	return nil
}

func (m *memorySink) InsertRound(_ context.Context, battleID string, round int, report any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roundErr != nil {
		return m.roundErr
	}
	rep, ok := report.(sim.RoundReport)
	if !ok {
		return errors.New("unexpected report type")
	}
	if rep.Round != round {
		return errors.New("report round mismatch")
	}
	m.rounds[battleID] = append(m.rounds[battleID], rep)
	return nil
}

func (m *memorySink) FinishBattle(_ context.Context, battleID, status string, rounds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finishErr != nil {
		return m.finishErr
	}
	m.finishes[battleID] = finishRow{status: status, rounds: rounds}
	return nil
}

// recordingObserver keeps every snapshot it is handed.
type recordingObserver struct {
	states  []combat.State
	records []combat.Record
	end     *sim.Result
}

func (o *recordingObserver) OnRound(s combat.State, r combat.Record) {
	o.states = append(o.states, s)
	o.records = append(o.records, r)
}

func (o *recordingObserver) OnEnd(_ combat.State, result sim.Result) {
	o.end = &result
}

// evadeSource declares evade for every player no matter the state.
type evadeSource struct{}

func (evadeSource) NextAction(_ combat.State, actorID string) (combat.Action, error) {
	return combat.Action{Actor: actorID, Type: combat.ActionEvade}, nil
}

func basicSkills() (block, dodge, parry encounter.SkillSpec) {
	block = encounter.SkillSpec{Success: 0.6, SuccessMitigation: 0.5, FailureMitigation: 0.2}
	dodge = encounter.SkillSpec{Success: 0.5, FailureMitigation: 0.3}
	parry = encounter.SkillSpec{Success: 0.4, FailureMitigation: 0.25}
	return block, dodge, parry
}

// duelEncounter pits an overwhelming player against a fragile enemy:
// the player's worst strike still lands far past the enemy's stamina,
// so every seed ends in a quick victory.
func duelEncounter() *encounter.Encounter {
	block, dodge, parry := basicSkills()
	return &encounter.Encounter{
		ID:   "test-duel",
		Name: "Test Duel",
		Players: []encounter.FighterSpec{{
			ID: "p1", Name: "Kael", Archetype: "vanguard", Rank: 1,
			Stamina: 1000, Power: 100, Speed: 12, Path: "ember",
			Block: block, Dodge: dodge, Parry: parry,
		}},
		Enemies: []encounter.FighterSpec{{
			ID: "e1", Name: "Husk", Archetype: "vanguard", Rank: 1,
			Stamina: 50, Power: 10, Speed: 10, Path: "stone",
		}},
	}
}

// stalemateEncounter pairs fighters whose defenses zero every strike,
// so no battle can ever resolve.
func stalemateEncounter() *encounter.Encounter {
	wall := encounter.SkillSpec{Success: 1, SuccessMitigation: 1, FailureMitigation: 1}
	spec := func(id, name string) encounter.FighterSpec {
		return encounter.FighterSpec{
			ID: id, Name: name, Archetype: "warden", Rank: 1,
			Stamina: 100, Power: 50, Speed: 10, Path: "stone",
			Block: wall, Dodge: wall, Parry: wall,
		}
	}
	return &encounter.Encounter{
		ID:      "test-stalemate",
		Name:    "Test Stalemate",
		Players: []encounter.FighterSpec{spec("p1", "Asha")},
		Enemies: []encounter.FighterSpec{spec("e1", "Mirror")},
	}
}

func testDeps(t *testing.T, seed int64) sim.Deps {
	t.Helper()
	return sim.Deps{
		Rules:     combat.DefaultRules(),
		Source:    roll.NewSeededSource(seed),
		Chooser:   decision.NewChooser(decision.NewRegistry(), true),
		Logger:    zaptest.NewLogger(t),
		MaxRounds: 20,
	}
}

func TestBattle_RunsToVictory(t *testing.T) {
	sink := newMemorySink()
	obs := &recordingObserver{}
	deps := testDeps(t, 7)
	deps.Sink = sink
	deps.Observer = obs

	b, err := sim.NewBattle(duelEncounter(), 7, deps)
	require.NoError(t, err)

	res, err := b.RunToCompletion(context.Background())
	require.NoError(t, err)

	assert.Equal(t, b.ID(), res.BattleID)
	assert.Len(t, res.BattleID, 36)
	assert.Equal(t, "test-duel", res.EncounterID)
	assert.Equal(t, int64(7), res.Seed)
	assert.Equal(t, combat.StatusVictory, res.Status)
	assert.GreaterOrEqual(t, res.Rounds, 1)
	assert.LessOrEqual(t, res.Rounds, 3)

	require.Len(t, sink.battles, 1)
	assert.Equal(t, battleRow{id: res.BattleID, encounter: "test-duel", seed: 7}, sink.battles[0])
	assert.Len(t, sink.rounds[res.BattleID], res.Rounds)
	assert.Equal(t, finishRow{status: "victory", rounds: res.Rounds}, sink.finishes[res.BattleID])

	final := sink.rounds[res.BattleID][res.Rounds-1]
	assert.Equal(t, "victory", final.Status)
	require.Len(t, final.Enemies, 1)
	assert.True(t, final.Enemies[0].KO)

	assert.Len(t, obs.records, res.Rounds)
	require.NotNil(t, obs.end)
	assert.Equal(t, res.Status, obs.end.Status)
}

func TestBattle_RoundCapLeavesStatusActive(t *testing.T) {
	sink := newMemorySink()
	deps := testDeps(t, 3)
	deps.Sink = sink
	deps.MaxRounds = 4

	b, err := sim.NewBattle(stalemateEncounter(), 3, deps)
	require.NoError(t, err)

	res, err := b.RunToCompletion(context.Background())
	require.NoError(t, err)

	assert.Equal(t, combat.StatusActive, res.Status)
	assert.Equal(t, 4, res.Rounds)
	assert.Equal(t, finishRow{status: "active", rounds: 4}, sink.finishes[res.BattleID])
	assert.Len(t, sink.rounds[res.BattleID], 4)
}

func TestBattle_ActionSourceOverridesPlayerSide(t *testing.T) {
	sink := newMemorySink()
	deps := testDeps(t, 11)
	deps.Sink = sink
	deps.Players = evadeSource{}
	deps.MaxRounds = 3

	b, err := sim.NewBattle(duelEncounter(), 11, deps)
	require.NoError(t, err)

	res, err := b.RunToCompletion(context.Background())
	require.NoError(t, err)

	// The scripted player never attacks, so the fragile enemy survives
	// to the cap.
	assert.Equal(t, combat.StatusActive, res.Status)
	assert.Equal(t, 3, res.Rounds)
	for _, rep := range sink.rounds[res.BattleID] {
		joined := strings.Join(rep.Events, "\n")
		assert.Contains(t, joined, "Kael gives ground")
	}
}

func TestBattle_SinkInsertFailureAborts(t *testing.T) {
	errDown := errors.New("sink down")
	sink := newMemorySink()
	sink.battleErr = errDown
	deps := testDeps(t, 1)
	deps.Sink = sink

	b, err := sim.NewBattle(duelEncounter(), 1, deps)
	require.NoError(t, err)

	_, err = b.RunToCompletion(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
}

func TestBattle_SinkRoundFailureAborts(t *testing.T) {
	errDown := errors.New("sink down")
	sink := newMemorySink()
	sink.roundErr = errDown
	deps := testDeps(t, 1)
	deps.Sink = sink

	b, err := sim.NewBattle(duelEncounter(), 1, deps)
	require.NoError(t, err)

	_, err = b.RunToCompletion(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
	// The battle row was opened but never finished.
	assert.Len(t, sink.battles, 1)
	assert.Empty(t, sink.finishes)
}

func TestBattle_CancelledContextStopsBetweenRounds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := newMemorySink()
	deps := testDeps(t, 5)
	deps.Sink = sink

	b, err := sim.NewBattle(duelEncounter(), 5, deps)
	require.NoError(t, err)

	_, err = b.RunToCompletion(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.finishes)
}

func TestNewBattle_ValidatesDeps(t *testing.T) {
	base := func(t *testing.T) sim.Deps { return testDeps(t, 1) }
	cases := []struct {
		name    string
		mutate  func(*sim.Deps)
		wantErr string
	}{
		{"nil source", func(d *sim.Deps) { d.Source = nil }, "roll source"},
		{"nil chooser", func(d *sim.Deps) { d.Chooser = nil }, "decision chooser"},
		{"nil logger", func(d *sim.Deps) { d.Logger = nil }, "logger"},
		{"zero max rounds", func(d *sim.Deps) { d.MaxRounds = 0 }, "max rounds"},
		{"zero synergy", func(d *sim.Deps) { d.Rules = combat.Rules{} }, "synergy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := base(t)
			tc.mutate(&deps)
			_, err := sim.NewBattle(duelEncounter(), 1, deps)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewBattle_RejectsInvalidEncounter(t *testing.T) {
	enc := duelEncounter()
	enc.Players = nil
	_, err := sim.NewBattle(enc, 1, testDeps(t, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building rosters")
}

func TestNewBattle_RejectsNilEncounter(t *testing.T) {
	_, err := sim.NewBattle(nil, 1, testDeps(t, 1))
	require.Error(t, err)
}

func TestBattle_HooksSeeLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeLua(t, dir, "trace.lua", `
function on_battle_start(battle)
  arena.log("begin " .. battle.name .. " " .. #battle.players .. "v" .. #battle.enemies)
end
function on_round_start(round)
  arena.log("round " .. round .. " begins")
end
function on_round_end(round, summary)
  arena.log("round " .. round .. " ended " .. summary.status .. " with " .. #summary.events .. " events")
end
function on_battle_end(status, rounds)
  arena.log("finished " .. status .. " in " .. rounds)
end
`)
	core, logs := observer.New(zap.InfoLevel)
	hooks := scripting.NewManager(dir, scripting.DefaultInstructionLimit, zap.New(core))
	defer hooks.Close()

	deps := testDeps(t, 7)
	deps.Hooks = hooks

	b, err := sim.NewBattle(duelEncounter(), 7, deps)
	require.NoError(t, err)
	res, err := b.RunToCompletion(context.Background())
	require.NoError(t, err)

	var messages []string
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, "lua: begin Test Duel 1v1")
	assert.Contains(t, joined, "lua: round 1 begins")
	assert.Contains(t, joined, "ended victory")
	assert.Contains(t, joined, "lua: finished victory in")
	assert.Equal(t, combat.StatusVictory, res.Status)
}

func TestBattle_MissingScriptDirRunsHookless(t *testing.T) {
	hooks := scripting.NewManager(filepath.Join(t.TempDir(), "absent"), scripting.DefaultInstructionLimit, zaptest.NewLogger(t))
	defer hooks.Close()

	deps := testDeps(t, 7)
	deps.Hooks = hooks

	b, err := sim.NewBattle(duelEncounter(), 7, deps)
	require.NoError(t, err)
	res, err := b.RunToCompletion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, combat.StatusVictory, res.Status)
}

// TestProperty_ReplaySameSeedSameBattle runs every seed twice and
// expects an identical transcript both times.
func TestProperty_ReplaySameSeedSameBattle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64Range(0, 1<<30).Draw(rt, "seed")

		run := func() (sim.Result, []sim.RoundReport) {
			sink := newMemorySink()
			deps := testDeps(t, seed)
			deps.Source = roll.NewSeededSource(seed)
			deps.Sink = sink
			b, err := sim.NewBattle(duelEncounter(), seed, deps)
			require.NoError(rt, err)
			res, err := b.RunToCompletion(context.Background())
			require.NoError(rt, err)
			return res, sink.rounds[res.BattleID]
		}

		first, firstRounds := run()
		second, secondRounds := run()

		assert.Equal(rt, first.Status, second.Status)
		assert.Equal(rt, first.Rounds, second.Rounds)
		assert.Equal(rt, firstRounds, secondRounds)
	})
}

func writeLua(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}
