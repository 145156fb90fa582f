// Package sim drives complete battles. A Battle owns one combat state
// together with its roll source and decision chooser, collects a full
// round of declarations, resolves it, and fans the outcome out to the
// observer, the Lua hooks, and the report sink. The batch driver runs
// many battles across a worker pool with per-battle seeds derived from
// one base seed.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/combat"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/decision"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/encounter"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
	"github.com/tgoodington/Ancient-Order-sub001/internal/scripting"
)

// ActionSource supplies declarations for the player roster. NextAction
// is called once per living player-side combatant each round, in roster
// order, against a snapshot of the current state. The returned action
// must pass State.Declare.
type ActionSource interface {
	NextAction(s combat.State, actorID string) (combat.Action, error)
}

// Deps carries a battle's collaborators. Source, Chooser, and Logger
// are required; Players, Hooks, Sink, and Observer may be nil, in which
// case the player roster plays itself through the chooser and the
// corresponding fan-out step is skipped.
type Deps struct {
	Rules     combat.Rules
	Source    roll.Source
	Chooser   *decision.Chooser
	Players   ActionSource
	Hooks     *scripting.Manager
	Sink      ReportSink
	Observer  Observer
	Logger    *zap.Logger
	MaxRounds int
}

func (d Deps) validate() error {
	if d.Source == nil {
		return fmt.Errorf("sim: a roll source is required")
	}
	return d.validateCommon()
}

// validateCommon checks every dependency except the roll source, which
// the batch driver supplies per battle.
func (d Deps) validateCommon() error {
	if d.Chooser == nil {
		return fmt.Errorf("sim: a decision chooser is required")
	}
	if d.Logger == nil {
		return fmt.Errorf("sim: a logger is required")
	}
	if d.MaxRounds < 1 {
		return fmt.Errorf("sim: max rounds must be at least 1, got %d", d.MaxRounds)
	}
	if d.Rules.GroupSynergy <= 0 {
		return fmt.Errorf("sim: group synergy multiplier must be positive, got %v", d.Rules.GroupSynergy)
	}
	return nil
}

// Result summarizes one finished battle. Status is StatusActive when the
// battle hit the round cap unresolved.
type Result struct {
	BattleID    string
	EncounterID string
	Seed        int64
	Status      combat.Status
	Rounds      int
	Elapsed     time.Duration
}

// Battle runs one encounter to completion. A Battle is single-use and
// confined to one goroutine; only lookupFighter is ever reached from
// outside, and only synchronously during this battle's own hook calls.
type Battle struct {
	id            string
	encounterID   string
	encounterName string
	seed          int64
	state         combat.State
	rounds        int
	deps          Deps
	scriptSrc     roll.Source
	logger        *zap.Logger
}

// NewBattle builds fresh rosters from the encounter and wires a runnable
// battle. Each call instantiates its own combatants, so one encounter
// value can seed any number of battles.
func NewBattle(enc *encounter.Encounter, seed int64, deps Deps) (*Battle, error) {
	if enc == nil {
		return nil, fmt.Errorf("sim: an encounter is required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	players, enemies, err := enc.Build()
	if err != nil {
		return nil, fmt.Errorf("sim: building rosters: %w", err)
	}

	id := uuid.New().String()
	return &Battle{
		id:            id,
		encounterID:   enc.ID,
		encounterName: enc.Name,
		seed:          seed,
		state:         combat.NewState(players, enemies),
		deps:          deps,
		// Scripts roll from their own stream so a curious hook can never
		// perturb combat resolution.
		scriptSrc: roll.NewSeededSource(seed + 1),
		logger: deps.Logger.With(
			zap.String("battle_id", id),
			zap.String("encounter", enc.ID),
			zap.Int64("seed", seed),
		),
	}, nil
}

// ID returns the battle's generated identifier.
func (b *Battle) ID() string {
	return b.id
}

// RunToCompletion plays rounds until a side falls or the round cap is
// reached, checking ctx only between rounds. Script load failures are
// logged and the battle continues hookless; sink failures abort the
// battle. On abort the battle row, if any, is left unfinished.
func (b *Battle) RunToCompletion(ctx context.Context) (Result, error) {
	start := time.Now()
	b.logger.Info("battle starting",
		zap.String("name", b.encounterName),
		zap.Int("players", len(b.state.Players)),
		zap.Int("enemies", len(b.state.Enemies)),
	)

	if b.deps.Hooks != nil {
		if err := b.deps.Hooks.StartBattle(b.id, b.scriptSrc.Roll); err != nil {
			b.logger.Error("loading battle scripts; continuing without hooks", zap.Error(err))
			b.deps.Hooks = nil
		} else {
			defer b.deps.Hooks.EndBattle(b.id)
			b.deps.Hooks.OnBattleStart(b.id, b.battleInfo())
		}
	}
	if b.deps.Sink != nil {
		if err := b.deps.Sink.InsertBattle(ctx, b.id, b.encounterID, b.seed); err != nil {
			return Result{}, fmt.Errorf("sim: recording battle %s: %w", b.id, err)
		}
	}

	for b.state.Status == combat.StatusActive && b.rounds < b.deps.MaxRounds {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
		if err := b.playRound(ctx); err != nil {
			return Result{}, err
		}
	}

	result := Result{
		BattleID:    b.id,
		EncounterID: b.encounterID,
		Seed:        b.seed,
		Status:      b.state.Status,
		Rounds:      b.rounds,
		Elapsed:     time.Since(start),
	}
	if b.deps.Hooks != nil {
		b.deps.Hooks.OnBattleEnd(b.id, result.Status.String(), result.Rounds)
	}
	if b.deps.Sink != nil {
		if err := b.deps.Sink.FinishBattle(ctx, b.id, result.Status.String(), result.Rounds); err != nil {
			return Result{}, fmt.Errorf("sim: finishing battle %s: %w", b.id, err)
		}
	}
	if b.deps.Observer != nil {
		b.deps.Observer.OnEnd(b.state.Snapshot(), result)
	}
	b.logger.Info("battle complete",
		zap.String("status", result.Status.String()),
		zap.Int("rounds", result.Rounds),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// playRound collects every declaration, resolves, and fans the round
// out: observer first, then hooks, then the sink.
func (b *Battle) playRound(ctx context.Context) error {
	round := b.state.Round
	if b.deps.Hooks != nil {
		b.deps.Hooks.OnRoundStart(b.id, round)
	}
	if err := b.declareAll(); err != nil {
		return err
	}

	next, record, err := combat.ResolveRound(b.state, b.deps.Rules, b.deps.Source)
	if err != nil {
		return fmt.Errorf("sim: resolving round %d: %w", round, err)
	}
	b.state = next
	b.rounds++

	snap := b.state.Snapshot()
	if b.deps.Observer != nil {
		b.deps.Observer.OnRound(snap, record.Clone())
	}
	if b.deps.Hooks != nil {
		b.deps.Hooks.OnRoundEnd(b.id, b.roundSummary(snap, record))
	}
	if b.deps.Sink != nil {
		if err := b.deps.Sink.InsertRound(ctx, b.id, record.Round, NewRoundReport(snap, record)); err != nil {
			return fmt.Errorf("sim: storing round %d: %w", record.Round, err)
		}
	}
	b.logger.Debug("round resolved",
		zap.Int("round", record.Round),
		zap.Int("events", len(record.Events)),
		zap.Int("players_living", b.state.LivingCount(combat.SidePlayers)),
		zap.Int("enemies_living", b.state.LivingCount(combat.SideEnemies)),
		zap.String("status", b.state.Status.String()),
	)
	return nil
}

// declareAll queues one action per living combatant, players first in
// roster order, then enemies. The enemy roster always plays through the
// chooser; the player roster does too unless an ActionSource is wired.
func (b *Battle) declareAll() error {
	for _, c := range b.state.Living(combat.SidePlayers) {
		var (
			action combat.Action
			err    error
		)
		if b.deps.Players != nil {
			action, err = b.deps.Players.NextAction(b.state.Snapshot(), c.ID)
			if err != nil {
				return fmt.Errorf("sim: action source for %s: %w", c.ID, err)
			}
		} else if action, err = b.choose(c.ID); err != nil {
			return err
		}
		if b.state, err = b.state.Declare(action); err != nil {
			return fmt.Errorf("sim: declaring for %s: %w", c.ID, err)
		}
	}
	for _, c := range b.state.Living(combat.SideEnemies) {
		action, err := b.choose(c.ID)
		if err != nil {
			return err
		}
		if b.state, err = b.state.Declare(action); err != nil {
			return fmt.Errorf("sim: declaring for %s: %w", c.ID, err)
		}
	}
	return nil
}

// choose runs the decision system for one combatant and logs the
// explanation so a replayed battle can be audited choice by choice.
func (b *Battle) choose(id string) (combat.Action, error) {
	action, expl, err := b.deps.Chooser.Choose(b.state, id)
	if err != nil {
		return combat.Action{}, fmt.Errorf("sim: choosing for %s: %w", id, err)
	}
	b.logger.Debug("action chosen",
		zap.Int("round", expl.Round),
		zap.String("actor", expl.Actor),
		zap.String("archetype", expl.Archetype),
		zap.String("action", action.Type.String()),
		zap.String("target", action.Target),
		zap.Int("segments", action.Segments),
		zap.Float64("score", expl.Chosen.Total),
		zap.Int("candidates", len(expl.Candidates)),
	)
	return action, nil
}

// battleInfo snapshots the opening rosters for the on_battle_start hook.
func (b *Battle) battleInfo() scripting.BattleInfo {
	return scripting.BattleInfo{
		ID:      b.id,
		Name:    b.encounterName,
		Players: fighterInfos(b.state.Players),
		Enemies: fighterInfos(b.state.Enemies),
	}
}

// roundSummary converts one resolved round into the hook payload.
func (b *Battle) roundSummary(snap combat.State, record combat.Record) scripting.RoundSummary {
	return scripting.RoundSummary{
		Round:   record.Round,
		Status:  snap.Status.String(),
		Players: fighterInfos(snap.Players),
		Enemies: fighterInfos(snap.Enemies),
		Events:  narrateAll(snap, record.Events),
	}
}

// lookupFighter backs arena.fighter for this battle. Hooks run
// synchronously on the battle's goroutine, so reading the live state
// here is safe; it must never be called from anywhere else.
func (b *Battle) lookupFighter(id string) *scripting.FighterInfo {
	c, _, ok := b.state.Find(id)
	if !ok {
		return nil
	}
	info := fighterInfo(c)
	return &info
}

func fighterInfo(c combat.Combatant) scripting.FighterInfo {
	return scripting.FighterInfo{
		ID:         c.ID,
		Name:       c.Name,
		Archetype:  c.Archetype,
		Path:       c.Path.String(),
		Stamina:    c.Stamina,
		MaxStamina: c.MaxStamina,
		Energy:     c.Energy.Segments,
		Level:      c.Energy.Level,
		KO:         c.KO,
	}
}

func fighterInfos(roster []combat.Combatant) []scripting.FighterInfo {
	out := make([]scripting.FighterInfo, len(roster))
	for i, c := range roster {
		out[i] = fighterInfo(c)
	}
	return out
}
