package combat

import (
	"errors"
	"fmt"

	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
)

// ErrIncompleteDeclarations rejects resolution while any living combatant
// has yet to declare.
var ErrIncompleteDeclarations = errors.New("every living combatant must declare before resolution")

// Rules carries the tunable constants of round resolution.
type Rules struct {
	// GroupSynergy scales the summed base damage of a group strike.
	GroupSynergy float64
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{GroupSynergy: 1.5}
}

// ResolveRound consumes a fully declared queue and plays the round out:
// sort by priority, resolve each entry in order, score the outcome, and
// cross the round boundary. It returns the new state and the round's
// record; on error the input state is returned unchanged.
//
// Group strikes conscript their roster as they resolve, so a conscripted
// combatant's own queued entry is skipped. Entries of combatants who fell
// earlier in the round are skipped silently; strikes whose target fell
// resolve to a narrative-only event. Rolls are drawn in a fixed order per
// entry, so an identical state and roll sequence reproduce an identical
// round.
func ResolveRound(s State, rules Rules, src roll.Source) (State, Record, error) {
	if s.Status != StatusActive || s.Phase == PhaseComplete {
		return s, Record{}, ErrCombatComplete
	}
	if s.Phase != PhaseDeclaration {
		return s, Record{}, ErrWrongPhase
	}
	if !s.AllDeclared() {
		return s, Record{}, ErrIncompleteDeclarations
	}

	s.Phase = PhaseResolution
	record := Record{Round: s.Round}
	ordered := SortQueue(s, src)
	consumed := make(map[string]bool)

	for _, a := range ordered {
		if consumed[a.Actor] {
			continue
		}
		actor, side, ok := s.Find(a.Actor)
		if !ok {
			continue
		}

		switch a.Type {
		case ActionGroup:
			// The strike outlives its leader: it resolves while any
			// roster member still stands.
			for _, member := range s.Living(side) {
				consumed[member.ID] = true
			}
			var res GroupResult
			s, res = ResolveGroup(s, a, rules.GroupSynergy, src)
			event := Event{Actor: a.Actor, Group: &res}
			if res.TargetVanished {
				event.Narrative = fmt.Sprintf("%s's gathered strike finds no target.", actor.Name)
			}
			record.Events = append(record.Events, event)

		case ActionDefend:
			if !actor.Living() {
				continue
			}
			record.Events = append(record.Events, Event{
				Actor:     a.Actor,
				Narrative: fmt.Sprintf("%s holds guard over %s.", actor.Name, s.displayName(a.Target)),
			})

		case ActionEvade:
			if !actor.Living() {
				continue
			}
			regen := formula.EvadeRegen(actor.MaxStamina)
			s = s.withCombatant(actor.WithRegen(regen).WithEnergyAward(formula.GainAction, true))
			record.Events = append(record.Events, Event{
				Actor: a.Actor,
				Evade: &EvadeResult{Actor: a.Actor, Regen: regen},
			})

		case ActionAttack, ActionSpecial:
			if !actor.Living() {
				continue
			}
			var event Event
			s, event = resolveStrike(s, a, consumed, src)
			record.Events = append(record.Events, event)
		}
	}

	s.Status = s.scoreOutcome()
	if s.Status == StatusActive {
		s = s.crossRoundBoundary()
	} else {
		s.Phase = PhaseComplete
		s.Queue = nil
	}

	history := make([]Record, len(s.History), len(s.History)+1)
	copy(history, s.History)
	s.History = append(history, record.Clone())
	return s, record, nil
}

// resolveStrike runs the seven-step sequence for one ATTACK or SPECIAL:
// true-target resolution, the rank-KO and blindside checks, reaction
// selection, the defense roll with damage and the crushing check, the
// counter chain, and the closing bookkeeping. A successful rank KO does
// not skip the later steps; the forced KO lands on top of whatever they
// produced.
func resolveStrike(s State, a Action, consumed map[string]bool, src roll.Source) (State, Event) {
	attacker, _, _ := s.Find(a.Actor)

	result := AttackResult{
		Attacker:      a.Actor,
		ActionType:    a.Type,
		NominalTarget: a.Target,
		Target:        a.Target,
		Segments:      a.Segments,
		RankKO:        CheckResult{Roll: NoRoll},
		Blindside:     CheckResult{Roll: NoRoll},
		Crushing:      CheckResult{Roll: NoRoll},
	}

	// Step 1: true target. A guard declared over the nominal target takes
	// the strike in their ward's place.
	target, ok := s.trueTarget(a.Target, consumed)
	if !ok {
		return s, Event{
			Actor:     a.Actor,
			Narrative: fmt.Sprintf("%s finds no one left to strike.", attacker.Name),
		}
	}
	result.Target = target.ID
	result.Redirected = target.ID != a.Target

	// Steps 2 and 3: the dominance checks, each rolled only when its
	// eligibility condition holds.
	if threshold, eligible := formula.RankKOThreshold(attacker.Rank, target.Rank); eligible {
		result.RankKO = rollCheck(threshold, src)
	}
	if threshold, eligible := formula.BlindsideThreshold(attacker.Speed, target.Speed); eligible {
		result.Blindside = rollCheck(threshold, src)
	}

	// Step 4: reaction selection. Blindside strips the defense outright;
	// otherwise a special forces the reaction its path dictates; otherwise
	// the target blocks.
	reaction := element.ReactionBlock
	forced := false
	if result.Blindside.Success {
		reaction = element.ReactionDefenseless
		forced = true
	} else if a.Type == ActionSpecial {
		reaction = attacker.Path.Forced()
		forced = true
	}

	// Step 5: damage and the crushing check.
	raw := formula.BaseDamage(attacker.Power, target.Power)
	actionPower := attacker.Power
	if a.Type == ActionSpecial {
		raw = formula.SpecialDamage(raw, a.Segments)
		actionPower = formula.SpecialDamage(attacker.Power, a.Segments)
	}
	result.Raw = raw
	result.Defense = ResolveDefense(target, reaction, forced, src)
	result.Final = raw * result.Defense.Multiplier
	if reaction == element.ReactionBlock {
		if threshold, eligible := formula.CrushingThreshold(actionPower, target.Power); eligible {
			result.Crushing = rollCheck(threshold, src)
		}
	}
	target = target.WithDamage(result.Final)

	// Step 6: a successful parry spawns the counter chain.
	if reaction == element.ReactionParry && result.Defense.Success {
		attacker, target, result.Chain = ResolveCounterChain(attacker, target, src)
	}

	// Step 7: closing bookkeeping. Energy for both participants, the
	// special's segment spend, path shifts, and the rank-KO terminal
	// effect, in that order.
	attackLanded := result.Final > 0
	attacker = attacker.WithEnergyAward(formula.GainAction, attackLanded || result.RankKO.Success)
	if a.Type == ActionSpecial {
		attacker = attacker.WithSpentSegments(a.Segments)
	}
	target = target.WithEnergyAward(formula.GainReaction, result.Defense.Success)
	if target.Path.Style() == element.StyleReaction && result.Defense.Success && reaction == target.Path.Matching() {
		target = target.WithShift(element.ShiftPathBuff, target.Path.Matching())
	}
	if attacker.Path.Style() == element.StyleAction && attackLanded {
		target = target.WithShift(element.ShiftPathDebuff, attacker.Path.Matching())
	}
	if result.Crushing.Success {
		target = target.WithShift(element.ShiftCrushing, element.ReactionBlock)
	}
	if result.RankKO.Success {
		target = target.WithForcedKO()
	}

	s = s.withCombatant(attacker)
	s = s.withCombatant(target)
	return s, Event{Actor: a.Actor, Attack: &result}
}

// rollCheck draws one roll against an eligible threshold.
func rollCheck(threshold float64, src roll.Source) CheckResult {
	r := src.Roll()
	return CheckResult{
		Eligible:  true,
		Threshold: threshold,
		Roll:      r,
		Success:   formula.ThresholdMet(r, threshold),
	}
}

// trueTarget applies the guard redirect for one strike. The declared
// queue is scanned in declaration order for a living, unconscripted
// combatant guarding the nominal target; the first such guard takes the
// strike. The redirect is a single hop: a guard's own guards are not
// consulted. Falls back to the nominal target, and reports false when
// neither leaves a living target.
func (s State) trueTarget(nominal string, consumed map[string]bool) (Combatant, bool) {
	for _, q := range s.Queue {
		if q.Type != ActionDefend || q.Target != nominal || consumed[q.Actor] {
			continue
		}
		if guard, _, ok := s.Find(q.Actor); ok && guard.Living() {
			return guard, true
		}
	}
	target, _, ok := s.Find(nominal)
	if !ok || !target.Living() {
		return Combatant{}, false
	}
	return target, true
}

// scoreOutcome checks both rosters for extinction. A round that empties
// both sides scores as a defeat.
func (s State) scoreOutcome() Status {
	if s.LivingCount(SidePlayers) == 0 {
		return StatusDefeat
	}
	if s.LivingCount(SideEnemies) == 0 {
		return StatusVictory
	}
	return StatusActive
}

// crossRoundBoundary advances an active combat into the next round's
// declaration phase: the queue empties and every living combatant
// receives the round-start energy stipend.
func (s State) crossRoundBoundary() State {
	for _, side := range []Side{SidePlayers, SideEnemies} {
		for _, c := range s.Roster(side) {
			if c.Living() {
				s = s.withCombatant(c.WithRoundReset())
			}
		}
	}
	s.Round++
	s.Phase = PhaseDeclaration
	s.Queue = nil
	return s
}

// displayName returns a combatant's name, falling back to the id for
// combatants no longer on either roster.
func (s State) displayName(id string) string {
	if c, _, ok := s.Find(id); ok {
		return c.Name
	}
	return id
}
