package combat

import (
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
)

// ResolveGroup plays out a group strike. Every living member of the
// leader's roster participates, their individual base damages summed and
// scaled by the synergy multiplier, and the target answers with a single
// forced block. The strike carries none of the single-strike checks and
// moves no success rates.
//
// The gathered charge is spent the moment the strike is unleashed:
// every participant's energy is zeroed whether or not the strike lands,
// and participants earn nothing for the round. The leader's own fall
// before resolution does not cancel the strike while any roster member
// still stands.
func ResolveGroup(s State, a Action, synergy float64, src roll.Source) (State, GroupResult) {
	side := s.SideOf(a.Actor)
	result := GroupResult{
		Leader:     a.Actor,
		Target:     a.Target,
		Multiplier: synergy,
		Defense:    DefenseResult{Roll: NoRoll, Multiplier: 1},
	}

	participants := s.Living(side)
	for _, p := range participants {
		result.Participants = append(result.Participants, p.ID)
		s = s.withCombatant(p.WithEnergyZeroed())
	}
	if len(participants) == 0 {
		result.TargetVanished = true
		return s, result
	}

	target, targetSide, ok := s.Find(a.Target)
	if !ok || targetSide != side.Opponent() || !target.Living() {
		result.TargetVanished = true
		return s, result
	}

	for _, p := range participants {
		result.BaseSum += formula.BaseDamage(p.Power, target.Power)
	}
	result.Raw = result.BaseSum * synergy
	result.Defense = ResolveDefense(target, element.ReactionBlock, true, src)
	result.Final = result.Raw * result.Defense.Multiplier

	target = target.WithDamage(result.Final)
	target = target.WithEnergyAward(formula.GainReaction, result.Defense.Success)
	return s.withCombatant(target), result
}
