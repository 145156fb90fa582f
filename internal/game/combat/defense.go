package combat

import (
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
)

// ResolveDefense rolls one defensive reaction against an incoming strike
// and returns the damage multiplier to apply to the raw amount.
//
// A defenseless target never rolls: the strike lands unmitigated. Block
// mitigates on both outcomes at its two rates. Dodge and parry negate on
// success and fall back to their failure rate otherwise; the parry
// counter chain is the caller's concern.
//
// Precondition: raw is the pre-mitigation damage, already scaled for
// segment spends.
func ResolveDefense(target Combatant, reaction element.Reaction, forced bool, src roll.Source) DefenseResult {
	result := DefenseResult{
		Reaction:   reaction.String(),
		Forced:     forced,
		Roll:       NoRoll,
		Multiplier: 1,
	}
	if reaction == element.ReactionDefenseless {
		return result
	}

	skill := target.SkillFor(reaction)
	result.Roll = src.Roll()
	result.Success = formula.DefenseRollSuccess(result.Roll, target.EffectiveSuccess(reaction))

	switch reaction {
	case element.ReactionBlock:
		if result.Success {
			result.Multiplier = 1 - skill.SuccessMitigation
		} else {
			result.Multiplier = 1 - skill.FailureMitigation
		}
	case element.ReactionDodge, element.ReactionParry:
		if result.Success {
			result.Multiplier = 0
		} else {
			result.Multiplier = 1 - skill.FailureMitigation
		}
	}
	return result
}
