package combat

import (
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/roll"
)

// CounterChainCap bounds a parry exchange. A chain that is still
// alternating after this many hops simply stops, both sides unharmed by
// the capped hop.
const CounterChainCap = 10

// ResolveCounterChain plays out the exchange that follows a successful
// parry. The parrier counterstrikes the original attacker at once; each
// counterstrike may itself only be parried. A successful parry swaps the
// roles and the chain continues; a failed one applies the counterstrike
// mitigated at the parry failure rate and ends the chain.
//
// Hops award no energy and move no success rates. Only the final failed
// parry, if any, changes stamina.
//
// Postcondition: the returned combatants are the attacker and parrier in
// that order, updated with any chain damage.
func ResolveCounterChain(attacker, parrier Combatant, src roll.Source) (Combatant, Combatant, []CounterHop) {
	striker, defender := parrier, attacker
	var hops []CounterHop

	for i := 0; i < CounterChainCap; i++ {
		hop := CounterHop{
			Attacker: striker.ID,
			Defender: defender.ID,
			Raw:      formula.BaseDamage(striker.Power, defender.Power),
			Roll:     src.Roll(),
		}
		hop.Parried = formula.DefenseRollSuccess(hop.Roll, defender.EffectiveSuccess(element.ReactionParry))
		if hop.Parried {
			hops = append(hops, hop)
			striker, defender = defender, striker
			continue
		}
		hop.Damage = formula.Mitigated(hop.Raw, defender.SkillFor(element.ReactionParry).FailureMitigation)
		defender = defender.WithDamage(hop.Damage)
		hops = append(hops, hop)
		break
	}

	if striker.ID == attacker.ID {
		return striker, defender, hops
	}
	return defender, striker, hops
}
