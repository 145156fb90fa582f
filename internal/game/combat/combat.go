// Package combat implements the deterministic 3-versus-3 combat engine of
// the Ancient Order: the combatant and state model, the defense and
// counter-chain resolvers, the group-strike resolver, and the
// priority-ordered round pipeline. Every transformation is value-semantic
// and synchronous; randomness enters only through an injected roll.Source,
// so an identical starting state and roll sequence always reproduce an
// identical resolution.
package combat

import (
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/element"
	"github.com/tgoodington/Ancient-Order-sub001/internal/game/formula"
)

// Skill holds one reaction skill's rates. Success is the base chance in
// [0, 1]; SuccessMitigation applies to damage on a successful Block (zero
// for Dodge and Parry); FailureMitigation applies to damage when the
// reaction fails.
type Skill struct {
	Success           float64
	SuccessMitigation float64
	FailureMitigation float64
}

// Combatant is one fighter's live combat state. Values are replaced whole
// during resolution: every WithX helper returns a new Combatant and leaves
// the receiver untouched.
//
// Invariant: Stamina ∈ [0, MaxStamina]; KO ⟺ Stamina == 0.
type Combatant struct {
	ID         string
	Name       string
	Archetype  string
	Rank       float64
	Stamina    float64
	MaxStamina float64
	Power      float64
	Speed      float64
	Path       element.Path
	Block      Skill
	Dodge      Skill
	Parry      Skill
	Shifts     element.ShiftSet
	Energy     element.Progress
	KO         bool
}

// Living reports whether the combatant can still act and react.
func (c Combatant) Living() bool {
	return !c.KO
}

// StaminaFraction returns current stamina as a share of max.
// Precondition: MaxStamina > 0; roster validation guarantees it.
func (c Combatant) StaminaFraction() float64 {
	if c.MaxStamina <= 0 {
		return 0
	}
	return c.Stamina / c.MaxStamina
}

// SkillFor returns the skill backing a reaction type. Defenseless has no
// skill; it returns the zero Skill.
func (c Combatant) SkillFor(r element.Reaction) Skill {
	switch r {
	case element.ReactionBlock:
		return c.Block
	case element.ReactionDodge:
		return c.Dodge
	case element.ReactionParry:
		return c.Parry
	case element.ReactionDefenseless:
		return Skill{}
	}
	return Skill{}
}

// EffectiveSuccess returns a reaction's success rate with the combatant's
// accumulated rate shifts applied, clamped to [0, 1].
func (c Combatant) EffectiveSuccess(r element.Reaction) float64 {
	return element.EffectiveRate(c.SkillFor(r).Success, c.Shifts.Delta(r))
}

// WithDamage returns a copy with damage applied. Stamina floors at zero
// and the KO flag tracks it.
//
// Postcondition: Stamina ∈ [0, MaxStamina]; KO ⟺ Stamina == 0.
func (c Combatant) WithDamage(amount float64) Combatant {
	c.Stamina -= amount
	if c.Stamina <= 0 {
		c.Stamina = 0
		c.KO = true
	}
	return c
}

// WithRegen returns a copy with stamina restored, clamped to max.
// Precondition: the combatant is living; regen never revives.
func (c Combatant) WithRegen(amount float64) Combatant {
	c.Stamina += amount
	if c.Stamina > c.MaxStamina {
		c.Stamina = c.MaxStamina
	}
	return c
}

// WithForcedKO returns a copy knocked out outright, the terminal effect of
// a successful Rank KO.
//
// Postcondition: Stamina == 0 and KO is set.
func (c Combatant) WithForcedKO() Combatant {
	c.Stamina = 0
	c.KO = true
	return c
}

// WithEnergyAward returns a copy credited for an action or reaction event,
// including any ascension advance the award unlocks.
func (c Combatant) WithEnergyAward(category formula.GainCategory, success bool) Combatant {
	gain := formula.EnergyGain(category, success, c.Energy.Level)
	c.Energy = c.Energy.AddSegments(gain).CheckAscensionAdvance()
	return c
}

// WithSpentSegments returns a copy with a special-attack spend deducted.
func (c Combatant) WithSpentSegments(n int) Combatant {
	c.Energy = c.Energy.SpendSegments(n)
	return c
}

// WithEnergyZeroed returns a copy with current segments emptied, the cost
// every group-strike participant pays.
func (c Combatant) WithEnergyZeroed() Combatant {
	c.Energy = c.Energy.Zeroed()
	return c
}

// WithRoundReset returns a copy with the round-boundary energy stipend
// applied.
func (c Combatant) WithRoundReset() Combatant {
	c.Energy = c.Energy.ResetRound()
	return c
}

// WithShift returns a copy with one more rate-shift stack applied.
func (c Combatant) WithShift(kind element.ShiftKind, defense element.Reaction) Combatant {
	c.Shifts = c.Shifts.Apply(kind, defense)
	return c
}

// clone returns a copy sharing no storage with the receiver.
func (c Combatant) clone() Combatant {
	c.Shifts = c.Shifts.Clone()
	return c
}
